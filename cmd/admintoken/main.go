// Command admintoken issues an admin bearer token for the approval API.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/and161185/gamewallet/internal/auth"
)

func main() {
	secret := flag.String("k", os.Getenv("SECRET_KEY"), "JWT signing key")
	adminID := flag.String("id", "", "admin user id")
	flag.Parse()

	if *secret == "" || *adminID == "" {
		fmt.Fprintln(os.Stderr, "usage: admintoken -k <secret> -id <admin id>")
		os.Exit(2)
	}

	token, err := auth.NewTokenManager(*secret).GenerateToken(*adminID)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(token)
}
