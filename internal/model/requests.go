package model

import "github.com/shopspring/decimal"

type ActionRequest struct {
	Action      Action           `json:"action"`
	FinalAmount *decimal.Decimal `json:"final_amount,omitempty"`
	Reason      string           `json:"reason,omitempty"`
}
