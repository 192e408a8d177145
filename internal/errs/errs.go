package errs

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")
var ErrRequestNotFound = fmt.Errorf("request %w", ErrNotFound)
var ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)

var ErrPermissionDenied = errors.New("permission denied")
var ErrBotNotFound = fmt.Errorf("bot not found: %w", ErrPermissionDenied)
var ErrBotInactive = fmt.Errorf("bot inactive: %w", ErrPermissionDenied)
var ErrBotLacksPermission = fmt.Errorf("bot lacks permission: %w", ErrPermissionDenied)

var ErrInsufficientFunds = errors.New("insufficient balance")
var ErrInvalidAction = errors.New("invalid action")
var ErrInvalidAmount = errors.New("invalid amount")
var ErrUnknownKind = errors.New("unknown request kind")
var ErrInvalidToken = errors.New("invalid token")
