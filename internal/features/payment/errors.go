package payment

import "errors"

var (
	ErrInvalidAmount = errors.New("payment amount must be positive")
	ErrInvalidMethod = errors.New("unknown payment method")
)
