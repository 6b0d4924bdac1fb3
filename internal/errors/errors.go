package errors

import "errors"

var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrUserExists          = errors.New("user exists")
	ErrUserNotFound        = errors.New("user not found")
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrListingNotFound     = errors.New("listing not found")
	ErrListingUnavailable  = errors.New("listing is not available")
	ErrOwnListing          = errors.New("listing belongs to buyer")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrCurrencyMismatch    = errors.New("currency mismatch")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrDuplicateReference  = errors.New("duplicate payment reference")
	ErrInvalidTransition   = errors.New("invalid transaction status transition")
	ErrAlreadySettled      = errors.New("transaction already settled")
	ErrInvalidSignature    = errors.New("invalid webhook signature")
	ErrInvalidPayload      = errors.New("invalid webhook payload")
	ErrEventIgnored        = errors.New("webhook event ignored")
	ErrGatewayRejected     = errors.New("payment gateway rejected request")
	ErrReferenceLocked     = errors.New("payment reference is being processed")
)
