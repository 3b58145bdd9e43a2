package service

import "errors"

// Error taxonomy. Semua terminal untuk request tersebut kecuali
// ErrStorageUnavailable (boleh di-retry caller).
var (
	ErrProductNotFound        = errors.New("product not found")
	ErrDuplicateBarcode       = errors.New("barcode already exists")
	ErrInsufficientStock      = errors.New("insufficient stock remaining")
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrInvalidInput           = errors.New("invalid input")
	ErrStorageUnavailable     = errors.New("storage unavailable")
)
