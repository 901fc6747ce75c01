package payment

import "errors"

var (
	ErrNotFound           = errors.New("payment not found")
	ErrDuplicateReference = errors.New("payment reference already exists")

	// -- Constants (External Systems) --
	PgUniqueViolation = "23505"
)
