package ports

import "errors"

var ErrPasswordMismatch = errors.New("password mismatch")

type PasswordHasher interface {
	Hash(plain string) (string, error)
	// Compare returns ErrPasswordMismatch when plain does not match hash.
	Compare(hash string, plain string) error
}
