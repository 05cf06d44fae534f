// Package userdb defines the credential store consulted by the login gate
// before a session starts.
package userdb

import "errors"

var (
	// ErrNoSuchUser is returned when the nickname has no record.
	ErrNoSuchUser = errors.New("userdb: no such user")

	// ErrWrongPassword is returned when the nickname exists but the
	// password does not match.
	ErrWrongPassword = errors.New("userdb: wrong password")
)

// UserDB is the interface provided by all credential store implementations.
type UserDB interface {
	// Authenticate checks nickname and password, returning nil,
	// ErrNoSuchUser or ErrWrongPassword.
	Authenticate(nickname, password string) error

	// Add creates a record for a new user.
	Add(nickname, password string) error

	// Close closes the store.
	Close()
}
