package models

// User represents an operator account.
//
// Accounts are not stored in the ledger database. They come from
// configuration (AUTH_USERS) and only matter when JWT auth is enabled.
type User struct {
	// Name is the login name and the JWT subject.
	Name string

	// PasswordHash is the bcrypt hash of the account password.
	PasswordHash string
}
