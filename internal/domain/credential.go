package domain

import "time"

// Credential is one row of the authentication table. Passwords are stored
// as bcrypt hashes; the plaintext never reaches the repository.
type Credential struct {
	Email        string
	Username     string
	PasswordHash string
}

// Session is the server-held record of a logged-in user. The client keeps
// only the opaque token.
type Session struct {
	Token     string
	Username  string
	CreatedAt time.Time
}
