package domain

// Principal is the authenticated caller, built from verified token claims.
type Principal struct {
	Email string
	// Subject is the user identifier claim; empty when the token carries none.
	Subject string
}

// HasSubject reports whether the token named a user identifier.
func (p Principal) HasSubject() bool {
	return p.Subject != ""
}

// Account is a user known to the credentials store.
type Account struct {
	ID           int
	Email        string
	PasswordHash []byte
}
