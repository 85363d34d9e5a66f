// Package user defines the user record kept in the document store
// and the public projection of it returned by the HTTP layer.
package user

// User represents a registered account.
// Records are created on signup and never mutated or deleted afterwards.
type User struct {
	// ID is assigned sequentially, starting at 1.
	ID int `json:"id"`

	// Username is unique across the users collection.
	Username string `json:"username"`

	// PasswordHash is the hex encoded key derived from the password and PasswordSalt.
	PasswordHash string `json:"passwordHash"`

	// PasswordSalt is the hex encoded per-user random salt.
	PasswordSalt string `json:"passwordSalt"`
}

// Public is a User without the credential fields.
type Public struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

// ToPublic strips the secret fields from the user record.
func (u *User) ToPublic() Public {
	return Public{
		ID:       u.ID,
		Username: u.Username,
	}
}
