// Package auth verifies player credentials against the user store.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"gorm.io/gorm"

	"github.com/openquiz/triviad/internal/core/data"
)

var (
	ErrUnknown          = errors.New("an unexpected error occurred, please contact your server administrator")
	ErrUnknownUsername  = errors.New("username does not exist")
	ErrPasswordMismatch = errors.New("password does not match")
)

// Seam for testing.
var findUser = data.FindUser

// VerifyUser checks the users table for the specified credentials combination,
// returning the matching user on success. The two credential failures are
// distinguished because the protocol reports them to the client differently.
func VerifyUser(db *gorm.DB, username, password string) (*data.User, error) {
	user, err := findUser(db, username)
	if err != nil {
		return nil, ErrUnknown
	}

	if user == nil {
		return nil, ErrUnknownUsername
	}
	if user.Password != HashPassword(password) {
		return nil, ErrPasswordMismatch
	}

	return user, nil
}

// CreateUser takes the specified credentials and creates a new record in the
// database, returning either the result or any errors encountered.
func CreateUser(db *gorm.DB, username, password string) (*data.User, error) {
	user := &data.User{
		Username: username,
		Password: HashPassword(password),
	}

	if err := data.CreateUser(db, user); err != nil {
		return nil, err
	}

	return user, nil
}

// HashPassword returns the hex digest of the password under the server's
// chosen hashing strategy.
func HashPassword(password string) string {
	hash := sha256.New()
	hash.Write([]byte(password))
	return hex.EncodeToString(hash.Sum(nil))
}
