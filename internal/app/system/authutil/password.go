// Package authutil holds password hashing and the credential check used
// at login.
package authutil

import (
	"errors"
	"strings"

	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordTooShort is returned for passwords below MinPasswordLength.
var ErrPasswordTooShort = errors.New("password must be at least 8 characters")

// MinPasswordLength applies to personal and organization passwords alike.
const MinPasswordLength = models.MinOrgPasswordLength

// HashPassword returns a bcrypt hash of pw after checking its length.
func HashPassword(pw string) (string, error) {
	if len(pw) < MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword reports whether pw matches hash. An empty hash never matches.
func CheckPassword(hash, pw string) bool {
	if strings.TrimSpace(hash) == "" || pw == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// VerifyLogin checks pw for u. A personal password takes precedence; users
// without one sign in with their organization's shared password. org may
// be nil for super admins.
func VerifyLogin(u models.User, org *models.Organization, pw string) bool {
	if u.PasswordHash != "" {
		return CheckPassword(u.PasswordHash, pw)
	}
	if org == nil {
		return false
	}
	return CheckPassword(org.PasswordHash, pw)
}
