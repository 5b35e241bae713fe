package utils

import "golang.org/x/crypto/bcrypt"

// MinPasswordLength is the shortest password the identity provider accepts.
const MinPasswordLength = 6

// HashPassword securely hashes a plain text password
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash compares a plain text password with a stored hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// ValidatePasswordPolicy enforces the provider's password policy (length only).
func ValidatePasswordPolicy(pw string) (ok bool, reason string) {
	if len(pw) < MinPasswordLength {
		return false, "Password should be at least 6 characters"
	}
	return true, ""
}
