package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// verifyKey reports whether key matches the bcrypt hash stored for a
// service account in the remote-auth table. Fletcher never hashes keys
// itself: every hash is provisioned by an operator ahead of time, so
// there is no HashKey counterpart to this function.
func verifyKey(hash, key string) bool {
	if hash == "" || key == "" {
		return false
	}

	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
}
