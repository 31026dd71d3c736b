// Package password wraps bcrypt behind the two operations the auth service
// needs: a one-way hash and a verification that never panics on bad input.
package password

import "golang.org/x/crypto/bcrypt"

// Cost matches the work factor the rest of the deployment was provisioned
// for. Raising it only affects newly hashed passwords.
const Cost = 12

func Hash(plain string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), Cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether plain matches digest. Malformed digests simply
// fail verification.
func Verify(plain, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}
