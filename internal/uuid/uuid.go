// Package uuid wraps the upstream uuid library so callers depend on a
// single minting function.
package uuid

import "github.com/google/uuid"

// New returns a random (version 4) UUID string.
func New() string {
	return uuid.NewString()
}
