package utils

import "github.com/google/uuid"

// CanonicalUUID returns the lower-case hyphenated form stores use as keys.
func CanonicalUUID(s string) (string, bool) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", false
	}
	return id.String(), true
}
