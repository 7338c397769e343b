/*
Package randx generates cryptographically secure random identifiers.

It produces UUID message ids and short Base62 object keys used when
naming attachment uploads.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	// Base62Chars is the character set for Base62 encoding (0-9, A-Z, a-z).
	Base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// Base62Len is the size of the Base62 character set.
	Base62Len = int64(len(Base62Chars))

	// ObjectKeyLength is the length of generated attachment object keys.
	ObjectKeyLength = 12
)

// ObjectKey generates a random Base62 string for naming stored objects.
func ObjectKey() (string, error) {
	result := make([]byte, ObjectKeyLength)

	for i := range ObjectKeyLength {
		num, err := rand.Int(rand.Reader, big.NewInt(Base62Len))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number for object key: %v", err)
		}

		result[i] = Base62Chars[num.Int64()]
	}

	return string(result), nil
}

// MessageID generates a UUID v4 string used as a message identifier.
func MessageID() string {
	return uuid.New().String()
}

// IsValidObjectKey reports whether s is a well-formed generated object key.
func IsValidObjectKey(s string) bool {
	if len(s) != ObjectKeyLength {
		return false
	}

	for _, char := range s {
		if !strings.ContainsRune(Base62Chars, char) {
			return false
		}
	}

	return true
}
