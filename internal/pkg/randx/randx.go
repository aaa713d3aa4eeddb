/*
Package randx provides functions for generating cryptographically secure random numbers and unique identifiers.

It is primarily used to generate fixed-length Base62 encoded hub invite codes and standard
UUID identifiers for messages and WebSocket connections.
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
	// Base62Chars defines the character set used for Base62 encoding (0-9, A-Z, a-z).
	Base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// Base62Len is the total number of characters in the Base62 character set (62).
	Base62Len = int64(len(Base62Chars))

	// InviteCodeLength is the fixed length required for a generated hub invite code.
	InviteCodeLength = 8
)

// InviteCode generates a Base62 encoded hub invite code using a cryptographically
// secure random number generator (crypto/rand).
// It returns a string of length InviteCodeLength and any error encountered.
func InviteCode() (string, error) {
	result := make([]byte, InviteCodeLength)

	for i := 0; i < InviteCodeLength; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(Base62Len))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number for invite code: %v", err)
		}

		result[i] = Base62Chars[num.Int64()]
	}

	return string(result), nil
}

// IsValidInviteCode checks if the given string is a valid hub invite code.
// Validity criteria include: length equals InviteCodeLength and all characters
// belong to the Base62Chars set.
func IsValidInviteCode(code string) bool {
	if len(code) != InviteCodeLength {
		return false
	}

	for _, c := range code {
		if !strings.ContainsRune(Base62Chars, c) {
			return false
		}
	}

	return true
}

// MessageID generates a standard UUID v4 string to serve as a unique identifier for a message.
func MessageID() string {
	return uuid.New().String()
}

// ConnectionID generates a standard UUID v4 string identifying one live WebSocket
// connection. Connection IDs are process-unique and never persisted.
func ConnectionID() string {
	return uuid.New().String()
}

// FileToken generates a standard UUID v4 string used as the unguessable part
// of an object storage key.
func FileToken() string {
	return uuid.New().String()
}

// UserNickname generates a default display name for a freshly registered
// account, e.g. "User_a1B2c3".
func UserNickname() (string, error) {
	suffix := make([]byte, 6)

	for i := range suffix {
		num, err := rand.Int(rand.Reader, big.NewInt(Base62Len))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number for nickname: %v", err)
		}

		suffix[i] = Base62Chars[num.Int64()]
	}

	return "User_" + string(suffix), nil
}
