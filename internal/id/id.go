// Package id generates opaque identifiers for bulk operations and tokens.
// Illustrations and tags use integer database keys; these ids label
// transient things that are logged or handed to clients.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// alphabet avoids '-' and '_' so ids split cleanly on the prefix separator.
const alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Length is the size of the random part of every id.
const Length = 16

// Prefixes in use.
const (
	PrefixOperation = "op"
	PrefixToken     = "tok"
)

// Generate returns prefix + "_" + Length random alphanumeric characters.
func Generate(prefix string) (string, error) {
	s, err := gonanoid.Generate(alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "_" + s, nil
}

// MustGenerate is like Generate but panics when the system has no entropy.
func MustGenerate(prefix string) string {
	s, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return s
}

// OperationID labels one bulk mutation in logs and responses.
func OperationID() string {
	return MustGenerate(PrefixOperation)
}

// TokenID is the jti of an issued access token.
func TokenID() string {
	return MustGenerate(PrefixToken)
}
