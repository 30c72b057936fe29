package store

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// placeholderList returns "?,?,?" for n placeholders.
func placeholderList(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}

// stringsToArgs converts []string to []any for use with database/sql.
func stringsToArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

// ContentHash returns the hex SHA-256 of src.
func ContentHash(src []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(src))
}
