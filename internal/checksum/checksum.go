// Package checksum computes and verifies the SHA-256 digests recorded in
// model cards.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// CalculateSHA256 returns the lowercase hex SHA-256 of everything read from r.
func CalculateSHA256(r io.Reader) (string, error) {
	sum, _, err := calculate(r)
	return sum, err
}

func calculate(r io.Reader) (string, int64, error) {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", n, fmt.Errorf("failed to calculate checksum: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// FileSHA256 hashes the file at path and returns the digest with the number
// of bytes read.
func FileSHA256(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()
	return calculate(f)
}

// MismatchError reports a digest that differs from the recorded one.
type MismatchError struct {
	Path     string
	Expected string
	Actual   string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("sha256 mismatch for %s: expected %s, got %s", e.Path, e.Expected, e.Actual)
}

// IsMismatch reports whether err is (or wraps) a *MismatchError.
func IsMismatch(err error) bool {
	var me *MismatchError
	return errors.As(err, &me)
}

// Verify hashes the file at path and compares it with expected
// (case-insensitive). A mismatch is returned as *MismatchError.
func Verify(path, expected string) error {
	expected = strings.ToLower(strings.TrimSpace(expected))
	if expected == "" {
		return errors.New("no expected sha256 to verify against")
	}
	actual, _, err := FileSHA256(path)
	if err != nil {
		return err
	}
	if actual != expected {
		return &MismatchError{Path: path, Expected: expected, Actual: actual}
	}
	return nil
}
