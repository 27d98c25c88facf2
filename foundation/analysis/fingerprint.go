package analysis

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Fingerprint returns the SHA-256 of the content read from r as lower case
// hex. The content is streamed and never held in memory.
func Fingerprint(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("reading content: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// FingerprintFile returns the fingerprint of the file at the specified path.
func FingerprintFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	return Fingerprint(f)
}
