// Package ghoutput writes GitHub Actions step outputs.
package ghoutput

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"sort"
	"strings"
)

// newDelimiter returns a heredoc delimiter for multiline values.
var newDelimiter = func() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate output delimiter: %w", err)
	}
	return "ghadelimiter_" + hex.EncodeToString(buf), nil
}

// Write appends outputs to the GITHUB_OUTPUT file when available.
func Write(values map[string]string) error {
	return WriteFile(strings.TrimSpace(os.Getenv("GITHUB_OUTPUT")), values)
}

// WriteFile appends outputs to path, sorted by key. Single-line values use key=value,
// multiline values use the key<<DELIMITER form. An empty path is a no-op.
func WriteFile(path string, values map[string]string) error {
	if path == "" || len(values) == 0 {
		return nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open github output %q: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	keys := make([]string, 0, len(values))
	for k := range values {
		if strings.TrimSpace(k) == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		entry, err := formatEntry(key, values[key])
		if err != nil {
			return err
		}
		if _, err := f.WriteString(entry); err != nil {
			return fmt.Errorf("write github output %q: %w", key, err)
		}
	}
	return nil
}

func formatEntry(key, value string) (string, error) {
	if !strings.ContainsAny(value, "\r\n") {
		return fmt.Sprintf("%s=%s\n", key, value), nil
	}
	delim, err := newDelimiter()
	if err != nil {
		return "", err
	}
	if strings.Contains(value, delim) {
		return "", fmt.Errorf("github output %q contains its delimiter", key)
	}
	return fmt.Sprintf("%s<<%s\n%s\n%s\n", key, delim, value, delim), nil
}
