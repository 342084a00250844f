// Package secrets checks the storage credentials file without ever
// exposing the values it holds.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
)

const (
	FolderKey         = "drive_folder_id"
	ServiceAccountKey = "gcp_service_account"
)

var (
	// ErrMissingFile is returned when the secrets file does not exist
	ErrMissingFile = errors.New("missing file")
	// ErrParse is returned when the file is not valid UTF-8 TOML
	ErrParse = errors.New("toml parse error")
)

// Report lists the key names found in a secrets file
type Report struct {
	Path               string
	Keys               []string // sorted top-level keys
	ServiceAccountKeys []string // sorted subkeys of gcp_service_account
	Missing            []string // expected keys that are absent
}

// Validate parses the TOML file at path and reports its key structure.
// Parse errors carry only the position and message, never the offending line.
func Validate(path string) (*Report, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingFile, path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("%w: %s: invalid UTF-8", ErrParse, path)
	}

	var data map[string]any
	if _, err := toml.Decode(string(raw), &data); err != nil {
		var perr toml.ParseError
		if errors.As(err, &perr) {
			return nil, fmt.Errorf("%w at %s:%d:%d: %s",
				ErrParse, path, perr.Position.Line, perr.Position.Col, perr.Message)
		}
		return nil, fmt.Errorf("%w at %s", ErrParse, path)
	}

	report := &Report{Path: path}
	for key := range data {
		report.Keys = append(report.Keys, key)
	}
	sort.Strings(report.Keys)

	if table, ok := data[ServiceAccountKey].(map[string]any); ok {
		for key := range table {
			report.ServiceAccountKeys = append(report.ServiceAccountKeys, key)
		}
		sort.Strings(report.ServiceAccountKeys)
	}

	for _, key := range []string{FolderKey, ServiceAccountKey} {
		if _, ok := data[key]; !ok {
			report.Missing = append(report.Missing, key)
		}
	}

	return report, nil
}

// OK returns true when every expected key is present
func (r *Report) OK() bool {
	return len(r.Missing) == 0
}

// Text renders the report for terminal output
func (r *Report) Text() string {
	var b strings.Builder
	b.WriteString("TOML OK\n")
	b.WriteString("Top-level keys:\n")
	for _, key := range r.Keys {
		if key == ServiceAccountKey {
			fmt.Fprintf(&b, "- %s (subkeys: %s)\n", key, strings.Join(r.ServiceAccountKeys, ", "))
			continue
		}
		fmt.Fprintf(&b, "- %s\n", key)
	}
	if len(r.Missing) > 0 {
		fmt.Fprintf(&b, "Warning: missing expected keys: %s\n", strings.Join(r.Missing, ", "))
	}
	return b.String()
}
