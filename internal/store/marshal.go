package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/janus/internal/matcher"
)

// marshalJSON converts v to JSON TEXT for storage.
// HTML escaping is disabled so stored messages read the same as reported.
func marshalJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	// Encode appends a newline; trim for cleaner storage.
	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

func marshalDiagnostics(diags []matcher.Diagnostic) (string, error) {
	if diags == nil {
		diags = []matcher.Diagnostic{}
	}
	s, err := marshalJSON(diags)
	if err != nil {
		return "", fmt.Errorf("marshal diagnostics: %w", err)
	}
	return s, nil
}

func marshalErrors(errs []string) (string, error) {
	if errs == nil {
		errs = []string{}
	}
	s, err := marshalJSON(errs)
	if err != nil {
		return "", fmt.Errorf("marshal errors: %w", err)
	}
	return s, nil
}

// unmarshalDiagnostics decodes a stored array. Empty arrays decode to nil,
// matching what the runner produces for a spec without assertions.
func unmarshalDiagnostics(s string) ([]matcher.Diagnostic, error) {
	var diags []matcher.Diagnostic
	if err := json.Unmarshal([]byte(s), &diags); err != nil {
		return nil, fmt.Errorf("unmarshal diagnostics: %w", err)
	}
	if len(diags) == 0 {
		return nil, nil
	}
	return diags, nil
}

func unmarshalErrors(s string) ([]string, error) {
	var errs []string
	if err := json.Unmarshal([]byte(s), &errs); err != nil {
		return nil, fmt.Errorf("unmarshal errors: %w", err)
	}
	if len(errs) == 0 {
		return nil, nil
	}
	return errs, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
