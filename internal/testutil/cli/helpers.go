package cli

import (
	"testing"

	"github.com/bytedance/sonic"
)

// Envelope is the JSON shape every --json command prints
type Envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
	Error   struct {
		Code       string `json:"code"`
		Message    string `json:"message"`
		Suggestion string `json:"suggestion"`
	} `json:"error"`
}

// ParseJSON decodes the JSON envelope printed by a --json command
func ParseJSON[T any](t *testing.T, output string) Envelope[T] {
	t.Helper()

	var result Envelope[T]
	if err := sonic.UnmarshalString(output, &result); err != nil {
		t.Fatalf("Failed to parse JSON output: %v\nOutput: %s", err, output)
	}

	return result
}
