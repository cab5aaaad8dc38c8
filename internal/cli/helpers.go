package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// ParseID reads a positive ID from the first positional arg or the --id flag
func ParseID(cmd *cobra.Command, args []string) (int, error) {
	if len(args) > 0 {
		id, err := strconv.Atoi(args[0])
		if err != nil || id <= 0 {
			return 0, fmt.Errorf("invalid ID %q: must be a positive integer", args[0])
		}
		return id, nil
	}
	id, _ := cmd.Flags().GetInt("id")
	if id <= 0 {
		return 0, fmt.Errorf("an ID is required")
	}
	return id, nil
}

// ReadText returns value, or all of stdin when value is "-"
func ReadText(value string) (string, error) {
	if value != "-" {
		return value, nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

// SplitList splits comma-separated values, dropping blanks
func SplitList(values []string) []string {
	out := []string{}
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// PrintIDs writes one ID per line, the quiet rendering of a list
func PrintIDs[T interface{ GetID() int }](items []T) {
	for _, it := range items {
		fmt.Printf("%d\n", it.GetID())
	}
}
