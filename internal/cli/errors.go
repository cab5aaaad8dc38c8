package cli

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/thenoetrevino/storyboard/internal/api"
)

var suggestions = map[string]string{
	api.CodeBoardNotFound:     "Use 'storyboard board list' to see available boards",
	api.CodeStoryNotFound:     "Use 'storyboard story list --board=<id>' to see available stories",
	api.CodeMemberNotFound:    "Use 'storyboard board member list --board=<id>' to see the team",
	api.CodeDependencyMissing: "Use 'storyboard story show <id>' to see its dependencies",
	api.CodeFieldLocked:       "Use 'storyboard story fields <id>' to see which fields are editable",
	api.CodeDuplicateMember:   "Member names are unique per board",
	api.CodeCircularDep:       "Remove one of the existing dependencies first",
}

// Fail reports err through the formatter and returns a CommandError whose
// exit code matches the error's category.
func Fail(f *OutputFormatter, err error) error {
	status, detail := api.Classify(err)

	code := ExitError
	switch status {
	case http.StatusNotFound:
		code = ExitNotFound
	case http.StatusBadRequest:
		code = ExitValidation
	case http.StatusConflict:
		code = ExitDataErr
	}

	message := detail.Message
	if status >= http.StatusInternalServerError {
		message = err.Error()
	}

	suggestion := suggestions[detail.Code]
	if detail.Code == api.CodeTransitionBlocked && len(detail.Unmet) > 0 {
		unmet := make([]string, len(detail.Unmet))
		for i, r := range detail.Unmet {
			unmet[i] = r.Message
		}
		suggestion = "Resolve first: " + strings.Join(unmet, "; ")
	}

	if fmtErr := f.ErrorWithSuggestion(strings.ToUpper(detail.Code), message, suggestion); fmtErr != nil {
		slog.Error("Error formatting error message", "error", fmtErr)
	}
	return &CommandError{Code: code, Err: err}
}

// Usage reports a usage problem and returns a CommandError with ExitUsage
func Usage(f *OutputFormatter, code, message, suggestion string) error {
	if fmtErr := f.ErrorWithSuggestion(code, message, suggestion); fmtErr != nil {
		slog.Error("Error formatting error message", "error", fmtErr)
	}
	return &CommandError{Code: ExitUsage, Err: fmt.Errorf("%s", message)}
}
