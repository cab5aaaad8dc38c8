// Package user resolves the name recorded as the author of story activity
package user

import (
	"os"
	"os/user"
	"strings"
)

// EnvAuthor overrides the author name for a single shell
const EnvAuthor = "STORYBOARD_AUTHOR"

// GetCurrentUsername returns the current system username.
// It tries user.Current(), then the USER environment variable, and
// finally "unknown" so the result is never empty.
func GetCurrentUsername() string {
	currentUser, err := user.Current()
	if err != nil || currentUser.Username == "" {
		if username := os.Getenv("USER"); username != "" {
			return username
		}
		return "unknown"
	}
	return currentUser.Username
}

// Author picks the activity author: an explicit value, then
// STORYBOARD_AUTHOR, then the configured name, then the system user.
func Author(explicit, configured string) string {
	for _, candidate := range []string{explicit, os.Getenv(EnvAuthor), configured} {
		if c := strings.TrimSpace(candidate); c != "" {
			return c
		}
	}
	return GetCurrentUsername()
}
