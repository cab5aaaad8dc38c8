package models

import (
	"fmt"
	"strings"
)

// MoSCoW is the prioritisation bucket of a story. The zero value means unset.
type MoSCoW string

const (
	MoSCoWNone   MoSCoW = ""
	MoSCoWMust   MoSCoW = "must"
	MoSCoWShould MoSCoW = "should"
	MoSCoWCould  MoSCoW = "could"
	MoSCoWWont   MoSCoW = "wont"
)

// Rank orders buckets for sorting; unset sorts after every real bucket
func (m MoSCoW) Rank() int {
	switch m {
	case MoSCoWMust:
		return 0
	case MoSCoWShould:
		return 1
	case MoSCoWCould:
		return 2
	case MoSCoWWont:
		return 3
	default:
		return 4
	}
}

// Label returns the display name ("Must have", ...)
func (m MoSCoW) Label() string {
	switch m {
	case MoSCoWMust:
		return "Must have"
	case MoSCoWShould:
		return "Should have"
	case MoSCoWCould:
		return "Could have"
	case MoSCoWWont:
		return "Won't have"
	default:
		return "Unprioritised"
	}
}

// ParseMoSCoW maps user input to a bucket. Empty, "none" and "null" clear it.
func ParseMoSCoW(s string) (MoSCoW, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "null":
		return MoSCoWNone, nil
	case "must", "m":
		return MoSCoWMust, nil
	case "should", "s":
		return MoSCoWShould, nil
	case "could", "c":
		return MoSCoWCould, nil
	case "wont", "won't", "w":
		return MoSCoWWont, nil
	}
	return "", fmt.Errorf("%w: %q (must be: must, should, could, wont, none)", ErrInvalidMoSCoW, s)
}
