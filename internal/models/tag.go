package models

import (
	"fmt"
	"strings"
)

// Tag is an entry of the fixed tag vocabulary
type Tag struct {
	Name  string `json:"name"`
	Color string `json:"color"` // Hex color code (e.g., "#7D56F4")
}

// TagVocabulary is the fixed set of tags a story may carry, in display order
var TagVocabulary = []Tag{
	{Name: "frontend", Color: "#3B82F6"},
	{Name: "backend", Color: "#22C55E"},
	{Name: "design", Color: "#EC4899"},
	{Name: "infra", Color: "#6B7280"},
	{Name: "research", Color: "#A855F7"},
	{Name: "security", Color: "#EF4444"},
	{Name: "performance", Color: "#F97316"},
	{Name: "data", Color: "#EAB308"},
}

// NormalizeTag lowercases and validates a tag against the vocabulary
func NormalizeTag(s string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, t := range TagVocabulary {
		if t.Name == name {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTag, s)
}

// TagColor returns the display color for a tag, or a neutral grey
func TagColor(name string) string {
	for _, t := range TagVocabulary {
		if t.Name == name {
			return t.Color
		}
	}
	return "#6B7280"
}
