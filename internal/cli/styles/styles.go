// Package styles holds the lipgloss styles of the human-readable CLI output
package styles

import (
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/thenoetrevino/storyboard/internal/config"
	"github.com/thenoetrevino/storyboard/internal/models"
)

var (
	// Card styles
	CardStyle lipgloss.Style
	CardWidth = 80

	// Text styles
	TitleStyle    lipgloss.Style
	SubtitleStyle lipgloss.Style
	LabelStyle    lipgloss.Style // For field labels like "Status:", "Points:"
	ValueStyle    lipgloss.Style // For field values
	SectionStyle  lipgloss.Style // For section headers like "Description", "Activity"

	// Status styles
	SuccessStyle lipgloss.Style
	ErrorStyle   lipgloss.Style

	moscowColors map[models.MoSCoW]string
)

func init() {
	Init(config.DefaultColorScheme())
}

// Init initializes all CLI styles with the given color scheme
func Init(colors config.ColorScheme) {
	CardStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(colors.Accent)).
		Padding(1, 2).
		Width(CardWidth)

	TitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(colors.Title))

	SubtitleStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(colors.Subtle))

	LabelStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(colors.Accent))

	ValueStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(colors.Normal))

	SectionStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(colors.Accent)).
		Bold(true).
		MarginTop(1)

	SuccessStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(colors.InfoFg))

	ErrorStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(colors.ErrorFg))

	moscowColors = map[models.MoSCoW]string{
		models.MoSCoWMust:   colors.Must,
		models.MoSCoWShould: colors.Should,
		models.MoSCoWCould:  colors.Could,
		models.MoSCoWWont:   colors.Wont,
	}
}

// ═══════════════════════════════════════════════════════════════════
// HELPER FUNCTIONS
// ═══════════════════════════════════════════════════════════════════

// ColoredText renders text with a hex color
func ColoredText(text, hexColor string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(hexColor)).
		Render(text)
}

// RenderTagChip renders a tag as "[name]" in the tag's vocabulary color
func RenderTagChip(tag string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(models.TagColor(tag))).
		Bold(true).
		Render("[" + tag + "]")
}

// RenderTags renders every tag chip separated by spaces
func RenderTags(tags []string) string {
	chips := make([]string, len(tags))
	for i, t := range tags {
		chips[i] = RenderTagChip(t)
	}
	return strings.Join(chips, " ")
}

// RenderMoSCoW renders a MoSCoW badge, or a muted dash when unset
func RenderMoSCoW(m models.MoSCoW) string {
	color, ok := moscowColors[m]
	if !ok {
		return SubtitleStyle.Render("-")
	}
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(color)).
		Render(m.Label())
}

// RenderCard wraps content in a styled card border
func RenderCard(content string) string {
	return CardStyle.Render(content)
}
