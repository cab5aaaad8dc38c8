package tui

import (
	"charm.land/lipgloss/v2"
	"github.com/thenoetrevino/storyboard/internal/config"
	"github.com/thenoetrevino/storyboard/internal/models"
)

// Styles holds every lipgloss style of the board, built from a color scheme
type Styles struct {
	Column         lipgloss.Style
	SelectedColumn lipgloss.Style
	ColumnTitle    lipgloss.Style
	Card           lipgloss.Style
	SelectedCard   lipgloss.Style
	CardTitle      lipgloss.Style
	Subtle         lipgloss.Style
	Label          lipgloss.Style
	Header         lipgloss.Style
	Info           lipgloss.Style
	Error          lipgloss.Style
	Detail         lipgloss.Style
	Confirm        lipgloss.Style

	moscow map[models.MoSCoW]string
}

// NewStyles builds the board styles from colors
func NewStyles(colors config.ColorScheme) Styles {
	return Styles{
		Column: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(colors.ColumnBorder)).
			Padding(0, 1),
		SelectedColumn: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(colors.SelectedBorder)).
			Padding(0, 1),
		ColumnTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colors.Title)),
		Card: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color(colors.CardBorder)),
		SelectedCard: lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color(colors.SelectedBorder)).
			Background(lipgloss.Color(colors.SelectedBg)),
		CardTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colors.Normal)),
		Subtle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colors.Subtle)),
		Label: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colors.Accent)),
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colors.Accent)).
			Padding(0, 1),
		Info: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colors.InfoFg)),
		Error: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colors.ErrorFg)),
		Detail: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(colors.Accent)).
			Padding(0, 1),
		Confirm: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(colors.ErrorFg)).
			Padding(1),
		moscow: map[models.MoSCoW]string{
			models.MoSCoWMust:   colors.Must,
			models.MoSCoWShould: colors.Should,
			models.MoSCoWCould:  colors.Could,
			models.MoSCoWWont:   colors.Wont,
		},
	}
}

// MoSCoW renders a priority badge, or nothing when unset
func (s Styles) MoSCoW(m models.MoSCoW) string {
	color, ok := s.moscow[m]
	if !ok {
		return ""
	}
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(color)).Render(m.Label())
}

// Tag renders a tag chip in its vocabulary color
func (s Styles) Tag(tag string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(models.TagColor(tag))).Render("#" + tag)
}
