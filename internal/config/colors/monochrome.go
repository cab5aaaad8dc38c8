package colors

// Monochrome returns a black and white color scheme
func Monochrome() *ColorScheme {
	return &ColorScheme{
		Preset: "monochrome",

		Accent: "#FFFFFF",

		ColumnBorder:   "#FFFFFF",
		CardBorder:     "#585858",
		SelectedBorder: "#FFFFFF",
		SelectedBg:     "#3A3A3A",

		Title:  "#FFFFFF",
		Subtle: "#585858",
		Normal: "#D0D0D0",

		Must:   "#FFFFFF",
		Should: "#D0D0D0",
		Could:  "#A8A8A8",
		Wont:   "#585858",

		InfoFg:  "#FFFFFF",
		ErrorFg: "#FFFFFF",
	}
}
