package colors

// Default returns the default color scheme (purple theme)
func Default() *ColorScheme {
	return &ColorScheme{
		Preset: "default",

		Accent: "#874BFD",

		ColumnBorder:   "#5F87D7",
		CardBorder:     "#585858",
		SelectedBorder: "#D75FD7",
		SelectedBg:     "#3A3A3A",

		Title:  "#D75FD7",
		Subtle: "#585858",
		Normal: "#D0D0D0",

		Must:   "#EF4444",
		Should: "#F97316",
		Could:  "#3B82F6",
		Wont:   "#6B7280",

		InfoFg:  "#00AFFF",
		ErrorFg: "#FF5F5F",
	}
}
