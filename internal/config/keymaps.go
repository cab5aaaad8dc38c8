package config

// KeyMappings defines the configurable key bindings of the board view
type KeyMappings struct {
	// Stories
	MoveForward string `yaml:"move_forward"`
	MoveBack    string `yaml:"move_back"`
	ViewStory   string `yaml:"view_story"`
	NewStory    string `yaml:"new_story"`
	EditStory   string `yaml:"edit_story"`
	AddComment  string `yaml:"add_comment"`
	DeleteStory string `yaml:"delete_story"`
	SaveForm    string `yaml:"save_form"`

	// Filters
	Search   string `yaml:"search"`
	CycleTag string `yaml:"cycle_tag"`
	Refresh  string `yaml:"refresh"`

	// Navigation
	PrevColumn string `yaml:"prev_column"`
	NextColumn string `yaml:"next_column"`
	PrevStory  string `yaml:"prev_story"`
	NextStory  string `yaml:"next_story"`

	// Other
	ShowHelp string `yaml:"show_help"`
	Quit     string `yaml:"quit"`
}

// DefaultKeyMappings returns the default key mappings
func DefaultKeyMappings() KeyMappings {
	return KeyMappings{
		MoveForward: ">",
		MoveBack:    "<",
		ViewStory:   "enter",
		NewStory:    "n",
		EditStory:   "e",
		AddComment:  "c",
		DeleteStory: "d",
		SaveForm:    "ctrl+s",

		Search:   "/",
		CycleTag: "t",
		Refresh:  "r",

		PrevColumn: "h",
		NextColumn: "l",
		PrevStory:  "k",
		NextStory:  "j",

		ShowHelp: "?",
		Quit:     "q",
	}
}

// applyDefaults fills in missing key mappings with defaults
func (k *KeyMappings) applyDefaults() {
	d := DefaultKeyMappings()
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&k.MoveForward, d.MoveForward)
	fill(&k.MoveBack, d.MoveBack)
	fill(&k.ViewStory, d.ViewStory)
	fill(&k.NewStory, d.NewStory)
	fill(&k.EditStory, d.EditStory)
	fill(&k.AddComment, d.AddComment)
	fill(&k.DeleteStory, d.DeleteStory)
	fill(&k.SaveForm, d.SaveForm)
	fill(&k.Search, d.Search)
	fill(&k.CycleTag, d.CycleTag)
	fill(&k.Refresh, d.Refresh)
	fill(&k.PrevColumn, d.PrevColumn)
	fill(&k.NextColumn, d.NextColumn)
	fill(&k.PrevStory, d.PrevStory)
	fill(&k.NextStory, d.NextStory)
	fill(&k.ShowHelp, d.ShowHelp)
	fill(&k.Quit, d.Quit)
}
