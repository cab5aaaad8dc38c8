package huhforms

import (
	"charm.land/bubbles/v2/key"
	"charm.land/huh/v2"
)

// KeyMap is huh's default keymap with shift+enter added as a newline key
// in text fields
func KeyMap() *huh.KeyMap {
	keymap := huh.NewDefaultKeyMap()
	keymap.Text.NewLine = key.NewBinding(
		key.WithKeys("shift+enter", "alt+enter", "ctrl+j"),
		key.WithHelp("shift+enter / ctrl+j", "new line"),
	)
	return keymap
}
