// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

package consoleui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the console's key bindings.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding

	ScreenOn  key.Binding
	ScreenOff key.Binding
	Activity  key.Binding
	Refresh   key.Binding

	Quit key.Binding
}

// DefaultKeyMap is the built-in key binding set.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("ctrl+u", "pgup"),
		key.WithHelp("C-u", "page up"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("ctrl+d", "pgdown"),
		key.WithHelp("C-d", "page down"),
	),
	Home: key.NewBinding(
		key.WithKeys("g", "home"),
		key.WithHelp("g", "top"),
	),
	End: key.NewBinding(
		key.WithKeys("G", "end"),
		key.WithHelp("G", "follow"),
	),
	ScreenOn: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "screen on"),
	),
	ScreenOff: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "screen off"),
	),
	Activity: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "activity"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// helpBindings is the order bindings appear in the footer.
func (keys KeyMap) helpBindings() []key.Binding {
	return []key.Binding{keys.ScreenOn, keys.ScreenOff, keys.Activity, keys.End, keys.Refresh, keys.Quit}
}
