// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

package consoleui

import "github.com/charmbracelet/lipgloss"

// Theme defines the console's colors as ANSI 256-color codes.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color

	// Power state badges.
	ScreenOn    lipgloss.Color
	ScreenOff   lipgloss.Color
	Unavailable lipgloss.Color

	// ErrorText colors connection failures and failed writes.
	ErrorText lipgloss.Color
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),

	ScreenOn:    lipgloss.Color("220"), // amber, a lit panel
	ScreenOff:   lipgloss.Color("75"),  // blue
	Unavailable: lipgloss.Color("245"), // gray

	ErrorText: lipgloss.Color("196"),
}
