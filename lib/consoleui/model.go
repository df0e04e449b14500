// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

package consoleui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/qwdash/qwdash/lib/screen"
	"github.com/qwdash/qwdash/lib/status"
)

const (
	// DefaultPollInterval is how often the console refreshes.
	DefaultPollInterval = time.Second

	// DefaultLineLimit bounds how many status lines one refresh fetches.
	DefaultLineLimit = 500

	requestTimeout = 5 * time.Second

	// Two header rows and a rule, plus the footer row.
	chromeHeight = 4

	timeLayout = "15:04:05"
)

// Source is what the console reads from and acts on.
// *control.Client implements it.
type Source interface {
	Status(ctx context.Context) (screen.Report, error)
	Lines(ctx context.Context, limit int) ([]status.Line, error)
	Activity(ctx context.Context) error
	ScreenOn(ctx context.Context) error
	ScreenOff(ctx context.Context) error
}

// Options configures a Model. Zero values select the defaults.
type Options struct {
	PollInterval time.Duration
	LineLimit    int
	Theme        *Theme
	Keys         *KeyMap
}

// refreshMsg carries one fetch of the report and lines. Scheduled
// refreshes come from the poll loop and re-arm it.
type refreshMsg struct {
	report    screen.Report
	lines     []status.Line
	err       error
	scheduled bool
}

type tickMsg time.Time

// actionMsg reports the outcome of a key-triggered request.
type actionMsg struct {
	name string
	err  error
}

// Model is the bubbletea model of the console.
type Model struct {
	ctx    context.Context
	source Source

	keys  KeyMap
	theme Theme

	pollInterval time.Duration
	lineLimit    int

	viewport viewport.Model
	ready    bool
	width    int
	height   int

	// follow keeps the viewport pinned to the newest line.
	follow bool

	report  screen.Report
	lines   []status.Line
	loaded  bool
	err     error
	notice  string
	failure bool
}

// NewModel returns a console reading from source. Requests made by the
// model are bounded by ctx.
func NewModel(ctx context.Context, source Source, options Options) Model {
	model := Model{
		ctx:          ctx,
		source:       source,
		keys:         DefaultKeyMap,
		theme:        DefaultTheme,
		pollInterval: options.PollInterval,
		lineLimit:    options.LineLimit,
		follow:       true,
	}
	if options.Keys != nil {
		model.keys = *options.Keys
	}
	if options.Theme != nil {
		model.theme = *options.Theme
	}
	if model.pollInterval <= 0 {
		model.pollInterval = DefaultPollInterval
	}
	if model.lineLimit <= 0 {
		model.lineLimit = DefaultLineLimit
	}
	return model
}

// Init implements tea.Model. Starts the poll loop.
func (model Model) Init() tea.Cmd {
	return model.refresh(true)
}

// refresh fetches the report and lines.
func (model Model) refresh(scheduled bool) tea.Cmd {
	ctx, source, limit := model.ctx, model.source, model.lineLimit
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		report, err := source.Status(ctx)
		if err != nil {
			return refreshMsg{err: err, scheduled: scheduled}
		}
		lines, err := source.Lines(ctx, limit)
		return refreshMsg{report: report, lines: lines, err: err, scheduled: scheduled}
	}
}

func (model Model) tick() tea.Cmd {
	return tea.Tick(model.pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// perform runs one of the source's actions.
func (model Model) perform(name string, action func(context.Context) error) tea.Cmd {
	ctx := model.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		return actionMsg{name: name, err: action(ctx)}
	}
}

// Update implements tea.Model.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.KeyMsg:
		return model.handleKeys(message)

	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		height := max(message.Height-chromeHeight, 1)
		if !model.ready {
			model.viewport = viewport.New(message.Width, height)
			model.ready = true
		} else {
			model.viewport.Width = message.Width
			model.viewport.Height = height
		}
		model.syncContent()
		return model, nil

	case refreshMsg:
		if message.err != nil {
			model.err = message.err
		} else {
			model.err = nil
			model.report = message.report
			model.lines = message.lines
			model.loaded = true
			model.syncContent()
		}
		if message.scheduled {
			return model, model.tick()
		}
		return model, nil

	case tickMsg:
		return model, model.refresh(true)

	case actionMsg:
		if message.err != nil {
			model.notice = fmt.Sprintf("%s failed: %v", message.name, message.err)
			model.failure = true
		} else {
			model.notice = message.name + " sent"
			model.failure = false
		}
		return model, model.refresh(false)
	}
	return model, nil
}

func (model Model) handleKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Quit):
		return model, tea.Quit
	case key.Matches(message, model.keys.ScreenOn):
		return model, model.perform("screen on", model.source.ScreenOn)
	case key.Matches(message, model.keys.ScreenOff):
		return model, model.perform("screen off", model.source.ScreenOff)
	case key.Matches(message, model.keys.Activity):
		return model, model.perform("activity", model.source.Activity)
	case key.Matches(message, model.keys.Refresh):
		return model, model.refresh(false)
	}

	if !model.ready {
		return model, nil
	}
	switch {
	case key.Matches(message, model.keys.Up):
		model.viewport.LineUp(1)
	case key.Matches(message, model.keys.Down):
		model.viewport.LineDown(1)
	case key.Matches(message, model.keys.PageUp):
		model.viewport.HalfViewUp()
	case key.Matches(message, model.keys.PageDown):
		model.viewport.HalfViewDown()
	case key.Matches(message, model.keys.Home):
		model.viewport.GotoTop()
	case key.Matches(message, model.keys.End):
		model.viewport.GotoBottom()
	default:
		return model, nil
	}
	model.follow = model.viewport.AtBottom()
	return model, nil
}

// syncContent renders the lines into the viewport.
func (model *Model) syncContent() {
	if !model.ready {
		return
	}
	model.viewport.SetContent(model.renderLines())
	if model.follow {
		model.viewport.GotoBottom()
	}
}

func (model Model) renderLines() string {
	if len(model.lines) == 0 {
		return lipgloss.NewStyle().Foreground(model.theme.FaintText).Render("no status lines yet")
	}
	timeStyle := lipgloss.NewStyle().Foreground(model.theme.FaintText)
	textStyle := lipgloss.NewStyle().Foreground(model.theme.NormalText)
	textWidth := max(model.width-10, 1)
	var builder strings.Builder
	for index, line := range model.lines {
		if index > 0 {
			builder.WriteByte('\n')
		}
		builder.WriteString(timeStyle.Render(line.Time.Local().Format(timeLayout)))
		builder.WriteString("  ")
		builder.WriteString(textStyle.Render(ansi.Truncate(line.Text, textWidth, "…")))
	}
	return builder.String()
}

// FormatLine renders a status line the way the console and the
// "lines" command print it.
func FormatLine(line status.Line) string {
	return line.Time.Local().Format(timeLayout) + "  " + line.Text
}

// View implements tea.Model.
func (model Model) View() string {
	if !model.ready {
		return "connecting..."
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		model.renderHeader(),
		model.viewport.View(),
		model.renderFooter(),
	)
}

func (model Model) renderHeader() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(model.theme.HeaderForeground)
	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)

	badge, badgeColor := "UNKNOWN", model.theme.Unavailable
	if model.loaded {
		switch {
		case !model.report.Resolved:
			badge, badgeColor = "NO BACKLIGHT", model.theme.Unavailable
		case model.report.ScreenOn:
			badge, badgeColor = "SCREEN ON", model.theme.ScreenOn
		default:
			badge, badgeColor = "SCREEN OFF", model.theme.ScreenOff
		}
	}
	badgeStyle := lipgloss.NewStyle().Bold(true).Foreground(badgeColor)

	first := titleStyle.Render("qwdash") + "  " + badgeStyle.Render(badge)
	if model.loaded {
		first += faint.Render("  phase " + model.report.Phase)
		if !model.report.Elevated {
			first += lipgloss.NewStyle().Foreground(model.theme.ErrorText).Render("  no root")
		}
	}

	var second string
	switch {
	case model.err != nil:
		second = lipgloss.NewStyle().Foreground(model.theme.ErrorText).Render("error: " + model.err.Error())
	case model.loaded && model.report.Resolved:
		second = faint.Render(model.report.BacklightPath + "  max " + strconv.Itoa(model.report.MaxBrightness))
		if model.report.Verification != "" {
			second += faint.Render("  " + string(model.report.Verification))
		}
	case model.loaded:
		second = faint.Render("backlight path not found")
	}

	border := lipgloss.NewStyle().Foreground(model.theme.BorderColor).Render(strings.Repeat("─", max(model.width, 1)))
	return ansi.Truncate(first, model.width, "…") + "\n" +
		ansi.Truncate(second, model.width, "…") + "\n" + border
}

func (model Model) renderFooter() string {
	helpStyle := lipgloss.NewStyle().Foreground(model.theme.HelpText)
	var parts []string
	for _, binding := range model.keys.helpBindings() {
		help := binding.Help()
		parts = append(parts, help.Key+" "+help.Desc)
	}
	footer := helpStyle.Render(strings.Join(parts, "  "))
	if model.notice != "" {
		color := model.theme.FaintText
		if model.failure {
			color = model.theme.ErrorText
		}
		footer = lipgloss.NewStyle().Foreground(color).Render(model.notice) + "  " + footer
	}
	return ansi.Truncate(footer, model.width, "…")
}

// Run shows the console until the user quits or ctx is cancelled.
func Run(ctx context.Context, source Source, options Options) error {
	program := tea.NewProgram(NewModel(ctx, source, options), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
