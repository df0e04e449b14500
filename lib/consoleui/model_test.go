// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

package consoleui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/qwdash/qwdash/lib/power"
	"github.com/qwdash/qwdash/lib/screen"
	"github.com/qwdash/qwdash/lib/status"
)

type fakeSource struct {
	mu      sync.Mutex
	report  screen.Report
	lines   []status.Line
	err     error
	actions []string
	limit   int
}

func (s *fakeSource) Status(context.Context) (screen.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report, s.err
}

func (s *fakeSource) Lines(_ context.Context, limit int) ([]status.Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limit = limit
	return s.lines, s.err
}

func (s *fakeSource) record(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = append(s.actions, name)
	return s.err
}

func (s *fakeSource) Activity(context.Context) error  { return s.record("activity") }
func (s *fakeSource) ScreenOn(context.Context) error  { return s.record("screen-on") }
func (s *fakeSource) ScreenOff(context.Context) error { return s.record("screen-off") }

var start = time.Date(2026, 2, 1, 9, 0, 0, 0, time.Local)

func newSource() *fakeSource {
	return &fakeSource{
		report: screen.Report{
			ScreenOn:      true,
			Phase:         "active",
			BacklightPath: "/sys/class/backlight/intel_backlight/brightness",
			MaxBrightness: 937,
			Resolved:      true,
			Elevated:      true,
			Verification:  power.Verified,
		},
		lines: []status.Line{
			{Time: start, Text: "subsystem started"},
			{Time: start.Add(time.Second), Text: "root access granted"},
		},
	}
}

func keyRunes(text string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)}
}

// step applies message and then runs the returned command once,
// feeding its message back in. The poll tick armed by a refresh is
// never run.
func step(t *testing.T, model Model, message tea.Msg) (Model, tea.Msg) {
	t.Helper()
	updated, cmd := model.Update(message)
	model = updated.(Model)
	if _, ok := message.(refreshMsg); ok || cmd == nil {
		return model, nil
	}
	result := cmd()
	switch result.(type) {
	case refreshMsg, actionMsg:
		updated, _ = model.Update(result)
		model = updated.(Model)
	}
	return model, result
}

func loadedModel(t *testing.T, source *fakeSource) Model {
	t.Helper()
	model := NewModel(context.Background(), source, Options{})
	model, _ = step(t, model, tea.WindowSizeMsg{Width: 100, Height: 20})
	model, _ = step(t, model, model.refresh(true)())
	return model
}

func TestViewBeforeSize(t *testing.T) {
	model := NewModel(context.Background(), newSource(), Options{})
	if got := model.View(); got != "connecting..." {
		t.Fatalf("View() = %q", got)
	}
}

func TestInitFetchesReportAndLines(t *testing.T) {
	source := newSource()
	model := NewModel(context.Background(), source, Options{LineLimit: 50})

	message := model.Init()()
	refresh, ok := message.(refreshMsg)
	if !ok {
		t.Fatalf("Init() produced %T, want refreshMsg", message)
	}
	if !refresh.scheduled {
		t.Error("initial refresh does not start the poll loop")
	}
	if len(refresh.lines) != 2 || refresh.report.MaxBrightness != 937 {
		t.Errorf("refresh = %+v", refresh)
	}
	if source.limit != 50 {
		t.Errorf("Lines limit = %d, want 50", source.limit)
	}
}

func TestViewShowsStateAndLines(t *testing.T) {
	model := loadedModel(t, newSource())
	view := ansi.Strip(model.View())

	for _, want := range []string{
		"SCREEN ON",
		"phase active",
		"/sys/class/backlight/intel_backlight/brightness  max 937",
		"09:00:00  subsystem started",
		"09:00:01  root access granted",
		"q quit",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}
	if strings.Contains(view, "no root") {
		t.Error("View() reports no root for an elevated subsystem")
	}
}

func TestViewStates(t *testing.T) {
	tests := []struct {
		name   string
		report screen.Report
		want   []string
	}{
		{
			name:   "dimmed",
			report: screen.Report{Phase: "dimmed", Resolved: true, Elevated: true, BacklightPath: "/b", MaxBrightness: 255},
			want:   []string{"SCREEN OFF", "phase dimmed"},
		},
		{
			name:   "unrooted",
			report: screen.Report{ScreenOn: true, Phase: "active"},
			want:   []string{"NO BACKLIGHT", "no root", "backlight path not found"},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			source := newSource()
			source.report = test.report
			view := ansi.Strip(loadedModel(t, source).View())
			for _, want := range test.want {
				if !strings.Contains(view, want) {
					t.Errorf("View() missing %q:\n%s", want, view)
				}
			}
		})
	}
}

func TestRefreshErrorKeepsLastReport(t *testing.T) {
	source := newSource()
	model := loadedModel(t, source)

	source.err = errors.New("connecting: dial unix /run/qwdash/backlight.sock: connect: no such file or directory")
	model, _ = step(t, model, tickMsg(start))

	view := ansi.Strip(model.View())
	if !strings.Contains(view, "error: connecting") {
		t.Errorf("View() does not show the error:\n%s", view)
	}
	if !strings.Contains(view, "SCREEN ON") {
		t.Errorf("View() dropped the last report:\n%s", view)
	}
}

func TestScheduledRefreshRearmsPoll(t *testing.T) {
	model := loadedModel(t, newSource())

	_, cmd := model.Update(refreshMsg{scheduled: true})
	if cmd == nil {
		t.Fatal("scheduled refresh did not schedule the next poll")
	}
	_, cmd = model.Update(refreshMsg{scheduled: false})
	if cmd != nil {
		t.Fatal("on-demand refresh started a second poll loop")
	}
}

func TestKeysTriggerActions(t *testing.T) {
	tests := []struct {
		key    string
		action string
		notice string
	}{
		{"o", "screen-on", "screen on sent"},
		{"f", "screen-off", "screen off sent"},
		{"a", "activity", "activity sent"},
	}
	for _, test := range tests {
		t.Run(test.key, func(t *testing.T) {
			source := newSource()
			model := loadedModel(t, source)

			model, _ = step(t, model, keyRunes(test.key))

			if len(source.actions) != 1 || source.actions[0] != test.action {
				t.Fatalf("actions = %v, want [%s]", source.actions, test.action)
			}
			if view := ansi.Strip(model.View()); !strings.Contains(view, test.notice) {
				t.Errorf("View() missing %q:\n%s", test.notice, view)
			}
		})
	}
}

func TestActionFailureShown(t *testing.T) {
	source := newSource()
	model := loadedModel(t, source)
	source.err = fmt.Errorf("control error on %q: backlight busy", "screen-off")

	model, _ = step(t, model, keyRunes("f"))

	if view := ansi.Strip(model.View()); !strings.Contains(view, "screen off failed") {
		t.Errorf("View() missing failure notice:\n%s", view)
	}
}

func TestQuit(t *testing.T) {
	model := loadedModel(t, newSource())
	for _, message := range []tea.KeyMsg{keyRunes("q"), {Type: tea.KeyCtrlC}} {
		_, cmd := model.Update(message)
		if cmd == nil {
			t.Fatalf("%v: no command", message)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%v: command is not tea.Quit", message)
		}
	}
}

func TestScrollingStopsFollowing(t *testing.T) {
	source := newSource()
	source.lines = nil
	for i := range 40 {
		source.lines = append(source.lines, status.Line{Time: start, Text: fmt.Sprintf("line %d", i)})
	}
	model := loadedModel(t, source)
	if !model.viewport.AtBottom() {
		t.Fatal("viewport does not start at the newest line")
	}

	model, _ = step(t, model, keyRunes("g"))
	if model.follow {
		t.Fatal("still following after jumping to the top")
	}
	source.lines = append(source.lines, status.Line{Time: start, Text: "line 40"})
	model, _ = step(t, model, model.refresh(false)())
	if model.viewport.YOffset != 0 {
		t.Errorf("YOffset = %d, refresh moved a scrolled-back viewport", model.viewport.YOffset)
	}

	model, _ = step(t, model, keyRunes("G"))
	if !model.follow || !model.viewport.AtBottom() {
		t.Error("G did not resume following")
	}
}

func TestFormatLine(t *testing.T) {
	line := status.Line{Time: start.Add(90 * time.Second), Text: "screen on"}
	if got := FormatLine(line); got != "09:01:30  screen on" {
		t.Errorf("FormatLine = %q", got)
	}
}
