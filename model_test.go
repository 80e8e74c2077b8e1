package main

import (
	"bytes"
	"image/color"
	"image/png"
	"math"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"nowcast/internal/animator"
	"nowcast/internal/conn"
	"nowcast/internal/state"
)

func pngCover(t *testing.T, c color.Color) []byte {
	t.Helper()
	var buf bytes.Buffer
	assertNoError(t, png.Encode(&buf, generateTestImage(32, 32, c)))
	return buf.Bytes()
}

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(model), cmd
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// TestInit tests that Init schedules work
func TestInit(t *testing.T) {
	m := newTestModel(newFakeLink(), time.Now())
	if m.Init() == nil {
		t.Fatal("Init returned nil command")
	}
}

// TestStateMsgUpdatesFrame tests that a received state is shown at once
func TestStateMsgUpdatesFrame(t *testing.T) {
	link := newFakeLink()
	m := newTestModel(link, time.Now())

	m, cmd := update(t, m, stateMsg(state.PlayerState{Track: "Song", Artist: "Band", IsPlaying: true, Position: 12, Duration: 200}))
	assertEqual(t, m.frame.HasState, true, "has state")
	assertEqual(t, m.frame.State.Track, "Song", "track")
	assertEqual(t, m.frame.State.Position, 12, "position")
	if cmd == nil {
		t.Fatal("expected a command waiting for the next state")
	}

	link.states <- state.PlayerState{Track: "Next"}
	msg := cmd()
	s, ok := msg.(stateMsg)
	if !ok {
		t.Fatalf("got %T, want stateMsg", msg)
	}
	assertEqual(t, s.Track, "Next", "next state")
}

// TestWaitForStateClosed tests the message sent when the manager stops
func TestWaitForStateClosed(t *testing.T) {
	ch := make(chan state.PlayerState)
	close(ch)
	if _, ok := waitForState(ch)().(linkClosedMsg); !ok {
		t.Fatal("expected linkClosedMsg")
	}

	m := newTestModel(newFakeLink(), time.Now())
	if _, cmd := update(t, m, linkClosedMsg{}); cmd != nil {
		t.Error("closed link should not schedule more waits")
	}
}

// TestKeysSendCommands tests the transport key bindings
func TestKeysSendCommands(t *testing.T) {
	link := newFakeLink()
	m := newTestModel(link, time.Now())

	for _, k := range []string{"p", " ", "n", "b", "x"} {
		m, _ = update(t, m, key(k))
	}

	want := []state.Command{state.CommandPlayPause, state.CommandPlayPause, state.CommandNext, state.CommandPrev}
	got := link.commands()
	assertEqual(t, len(got), len(want), "command count")
	for i := range want {
		assertEqual(t, got[i], want[i], "command")
	}
}

// TestKeysWhileDisconnected tests that dropped commands are not an error
func TestKeysWhileDisconnected(t *testing.T) {
	link := newFakeLink()
	link.status = conn.StatusDisconnected
	m := newTestModel(link, time.Now())

	_, cmd := update(t, m, key("p"))
	if cmd != nil {
		t.Error("dropped command should not produce a follow-up")
	}
	assertEqual(t, len(link.commands()), 0, "nothing recorded")
}

// TestQuit tests the quit binding
func TestQuit(t *testing.T) {
	m := newTestModel(newFakeLink(), time.Now())
	_, cmd := update(t, m, key("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

// TestTickRefreshesStatus tests that the badge follows the manager
func TestTickRefreshesStatus(t *testing.T) {
	link := newFakeLink()
	m := newTestModel(link, time.Now())
	assertEqual(t, m.status, conn.StatusConnecting, "initial status")

	link.status = conn.StatusDisconnected
	m, cmd := update(t, m, tickMsg(time.Now()))
	assertEqual(t, m.status, conn.StatusDisconnected, "status after tick")
	if cmd == nil {
		t.Error("tick should schedule the next tick")
	}
}

// TestCoverFadeAcrossTicks tests that ticks advance the cover fade
func TestCoverFadeAcrossTicks(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m := newTestModel(newFakeLink(), start)

	m, _ = update(t, m, stateMsg(state.PlayerState{Track: "Song", Cover: pngCover(t, color.RGBA{200, 40, 40, 255})}))
	assertEqual(t, m.frame.CoverOpacity, 0.0, "opacity at arrival")
	assertEqual(t, m.anim.CoverPhase(), animator.CoverShowing, "cover phase")

	m, _ = update(t, m, tickMsg(start.Add(animator.DefaultCoverFade/2)))
	if math.Abs(m.frame.CoverOpacity-0.5) > 1e-9 {
		t.Errorf("opacity at half fade = %v; want 0.5", m.frame.CoverOpacity)
	}

	m, _ = update(t, m, tickMsg(start.Add(animator.DefaultCoverFade)))
	assertEqual(t, m.frame.CoverOpacity, 1.0, "opacity after fade")
	assertEqual(t, m.frame.HasGradient, true, "gradient after first cover")
}

// TestScrollAdvancesAfterPause tests title scrolling timing
func TestScrollAdvancesAfterPause(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m := newTestModel(newFakeLink(), start)
	long := strings.Repeat("Very long title ", 5)

	m, _ = update(t, m, stateMsg(state.PlayerState{Track: long}))
	m, _ = update(t, m, tickMsg(start.Add(time.Second)))
	assertEqual(t, m.scrollOffset, 0, "still paused")

	m, _ = update(t, m, tickMsg(start.Add(scrollPause)))
	assertEqual(t, m.scrollOffset, 1, "first step")

	m, _ = update(t, m, tickMsg(start.Add(scrollPause+scrollStep/2)))
	assertEqual(t, m.scrollOffset, 1, "step not due")

	m, _ = update(t, m, tickMsg(start.Add(scrollPause+scrollStep)))
	assertEqual(t, m.scrollOffset, 2, "second step")

	// Same track again keeps the scroll position.
	m, _ = update(t, m, stateMsg(state.PlayerState{Track: long, IsPlaying: true}))
	assertEqual(t, m.scrollOffset, 2, "same track")

	m, _ = update(t, m, stateMsg(state.PlayerState{Track: "Other"}))
	assertEqual(t, m.scrollOffset, 0, "new track resets scroll")
}

// TestShortTitleDoesNotScroll tests that fitting text stays put
func TestShortTitleDoesNotScroll(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m := newTestModel(newFakeLink(), start)

	m, _ = update(t, m, stateMsg(state.PlayerState{Track: "Short", Artist: "Band"}))
	m, _ = update(t, m, tickMsg(start.Add(10*time.Second)))
	assertEqual(t, m.scrollOffset, 0, "offset")
}

// TestWindowSizeAndHelp tests the remaining UI messages
func TestWindowSizeAndHelp(t *testing.T) {
	m := newTestModel(newFakeLink(), time.Now())
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	assertEqual(t, m.width, 120, "width")
	assertEqual(t, m.height, 40, "height")

	m, _ = update(t, m, key("?"))
	assertEqual(t, m.showHelp, true, "help shown")
	m, _ = update(t, m, key("?"))
	assertEqual(t, m.showHelp, false, "help hidden")
}

// TestConfigReloadAppliesAnimation tests that reloaded fade durations reach the animator
func TestConfigReloadAppliesAnimation(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m := newTestModel(newFakeLink(), start)

	cfg := m.cfg.Get()
	cfg.Animation.CoverFadeMs = 0
	m.cfg.Set(cfg)

	m, cmd := update(t, m, configReloadMsg{})
	if cmd == nil {
		t.Fatal("reload should keep watching for changes")
	}

	m, _ = update(t, m, stateMsg(state.PlayerState{Track: "Song", Cover: pngCover(t, color.RGBA{1, 2, 3, 255})}))
	assertEqual(t, m.frame.CoverOpacity, 1.0, "zero fade shows the cover at once")
}
