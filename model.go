package main

import (
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"nowcast/internal/animator"
	"nowcast/internal/config"
	"nowcast/internal/conn"
	"nowcast/internal/state"
)

const (
	scrollStep  = 300 * time.Millisecond
	scrollPause = 3 * time.Second
)

// hubLink is the model's view of the connection manager.
type hubLink interface {
	States() <-chan state.PlayerState
	Send(cmd state.Command)
	Status() conn.Status
}

// model is the Bubble Tea model for the display. All animator calls happen
// in Update, on the Bubble Tea goroutine.
type model struct {
	cfg    *config.SafeConfig
	link   hubLink
	anim   *animator.Animator
	logger *slog.Logger
	now    func() time.Time

	frame  animator.Frame
	status conn.Status
	width  int
	height int

	// Text scrolling state
	trackKey     string
	scrollOffset int
	lastScroll   time.Time
	pausedUntil  time.Time

	showHelp bool
}

// Presentation tick
type tickMsg time.Time

// A state decoded by the connection manager
type stateMsg state.PlayerState

// The connection manager stopped delivering states
type linkClosedMsg struct{}

func newModel(cfg *config.SafeConfig, link hubLink, anim *animator.Animator, logger *slog.Logger) model {
	return model{
		cfg:    cfg,
		link:   link,
		anim:   anim,
		logger: logger,
		now:    time.Now,
		status: conn.StatusConnecting,
	}
}

// Schedule next presentation tick
func tickCmd(d time.Duration) tea.Cmd {
	if d <= 0 {
		d = 33 * time.Millisecond
	}
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForState blocks on the manager's channel. Only one is outstanding at a
// time, so states reach Update in arrival order.
func waitForState(ch <-chan state.PlayerState) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return linkClosedMsg{}
		}
		return stateMsg(s)
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(m.cfg.Get().FrameInterval()),
		waitForState(m.link.States()),
		watchConfigCmd(),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "p", " ", "space":
			m.send(state.CommandPlayPause)
		case "n":
			m.send(state.CommandNext)
		case "b":
			m.send(state.CommandPrev)
		case "?":
			m.showHelp = !m.showHelp
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case configReloadMsg:
		// Palette and hub URL are read once at startup.
		m.anim.Configure(animatorOptions(m.cfg.Get())...)
		m.logger.Info("config reloaded")
		return m, watchConfigCmd()

	case stateMsg:
		s := state.PlayerState(msg)
		now := m.now()
		if key := s.Track + "|" + s.Artist; key != m.trackKey {
			m.trackKey = key
			m.scrollOffset = 0
			m.lastScroll = now
			m.pausedUntil = now.Add(scrollPause)
		}
		m.anim.Apply(s, now)
		m.frame = m.anim.Tick(now)
		return m, waitForState(m.link.States())

	case linkClosedMsg:
		return m, nil

	case tickMsg:
		now := time.Time(msg)
		m.frame = m.anim.Tick(now)
		m.status = m.link.Status()
		m.advanceScroll(now)
		return m, tickCmd(m.cfg.Get().FrameInterval())
	}

	return m, nil
}

// send hands cmd to the connection manager. A disconnected manager drops it;
// the connectivity badge is the only feedback.
func (m model) send(cmd state.Command) {
	m.logger.Debug("command requested", "cmd", string(cmd))
	m.link.Send(cmd)
}

func (m *model) advanceScroll(now time.Time) {
	if now.Before(m.pausedUntil) || now.Sub(m.lastScroll) < scrollStep {
		return
	}
	m.lastScroll = now

	loop := scrollLoop(m.textWidth(), m.frame.State.Track, m.frame.State.Artist)
	if loop == 0 {
		m.scrollOffset = 0
		return
	}
	m.scrollOffset++
	if m.scrollOffset >= loop {
		m.scrollOffset = 0
		m.pausedUntil = now.Add(scrollPause)
	}
}
