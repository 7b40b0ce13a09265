// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui is the view controller for djinn-tui.
package ui

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/djinn-tui/internal/api"
	"github.com/jeranaias/djinn-tui/internal/bus"
	"github.com/jeranaias/djinn-tui/internal/config"
	"github.com/jeranaias/djinn-tui/internal/keymap"
	"github.com/jeranaias/djinn-tui/internal/model"
	"github.com/jeranaias/djinn-tui/internal/storage"
	"github.com/jeranaias/djinn-tui/internal/stream"
	"github.com/jeranaias/djinn-tui/internal/ui/components"
	"github.com/jeranaias/djinn-tui/internal/ui/styles"
)

// =============================================================================
// APP MODEL
// =============================================================================

// App is the root Bubble Tea model. It owns the four screens, routes
// keyboard input through the active screen's keymap table, pumps the event
// bus one event per wake-up, and routes stream events by session ID
// regardless of which screen is visible.
//
// IMPORTANT: App must be used as a pointer; screens share state with the
// stream sessions' goroutines through it.
type App struct {
	cfg    *config.Config
	theme  *styles.Theme
	km     *keymap.Keymap
	client *api.Client
	store  *storage.Store
	bus    *bus.Bus
	logger *slog.Logger

	active keymap.Screen

	chat   *chatScreen
	models *modelsScreen
	logs   *logsScreen
	editor *editorScreen

	status  *components.StatusBar
	spin    spinner.Model
	overlay *components.ProgressOverlay
	opSess  *stream.Session

	showHelp bool
	width    int
	height   int
}

// NewApp wires the view controller together.
func NewApp(cfg *config.Config, km *keymap.Keymap, client *api.Client, store *storage.Store, b *bus.Bus, logger *slog.Logger) *App {
	theme := styles.New(cfg.UI.Theme)

	a := &App{
		cfg:    cfg,
		theme:  theme,
		km:     km,
		client: client,
		store:  store,
		bus:    b,
		logger: logger,
		active: keymap.ScreenChat,
	}

	a.status = components.NewStatusBar(theme)
	a.status.Host = cfg.Daemon.Host
	a.status.Model = cfg.Daemon.DefaultModel

	a.spin = spinner.New()
	a.spin.Spinner = spinner.Dot
	a.spin.Style = theme.Spinner

	publish := func(ev stream.Event) {
		b.Publish(bus.StreamMsg{Event: ev})
	}
	setStatus := func(text string, isError bool) {
		a.status.SetMessage(text, isError)
	}

	conv := model.NewConversation(cfg.Daemon.DefaultModel, "")
	md := components.NewMarkdownRenderer(cfg.UI.Markdown)

	a.chat = newChatScreen(theme, client, conv, md, publish, setStatus)
	a.models = newModelsScreen(theme, client, store, a.startPull)
	a.logs = newLogsScreen(theme, cfg.UI.LogBufferLines)
	a.editor = newEditorScreen(theme, store, cfg.UI.SyntaxTheme, a.startCreate)

	return a
}

// Init starts the bus pump, the daemon health check, and the first model
// list fetch.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		waitForEvent(a.bus),
		checkDaemonCmd(a.client),
		listModelsCmd(a.client),
		a.spin.Tick,
		textinput.Blink,
	)
}

// =============================================================================
// UPDATE
// =============================================================================

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.setSize(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a, a.handleKey(msg)

	case busEventMsg:
		return a, tea.Batch(append(a.handleBusEvent(msg.msg), waitForEvent(a.bus))...)

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		if a.chat.busy() || (a.opSess != nil && a.opSess.Busy()) {
			a.status.Spinner = a.spin.View()
		} else {
			a.status.Spinner = ""
		}
		return a, cmd

	case daemonStatusMsg:
		if msg.running {
			if msg.version != "" {
				a.status.SetMessage("daemon v"+msg.version, false)
			} else {
				a.status.SetMessage("daemon reachable", false)
			}
		} else {
			a.status.SetMessage(friendlyError(msg.err), true)
		}
		return a, nil

	case modelsLoadedMsg:
		if msg.err != nil {
			a.models.loading = false
			a.status.SetMessage(friendlyError(msg.err), true)
			return a, nil
		}
		a.models.setModels(msg.models)
		// No configured default: fall back to the first installed model.
		if a.chat.conv.Model() == "" && len(msg.models) > 0 {
			a.chat.conv.SetModel(msg.models[0].Name)
			a.status.Model = msg.models[0].Name
		}
		return a, nil

	case modelShownMsg:
		if msg.err != nil {
			a.status.SetMessage(friendlyError(msg.err), true)
			return a, nil
		}
		a.editor.seed(msg.name, msg.modelfile)
		a.active = keymap.ScreenEditor
		if msg.fromCache {
			a.status.SetMessage("daemon unreachable: loaded cached modelfile for "+msg.name, false)
		} else {
			a.status.SetMessage("editing "+msg.name, false)
		}
		return a, nil

	case modelDeletedMsg:
		if msg.err != nil {
			a.status.SetMessage(friendlyError(msg.err), true)
			return a, nil
		}
		a.logger.Info("model deleted", "model", msg.name)
		a.status.SetMessage("deleted "+msg.name, false)
		return a, listModelsCmd(a.client)

	case modelfileSavedMsg:
		if msg.err != nil {
			a.status.SetMessage("save failed: "+msg.err.Error(), true)
			return a, nil
		}
		a.status.SetMessage("saved modelfile for "+msg.name, false)
		return a, nil

	case statusNoteMsg:
		a.status.SetMessage(msg.text, msg.isError)
		return a, nil
	}

	return a, nil
}

func (a *App) setSize(width, height int) {
	a.width = width
	a.height = height
	a.status.SetWidth(width)

	body := height - 2 // header and status bar
	if body < 1 {
		body = 1
	}
	a.chat.setSize(width, body)
	a.models.setSize(width, body)
	a.logs.setSize(width, body)
	a.editor.setSize(width, body)
}

// =============================================================================
// KEYBOARD ROUTING
// =============================================================================

// handleKey resolves a key chord against the active screen's keymap
// table. Unbound chords fall through to the screen's focused input widget;
// while an inline prompt is open, everything but ctrl+c goes to it.
func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	chord := msg.String()

	if a.showHelp {
		if chord == "ctrl+c" {
			return a.quit()
		}
		a.showHelp = false
		return nil
	}

	// An in-flight lifecycle operation claims esc for cancellation.
	if a.overlay != nil && a.overlay.Active() && chord == "esc" {
		a.opSess.Cancel()
		return nil
	}

	if a.screenCapturesInput() {
		if chord == "ctrl+c" {
			return a.quit()
		}
		return a.screenHandleKey(msg)
	}

	if action, ok := a.km.Lookup(a.active, chord); ok {
		return a.dispatchAction(action)
	}
	return a.screenHandleKey(msg)
}

func (a *App) dispatchAction(action keymap.Action) tea.Cmd {
	switch action {
	case keymap.ActionQuit:
		return a.quit()
	case keymap.ActionHelp:
		a.showHelp = true
		return nil
	case keymap.ActionScreenChat:
		a.active = keymap.ScreenChat
		return nil
	case keymap.ActionScreenModels:
		a.active = keymap.ScreenModels
		return nil
	case keymap.ActionScreenLogs:
		a.active = keymap.ScreenLogs
		return nil
	case keymap.ActionScreenEditor:
		a.active = keymap.ScreenEditor
		return nil
	}
	return a.screenHandleAction(action)
}

func (a *App) quit() tea.Cmd {
	a.chat.session.Cancel()
	if a.opSess != nil {
		a.opSess.Cancel()
	}
	a.bus.Close()
	a.logger.Info("shutting down")
	return tea.Quit
}

func (a *App) screenCapturesInput() bool {
	switch a.active {
	case keymap.ScreenModels:
		return a.models.capturesInput()
	case keymap.ScreenEditor:
		return a.editor.capturesInput()
	}
	return false
}

func (a *App) screenHandleAction(action keymap.Action) tea.Cmd {
	switch a.active {
	case keymap.ScreenChat:
		return a.chat.handleAction(action)
	case keymap.ScreenModels:
		return a.models.handleAction(action)
	case keymap.ScreenLogs:
		return a.logs.handleAction(action)
	case keymap.ScreenEditor:
		return a.editor.handleAction(action)
	}
	return nil
}

func (a *App) screenHandleKey(msg tea.KeyMsg) tea.Cmd {
	switch a.active {
	case keymap.ScreenChat:
		return a.chat.handleKey(msg)
	case keymap.ScreenModels:
		return a.models.handleKey(msg)
	case keymap.ScreenEditor:
		return a.editor.handleKey(msg)
	}
	return nil
}

// =============================================================================
// BUS EVENT ROUTING
// =============================================================================

// handleBusEvent routes one dequeued bus event. Stream events go to the
// owning session's consumer whether or not its screen is visible, so a
// pull keeps progressing while the user chats.
func (a *App) handleBusEvent(m bus.Msg) []tea.Cmd {
	var cmds []tea.Cmd

	switch m := m.(type) {
	case bus.StreamMsg:
		ev := m.Event
		switch {
		case a.chat.owns(ev.SessionID):
			a.chat.applyStream(ev.Event, a.bus.PublishTick)
		case a.opSess != nil && ev.SessionID == a.opSess.ID():
			a.overlay.Apply(ev.Event)
			if !a.overlay.Active() {
				cmds = append(cmds, a.finishOp(ev.Event)...)
			}
		}

	case bus.LogLineMsg:
		a.logs.appendLine(m.Line)

	case bus.TickMsg:
		// Redraw throttle: stale viewports rebuild here, not per token.
		a.chat.syncViewport()
		a.logs.syncViewport()
	}

	return cmds
}

// finishOp clears a terminal lifecycle operation and surfaces its outcome
// in the status pane. The controller stays interactive throughout.
func (a *App) finishOp(ev api.StreamEvent) []tea.Cmd {
	label := a.opSess.Label()
	var cmds []tea.Cmd

	switch ev.Kind {
	case api.EventDone:
		a.logger.Info("operation completed", "op", label)
		a.status.SetMessage(label+" complete", false)
		cmds = append(cmds, listModelsCmd(a.client))
	case api.EventError:
		a.logger.Error("operation failed", "op", label, "error", ev.Err)
		a.status.SetMessage(label+" failed: "+friendlyError(ev.Err), true)
	case api.EventCancelled:
		a.logger.Info("operation cancelled", "op", label)
		a.status.SetMessage(label+" cancelled", false)
	}

	a.overlay = nil
	a.opSess = nil
	return cmds
}

// =============================================================================
// LIFECYCLE OPERATIONS
// =============================================================================

// startPull begins a model download as a stream session with a progress
// overlay.
func (a *App) startPull(name string) tea.Cmd {
	return a.startOp("pull "+name, func(ctx context.Context, emit func(api.StreamEvent)) error {
		return a.client.Pull(ctx, name, emit)
	})
}

// startCreate begins a model create or quantize from a validated request.
func (a *App) startCreate(req *api.CreateRequest, label string) tea.Cmd {
	return a.startOp(label, func(ctx context.Context, emit func(api.StreamEvent)) error {
		return a.client.Create(ctx, req, emit)
	})
}

// startOp runs one lifecycle operation at a time; a second request is
// rejected while one is in flight.
func (a *App) startOp(label string, run stream.RunFunc) tea.Cmd {
	if a.opSess != nil && a.opSess.Busy() {
		return statusCmd("another operation is in flight: "+a.opSess.Label(), true)
	}

	s := stream.NewSession(label)
	publish := func(ev stream.Event) {
		a.bus.Publish(bus.StreamMsg{Event: ev})
	}
	if err := s.Start(context.Background(), run, publish); err != nil {
		return statusCmd(friendlyError(err), true)
	}

	a.opSess = s
	a.overlay = components.NewProgressOverlay(a.theme, s.ID(), label)
	a.logger.Info("operation started", "op", label)
	return statusCmd(label+" started", false)
}

// =============================================================================
// VIEW
// =============================================================================

func (a *App) View() string {
	if a.width == 0 {
		return "starting..."
	}

	header := a.theme.Header.Render("djinn") +
		"  " + a.theme.HintDesc.Render("f2 models  f3 logs  f4 editor  f1 help")

	var body string
	switch {
	case a.showHelp:
		body = a.renderHelp()
	case a.overlay != nil:
		body = lipgloss.Place(a.width, a.height-2, lipgloss.Center, lipgloss.Center, a.overlay.View(a.width/2))
	default:
		body = a.screenView()
	}

	a.status.Screen = string(a.active)
	return header + "\n" + body + "\n" + a.status.View()
}

func (a *App) screenView() string {
	switch a.active {
	case keymap.ScreenChat:
		return a.chat.view()
	case keymap.ScreenModels:
		return a.models.view()
	case keymap.ScreenLogs:
		return a.logs.view()
	case keymap.ScreenEditor:
		return a.editor.view()
	}
	return ""
}

// renderHelp lists the active screen's key bindings.
func (a *App) renderHelp() string {
	bindings := a.km.Bindings(a.active)

	chords := make([]string, 0, len(bindings))
	for chord := range bindings {
		chords = append(chords, chord)
	}
	sort.Strings(chords)

	var b strings.Builder
	b.WriteString(a.theme.HeaderTitle.Render("key bindings: " + string(a.active)))
	b.WriteString("\n\n")
	for _, chord := range chords {
		b.WriteString("  ")
		b.WriteString(a.theme.HintKey.Render(chord))
		b.WriteString(strings.Repeat(" ", max(1, 14-len(chord))))
		b.WriteString(a.theme.HintDesc.Render(string(bindings[chord])))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(a.theme.Muted.Render("press any key to close"))
	return b.String()
}
