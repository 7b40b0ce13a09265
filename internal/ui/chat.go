// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui is the view controller for djinn-tui.
package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/djinn-tui/internal/api"
	"github.com/jeranaias/djinn-tui/internal/keymap"
	"github.com/jeranaias/djinn-tui/internal/model"
	"github.com/jeranaias/djinn-tui/internal/stream"
	"github.com/jeranaias/djinn-tui/internal/ui/components"
	"github.com/jeranaias/djinn-tui/internal/ui/styles"
)

// =============================================================================
// CHAT SCREEN
// =============================================================================

// chatScreen is the conversation view: a scrollback viewport over the
// committed messages plus the streaming reply, and a single-line prompt.
type chatScreen struct {
	theme  *styles.Theme
	client *api.Client

	conv    *model.Conversation
	session *stream.Session
	sink    stream.Sink

	viewport viewport.Model
	input    textinput.Model
	md       *components.MarkdownRenderer

	// dirty marks the scrollback stale; the viewport content is rebuilt
	// on the next redraw tick rather than per token.
	dirty bool
	ready bool

	width  int
	height int

	setStatus func(text string, isError bool)
}

func newChatScreen(theme *styles.Theme, client *api.Client, conv *model.Conversation, md *components.MarkdownRenderer, sink stream.Sink, setStatus func(string, bool)) *chatScreen {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a message..."
	ti.CharLimit = 4096
	ti.Focus()

	return &chatScreen{
		theme:     theme,
		client:    client,
		conv:      conv,
		session:   stream.NewSession("chat"),
		sink:      sink,
		input:     ti,
		md:        md,
		setStatus: setStatus,
	}
}

func (c *chatScreen) setSize(width, height int) {
	c.width = width
	c.height = height

	vpHeight := height - 2 // prompt line and a separator
	if vpHeight < 1 {
		vpHeight = 1
	}
	if !c.ready {
		c.viewport = viewport.New(width, vpHeight)
		c.ready = true
	} else {
		c.viewport.Width = width
		c.viewport.Height = vpHeight
	}
	c.input.Width = width - 4
	c.md.SetWidth(width - 2)
	c.dirty = true
	c.syncViewport()
}

// owns reports whether a stream event belongs to this screen's session.
func (c *chatScreen) owns(sessionID string) bool {
	return sessionID == c.session.ID()
}

func (c *chatScreen) busy() bool {
	return c.session.Busy()
}

// =============================================================================
// ACTIONS AND KEYS
// =============================================================================

func (c *chatScreen) handleAction(action keymap.Action) tea.Cmd {
	switch action {
	case keymap.ActionSubmit:
		return c.submit()
	case keymap.ActionCancel:
		if c.session.Busy() {
			c.session.Cancel()
		}
		return nil
	case keymap.ActionClear:
		c.conv.Clear()
		c.dirty = true
		c.syncViewport()
		return statusCmd("conversation cleared", false)
	case keymap.ActionPageUp:
		c.viewport.ViewUp()
	case keymap.ActionPageDown:
		c.viewport.ViewDown()
	}
	return nil
}

func (c *chatScreen) handleKey(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	return cmd
}

// submit sends the prompt as a chat request on the screen's session.
func (c *chatScreen) submit() tea.Cmd {
	text := strings.TrimSpace(c.input.Value())
	if text == "" {
		return nil
	}
	if c.conv.Model() == "" {
		return statusCmd("no model selected: set daemon.default_model or pull one", true)
	}

	// A submit while a reply streams is rejected here, before the
	// conversation is touched. The in-flight request and its partial
	// reply stay exactly as they are; the typed text stays in the input.
	if c.session.Busy() {
		return statusCmd("a reply is already streaming", true)
	}

	c.conv.Append(model.RoleUser, text)
	c.conv.BeginReply()
	c.dirty = true
	c.syncViewport()

	req := &api.ChatRequest{
		Model:    c.conv.Model(),
		Messages: c.conv.APIMessages(),
	}

	err := c.session.Start(context.Background(), func(ctx context.Context, emit func(api.StreamEvent)) error {
		return c.client.ChatStream(ctx, req, emit)
	}, c.sink)
	if err != nil {
		c.conv.DiscardReply()
		return statusCmd(friendlyError(err), true)
	}

	c.input.Reset()
	return statusCmd("sending...", false)
}

// =============================================================================
// STREAM EVENTS
// =============================================================================

// applyStream consumes one event from the chat session. Tokens only mark
// the scrollback dirty; the expensive viewport rebuild waits for a
// coalesced redraw tick.
func (c *chatScreen) applyStream(ev api.StreamEvent, requestTick func()) {
	switch ev.Kind {
	case api.EventToken:
		if !c.conv.Replying() {
			c.conv.BeginReply()
		}
		c.conv.AppendToken(ev.Token)
		c.dirty = true
		requestTick()

	case api.EventDone:
		c.conv.FinishReply()
		c.dirty = true
		c.syncViewport()
		if ev.Stats != nil && ev.Stats.TokensPerSecond() > 0 {
			c.setStatus(fmt.Sprintf("done (%.1f tok/s)", ev.Stats.TokensPerSecond()), false)
		} else {
			c.setStatus("done", false)
		}

	case api.EventError:
		c.conv.DiscardReply()
		c.dirty = true
		c.syncViewport()
		c.setStatus(friendlyError(ev.Err), true)

	case api.EventCancelled:
		c.conv.DiscardReply()
		c.dirty = true
		c.syncViewport()
		c.setStatus("cancelled", false)
	}
}

// syncViewport rebuilds the scrollback if it is stale.
func (c *chatScreen) syncViewport() {
	if !c.dirty || !c.ready {
		return
	}
	c.viewport.SetContent(c.renderMessages())
	c.viewport.GotoBottom()
	c.dirty = false
}

// =============================================================================
// RENDERING
// =============================================================================

func (c *chatScreen) renderMessages() string {
	var b strings.Builder

	for _, m := range c.conv.Messages() {
		b.WriteString(c.renderMessage(m.Role, m.Content, true))
		b.WriteString("\n\n")
	}

	if c.conv.Replying() {
		// The partial reply renders raw; markdown waits for the full text.
		b.WriteString(c.renderMessage(model.RoleAssistant, c.conv.Reply()+" ...", false))
		b.WriteString("\n")
	}

	return b.String()
}

func (c *chatScreen) renderMessage(role model.Role, content string, markdown bool) string {
	var label string
	switch role {
	case model.RoleUser:
		label = c.theme.UserLabel.Render("you")
	case model.RoleAssistant:
		label = c.theme.AssistantLabel.Render(c.conv.Model())
		if markdown {
			content = c.md.Render(content)
		}
	case model.RoleSystem:
		label = c.theme.SystemLabel.Render("system")
	}
	return label + "\n" + c.theme.MessageBody.Render(content)
}

func (c *chatScreen) view() string {
	if !c.ready {
		return ""
	}
	sep := c.theme.Muted.Render(strings.Repeat("-", c.width))
	prompt := c.input.View()
	return c.viewport.View() + "\n" + sep + "\n" + prompt
}

// =============================================================================
// ERROR PRESENTATION
// =============================================================================

// friendlyError turns a client error into a status line a person can act
// on.
func friendlyError(err error) string {
	switch {
	case err == nil:
		return ""
	case api.IsTransport(err):
		return "daemon unreachable: is it running?"
	case api.IsTimeout(err):
		return "request timed out"
	case api.IsNotFound(err):
		return err.Error()
	case api.IsProtocol(err):
		return "daemon sent a malformed response: " + err.Error()
	default:
		return err.Error()
	}
}
