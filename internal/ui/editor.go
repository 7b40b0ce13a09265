// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui is the view controller for djinn-tui.
package ui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/djinn-tui/internal/api"
	"github.com/jeranaias/djinn-tui/internal/keymap"
	"github.com/jeranaias/djinn-tui/internal/modelfile"
	"github.com/jeranaias/djinn-tui/internal/storage"
	"github.com/jeranaias/djinn-tui/internal/ui/components"
	"github.com/jeranaias/djinn-tui/internal/ui/styles"
)

// =============================================================================
// MODELFILE EDITOR SCREEN
// =============================================================================

type editorPrompt int

const (
	promptNone editorPrompt = iota
	promptSaveName
	promptCreateName
	promptQuantizeLevel
)

// previewPaneLines caps the highlighted canonical-form pane under the
// buffer.
const previewPaneLines = 6

// editorScreen edits a Modelfile: parse-on-save with the error position
// surfaced without losing the buffer, save to the data-dir cache, create a
// model from the buffer, and quantize.
type editorScreen struct {
	theme *styles.Theme
	store *storage.Store

	modelName string
	buffer    textarea.Model

	// Last parse failure; cleared on the next successful parse.
	parseErr *modelfile.ParseError

	// Highlighted render of the last successfully parsed buffer.
	preview     string
	syntaxTheme string

	prompt     textinput.Model
	promptKind editorPrompt

	width  int
	height int

	startCreate func(req *api.CreateRequest, label string) tea.Cmd
}

func newEditorScreen(theme *styles.Theme, store *storage.Store, syntaxTheme string, startCreate func(*api.CreateRequest, string) tea.Cmd) *editorScreen {
	ta := textarea.New()
	ta.Placeholder = "FROM mistral:7b\nPARAMETER temperature 0.7\n"
	ta.ShowLineNumbers = true
	ta.Focus()

	ti := textinput.New()
	ti.CharLimit = 128

	return &editorScreen{
		theme:       theme,
		store:       store,
		buffer:      ta,
		prompt:      ti,
		syntaxTheme: syntaxTheme,
		startCreate: startCreate,
	}
}

func (e *editorScreen) setSize(width, height int) {
	e.width = width
	e.height = height
	e.buffer.SetWidth(width - 2)
	e.prompt.Width = width - 12
	e.layout()
}

// layout sizes the buffer, leaving room for the highlighted preview pane
// when one exists.
func (e *editorScreen) layout() {
	taHeight := e.height - 6 // title, error line, prompt, hints
	if e.preview != "" {
		taHeight -= previewPaneLines + 1
	}
	if taHeight < 3 {
		taHeight = 3
	}
	e.buffer.SetHeight(taHeight)
}

// seed loads a model's Modelfile into the buffer.
func (e *editorScreen) seed(name, text string) {
	e.modelName = name
	e.buffer.SetValue(text)
	e.parseErr = nil
	e.preview = ""
	e.layout()
}

func (e *editorScreen) capturesInput() bool {
	return e.promptKind != promptNone
}

// =============================================================================
// PARSING
// =============================================================================

// parseBuffer parses the edit buffer, recording the error position on
// failure. The buffer itself is never touched.
func (e *editorScreen) parseBuffer() (*modelfile.Modelfile, bool) {
	mf, err := modelfile.Parse(e.buffer.Value())
	if err != nil {
		var perr *modelfile.ParseError
		if errors.As(err, &perr) {
			e.parseErr = perr
		} else {
			e.parseErr = &modelfile.ParseError{Line: 1, Column: 1, Expected: err.Error()}
		}
		return nil, false
	}
	e.parseErr = nil
	e.preview = components.HighlightModelfile(mf.Render(), e.syntaxTheme)
	e.layout()
	return mf, true
}

// =============================================================================
// ACTIONS AND KEYS
// =============================================================================

func (e *editorScreen) handleAction(action keymap.Action) tea.Cmd {
	switch action {
	case keymap.ActionSave:
		mf, ok := e.parseBuffer()
		if !ok {
			return statusCmd(e.parseErr.Error(), true)
		}
		if e.modelName == "" {
			return e.openPrompt(promptSaveName, "save as> ")
		}
		return saveModelfileCmd(e.store, e.modelName, mf.Render())

	case keymap.ActionCreate:
		if _, ok := e.parseBuffer(); !ok {
			return statusCmd(e.parseErr.Error(), true)
		}
		return e.openPrompt(promptCreateName, "create as> ")

	case keymap.ActionQuantize:
		if e.modelName == "" {
			return statusCmd("load a model before quantizing", true)
		}
		if _, ok := e.parseBuffer(); !ok {
			return statusCmd(e.parseErr.Error(), true)
		}
		return e.openPrompt(promptQuantizeLevel, "quantize level> ")
	}
	return nil
}

func (e *editorScreen) openPrompt(kind editorPrompt, label string) tea.Cmd {
	e.promptKind = kind
	e.prompt.Prompt = label
	e.prompt.Reset()
	if kind == promptCreateName {
		e.prompt.SetValue(e.modelName)
	}
	e.buffer.Blur()
	return e.prompt.Focus()
}

func (e *editorScreen) closePrompt() {
	e.promptKind = promptNone
	e.prompt.Blur()
	e.buffer.Focus()
}

func (e *editorScreen) handleKey(msg tea.KeyMsg) tea.Cmd {
	if e.promptKind != promptNone {
		switch msg.String() {
		case "enter":
			return e.submitPrompt()
		case "esc":
			e.closePrompt()
			return nil
		}
		var cmd tea.Cmd
		e.prompt, cmd = e.prompt.Update(msg)
		return cmd
	}

	var cmd tea.Cmd
	e.buffer, cmd = e.buffer.Update(msg)
	return cmd
}

func (e *editorScreen) submitPrompt() tea.Cmd {
	value := strings.TrimSpace(e.prompt.Value())
	kind := e.promptKind
	e.closePrompt()
	if value == "" {
		return nil
	}

	mf, ok := e.parseBuffer()
	if !ok {
		return statusCmd(e.parseErr.Error(), true)
	}

	switch kind {
	case promptSaveName:
		e.modelName = value
		return saveModelfileCmd(e.store, value, mf.Render())

	case promptCreateName:
		req, err := api.BuildCreateRequest(value, mf, "")
		if err != nil {
			return statusCmd(err.Error(), true)
		}
		return e.startCreate(req, "create "+value)

	case promptQuantizeLevel:
		// Validation happens before any network call; an unknown level
		// never leaves the client.
		name := e.modelName + "-" + value
		req, err := api.BuildCreateRequest(name, mf, value)
		if err != nil {
			return statusCmd(err.Error(), true)
		}
		return e.startCreate(req, "quantize "+e.modelName+" to "+value)
	}
	return nil
}

// =============================================================================
// RENDERING
// =============================================================================

func (e *editorScreen) view() string {
	var b strings.Builder

	title := e.modelName
	if title == "" {
		title = "new modelfile"
	}
	b.WriteString(e.theme.HeaderTitle.Render(title))
	b.WriteString("\n")
	b.WriteString(e.buffer.View())
	b.WriteString("\n")

	if e.parseErr != nil {
		b.WriteString(e.theme.EditorError.Render(e.parseErr.Error()))
		b.WriteString("\n")
	} else if e.preview != "" {
		b.WriteString(e.theme.Muted.Render("canonical form"))
		b.WriteString("\n")
		lines := strings.Split(e.preview, "\n")
		if len(lines) > previewPaneLines {
			lines = lines[:previewPaneLines]
		}
		b.WriteString(strings.Join(lines, "\n"))
		b.WriteString("\n")
	}

	if e.promptKind != promptNone {
		b.WriteString(e.prompt.View())
		b.WriteString("\n")
	}

	b.WriteString(e.theme.HintDesc.Render("ctrl+s save  ctrl+n create  ctrl+q quantize  esc back"))
	return b.String()
}
