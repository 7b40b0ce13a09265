// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package keymap maps key chords to screen actions. Bindings are per
// screen and configurable; a built-in default table ships embedded in the
// binary and a user keymap file overrides individual entries.
package keymap

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed default_keymap.toml
var defaultKeymapTOML []byte

// =============================================================================
// SCREENS AND ACTIONS
// =============================================================================

// Screen identifies a keymap table.
type Screen string

const (
	ScreenChat   Screen = "chat"
	ScreenModels Screen = "models"
	ScreenLogs   Screen = "logs"
	ScreenEditor Screen = "editor"
)

// Action is a screen-independent command bound to a key chord.
type Action string

const (
	ActionQuit   Action = "quit"
	ActionCancel Action = "cancel"
	ActionSubmit Action = "submit"
	ActionHelp   Action = "help"

	ActionScreenChat   Action = "screen_chat"
	ActionScreenModels Action = "screen_models"
	ActionScreenLogs   Action = "screen_logs"
	ActionScreenEditor Action = "screen_editor"

	ActionUp       Action = "up"
	ActionDown     Action = "down"
	ActionPageUp   Action = "page_up"
	ActionPageDown Action = "page_down"
	ActionTop      Action = "top"
	ActionBottom   Action = "bottom"

	ActionRefresh  Action = "refresh"
	ActionPull     Action = "pull"
	ActionDelete   Action = "delete"
	ActionEdit     Action = "edit"
	ActionSave     Action = "save"
	ActionCreate   Action = "create"
	ActionQuantize Action = "quantize"
	ActionClear    Action = "clear"
)

var validActions = map[Action]bool{
	ActionQuit: true, ActionCancel: true, ActionSubmit: true, ActionHelp: true,
	ActionScreenChat: true, ActionScreenModels: true, ActionScreenLogs: true, ActionScreenEditor: true,
	ActionUp: true, ActionDown: true, ActionPageUp: true, ActionPageDown: true,
	ActionTop: true, ActionBottom: true,
	ActionRefresh: true, ActionPull: true, ActionDelete: true, ActionEdit: true,
	ActionSave: true, ActionCreate: true, ActionQuantize: true, ActionClear: true,
}

var validScreens = map[Screen]bool{
	ScreenChat: true, ScreenModels: true, ScreenLogs: true, ScreenEditor: true,
}

// =============================================================================
// KEYMAP
// =============================================================================

// Keymap holds the per-screen chord tables. Built once at startup and read
// thereafter.
type Keymap struct {
	bindings map[Screen]map[string]Action
}

// Default returns the embedded default keymap.
func Default() *Keymap {
	km, err := parse(defaultKeymapTOML)
	if err != nil {
		// The embedded table is validated by tests; a parse failure here
		// is a build defect.
		panic("keymap: embedded default is invalid: " + err.Error())
	}
	return km
}

// Load reads a user keymap file and overlays it on the defaults. A missing
// file returns the defaults unchanged.
func Load(path string) (*Keymap, error) {
	km := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return km, nil
		}
		return nil, fmt.Errorf("failed to read keymap: %w", err)
	}

	user, err := parse(data)
	if err != nil {
		return nil, err
	}
	for screen, table := range user.bindings {
		for chord, action := range table {
			km.bindings[screen][chord] = action
		}
	}
	return km, nil
}

// Lookup resolves a key chord on a screen.
func (k *Keymap) Lookup(screen Screen, chord string) (Action, bool) {
	table, ok := k.bindings[screen]
	if !ok {
		return "", false
	}
	action, ok := table[chord]
	return action, ok
}

// Bindings returns a screen's chord table, for help rendering.
func (k *Keymap) Bindings(screen Screen) map[string]Action {
	out := make(map[string]Action, len(k.bindings[screen]))
	for chord, action := range k.bindings[screen] {
		out[chord] = action
	}
	return out
}

// =============================================================================
// PARSING
// =============================================================================

func parse(data []byte) (*Keymap, error) {
	var raw map[string]map[string]string
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode keymap: %w", err)
	}

	km := &Keymap{bindings: make(map[Screen]map[string]Action)}
	for _, screen := range []Screen{ScreenChat, ScreenModels, ScreenLogs, ScreenEditor} {
		km.bindings[screen] = make(map[string]Action)
	}

	for screenName, table := range raw {
		screen := Screen(screenName)
		if !validScreens[screen] {
			return nil, fmt.Errorf("keymap: unknown screen %q", screenName)
		}
		for chord, actionName := range table {
			action := Action(actionName)
			if !validActions[action] {
				return nil, fmt.Errorf("keymap: unknown action %q for chord %q on screen %q", actionName, chord, screenName)
			}
			km.bindings[screen][chord] = action
		}
	}
	return km, nil
}
