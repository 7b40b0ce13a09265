// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across djinn-tui.
//
// String helpers are display-width aware (go-runewidth) so that table and
// status-bar layout survives CJK and other double-width characters.
// AtomicWriteFile is the crash-safe write used by every component that
// persists state.
package util
