// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package modelfile

import (
	"fmt"
	"strings"
)

// =============================================================================
// PARSE ERRORS
// =============================================================================

// ParseError reports a malformed Modelfile. Line and Column are 1-based and
// point at the offending token; Expected describes what the parser wanted.
type ParseError struct {
	Line     int
	Column   int
	Expected string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("modelfile:%d:%d: expected %s", e.Line, e.Column, e.Expected)
}

// =============================================================================
// PARSER
// =============================================================================

// Parse turns Modelfile text into an ordered directive sequence.
//
// The grammar is line-oriented: each directive begins at column 0 with a
// case-insensitive keyword followed by a single-line value or a
// triple-quoted block. The scanner runs in two modes: line mode, where blank
// lines and #-comments are skipped and keywords recognized, and verbatim
// block mode, entered at an opening `"""`, where every byte up to the first
// closing `"""` is kept as-is (comments and keywords included). The upstream
// format defines no escape for an embedded `"""`, so the first closing quote
// always terminates the block.
func Parse(text string) (*Modelfile, error) {
	p := &parser{lines: splitLines(text)}
	var directives []Directive

	for p.next() {
		line := p.line
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		keyword, rest := splitToken(line)
		cmd, ok := lookupCommand(keyword)
		if !ok {
			return nil, &ParseError{Line: p.lineNo, Column: 1, Expected: "directive keyword"}
		}

		d := Directive{Cmd: cmd}
		switch cmd {
		case CmdParameter, CmdAdapter, CmdMessage:
			arg, value := splitToken(rest)
			if arg == "" {
				return nil, &ParseError{Line: p.lineNo, Column: col(line, rest), Expected: argName(cmd)}
			}
			if cmd == CmdMessage && !validRole(arg) {
				return nil, &ParseError{Line: p.lineNo, Column: col(line, rest), Expected: "message role (system, user or assistant)"}
			}
			d.Arg = arg
			rest = value
			fallthrough
		default:
			value, err := p.scanValue(rest, line)
			if err != nil {
				return nil, err
			}
			if value == "" && cmd != CmdMessage {
				return nil, &ParseError{Line: p.lineNo, Column: col(line, rest), Expected: string(cmd) + " value"}
			}
			d.Value = value
		}

		directives = append(directives, d)
	}

	return &Modelfile{Directives: directives}, nil
}

type parser struct {
	lines  []string
	lineNo int // 1-based, line most recently returned by next
	line   string
}

func (p *parser) next() bool {
	if p.lineNo >= len(p.lines) {
		return false
	}
	p.line = p.lines[p.lineNo]
	p.lineNo++
	return true
}

// scanValue reads a directive value starting at rest (the remainder of the
// keyword line). A value beginning with `"""` switches to verbatim block
// mode, scanning forward across lines for the terminating quote.
func (p *parser) scanValue(rest, fullLine string) (string, error) {
	rest = strings.TrimSpace(rest)
	if !strings.HasPrefix(rest, `"""`) {
		return rest, nil
	}

	openLine := p.lineNo
	body := rest[3:]

	// Closing quote on the opening line.
	if i := strings.Index(body, `"""`); i >= 0 {
		if tail := strings.TrimSpace(body[i+3:]); tail != "" {
			return "", &ParseError{Line: openLine, Column: col(fullLine, tail), Expected: "end of line after closing quote"}
		}
		return body[:i], nil
	}

	var sb strings.Builder
	sb.WriteString(body)
	for p.next() {
		sb.WriteByte('\n')
		if i := strings.Index(p.line, `"""`); i >= 0 {
			if tail := strings.TrimSpace(p.line[i+3:]); tail != "" {
				return "", &ParseError{Line: p.lineNo, Column: i + 4, Expected: "end of line after closing quote"}
			}
			sb.WriteString(p.line[:i])
			return sb.String(), nil
		}
		sb.WriteString(p.line)
	}

	return "", &ParseError{Line: openLine, Column: 1, Expected: `closing """`}
}

// =============================================================================
// SCANNER HELPERS
// =============================================================================

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

// splitToken splits off the first whitespace-delimited token and returns it
// with the untrimmed remainder.
func splitToken(s string) (token, rest string) {
	s = strings.TrimLeft(s, " \t")
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i+1:]
}

// col returns the 1-based column where rest begins within line, falling back
// to the end of the line when rest is empty.
func col(line, rest string) int {
	if rest == "" {
		return len(line) + 1
	}
	if i := strings.Index(line, rest); i >= 0 {
		return i + 1
	}
	return 1
}

func lookupCommand(keyword string) (Command, bool) {
	switch Command(strings.ToLower(keyword)) {
	case CmdFrom, CmdParameter, CmdTemplate, CmdSystem, CmdAdapter, CmdLicense, CmdMessage, CmdQuantize:
		return Command(strings.ToLower(keyword)), true
	}
	return "", false
}

func argName(cmd Command) string {
	switch cmd {
	case CmdParameter:
		return "parameter key"
	case CmdAdapter:
		return "adapter name"
	case CmdMessage:
		return "message role"
	case CmdFrom:
		return "model reference"
	default:
		return string(cmd)
	}
}

func validRole(role string) bool {
	switch role {
	case "system", "user", "assistant":
		return true
	}
	return false
}
