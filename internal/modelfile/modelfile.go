// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package modelfile parses and renders the daemon's model-definition format.
package modelfile

import "strings"

// =============================================================================
// DIRECTIVE TYPES
// =============================================================================

// Command identifies a directive keyword.
type Command string

const (
	CmdFrom      Command = "from"
	CmdParameter Command = "parameter"
	CmdTemplate  Command = "template"
	CmdSystem    Command = "system"
	CmdAdapter   Command = "adapter"
	CmdLicense   Command = "license"
	CmdMessage   Command = "message"
	CmdQuantize  Command = "quantize"
)

// Directive is one typed statement in a Modelfile.
//
// Arg carries the leading token for two-token directives: the parameter key
// for PARAMETER, the adapter name for ADAPTER, and the message role for
// MESSAGE. It is empty for every other command.
type Directive struct {
	Cmd   Command
	Arg   string
	Value string
}

// Modelfile is an ordered sequence of directives. Order is semantically
// meaningful and survives a parse/render round-trip. A Modelfile is built
// once, by Parse or by appending directives, and read thereafter.
type Modelfile struct {
	Directives []Directive
}

// =============================================================================
// ACCESSORS
// =============================================================================

// From returns the value of the first FROM directive, or "".
func (f *Modelfile) From() string {
	for _, d := range f.Directives {
		if d.Cmd == CmdFrom {
			return d.Value
		}
	}
	return ""
}

// System returns the value of the first SYSTEM directive, or "".
func (f *Modelfile) System() string {
	for _, d := range f.Directives {
		if d.Cmd == CmdSystem {
			return d.Value
		}
	}
	return ""
}

// Template returns the value of the first TEMPLATE directive, or "".
func (f *Modelfile) Template() string {
	for _, d := range f.Directives {
		if d.Cmd == CmdTemplate {
			return d.Value
		}
	}
	return ""
}

// License returns the value of the first LICENSE directive, or "".
func (f *Modelfile) License() string {
	for _, d := range f.Directives {
		if d.Cmd == CmdLicense {
			return d.Value
		}
	}
	return ""
}

// Quantize returns the value of the first QUANTIZE directive, or "".
func (f *Modelfile) Quantize() string {
	for _, d := range f.Directives {
		if d.Cmd == CmdQuantize {
			return d.Value
		}
	}
	return ""
}

// Parameters returns every PARAMETER directive in input order. Repeated keys
// are all present; collapsing repeated keys is a payload-building decision,
// not the parser's.
func (f *Modelfile) Parameters() []Directive {
	var out []Directive
	for _, d := range f.Directives {
		if d.Cmd == CmdParameter {
			out = append(out, d)
		}
	}
	return out
}

// Adapters returns every ADAPTER directive in input order.
func (f *Modelfile) Adapters() []Directive {
	var out []Directive
	for _, d := range f.Directives {
		if d.Cmd == CmdAdapter {
			out = append(out, d)
		}
	}
	return out
}

// Messages returns every MESSAGE directive in input order.
func (f *Modelfile) Messages() []Directive {
	var out []Directive
	for _, d := range f.Directives {
		if d.Cmd == CmdMessage {
			out = append(out, d)
		}
	}
	return out
}

// =============================================================================
// RENDER
// =============================================================================

// Render serializes the Modelfile back to text. Values that need it are
// wrapped in triple quotes; everything else renders on one line, including
// values made of quote characters, which would merge with the block
// delimiters. Render(Parse(t)) parses back to the same directive sequence
// as t.
//
// The format defines no escape for an embedded `"""`, so a value that both
// needs a block and cannot survive one (it contains `"""`, or it spans
// lines and ends with a quote) has no faithful rendering. Parse never
// produces such a value; only a programmatically built directive can hit
// this, and it renders inline on a best-effort basis.
func (f *Modelfile) Render() string {
	var sb strings.Builder
	for _, d := range f.Directives {
		sb.WriteString(strings.ToUpper(string(d.Cmd)))
		sb.WriteByte(' ')
		if d.Arg != "" {
			sb.WriteString(d.Arg)
			sb.WriteByte(' ')
		}
		if needsBlock(d.Value) && blockSafe(d.Value) {
			sb.WriteString(`"""`)
			sb.WriteString(d.Value)
			sb.WriteString(`"""`)
		} else {
			sb.WriteString(d.Value)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func needsBlock(v string) bool {
	return strings.ContainsRune(v, '\n') || strings.HasPrefix(v, `"`) || strings.HasPrefix(v, "#")
}

// blockSafe reports whether a triple-quoted block around v parses back to
// exactly v. A value containing `"""` closes the block early; a trailing
// quote merges with the closing delimiter.
func blockSafe(v string) bool {
	return !strings.Contains(v, `"""`) && !strings.HasSuffix(v, `"`)
}
