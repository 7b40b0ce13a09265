// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the djinn daemon's
// Ollama-compatible API.
package api

import (
	"strings"
	"time"

	"github.com/jeranaias/djinn-tui/internal/modelfile"
)

// =============================================================================
// MESSAGES
// =============================================================================

// Message is a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// =============================================================================
// REQUEST TYPES
// =============================================================================

// ChatRequest is the body for POST /api/chat.
type ChatRequest struct {
	Model    string         `json:"model"`
	Messages []Message      `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

// GenerateRequest is the body for POST /api/generate.
type GenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	System  string         `json:"system,omitempty"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

// PullRequest is the body for POST /api/pull.
type PullRequest struct {
	Model  string `json:"model"`
	Stream bool   `json:"stream"`
}

// ShowRequest is the body for POST /api/show.
type ShowRequest struct {
	Model string `json:"model"`
}

// DeleteRequest is the body for DELETE /api/delete.
type DeleteRequest struct {
	Model string `json:"model"`
}

// CreateRequest is the body for POST /api/create. Optional fields are
// omitted from the payload entirely when absent, never sent as null.
type CreateRequest struct {
	Model      string            `json:"model"`
	From       string            `json:"from"`
	Stream     bool              `json:"stream"`
	Adapters   map[string]string `json:"adapters,omitempty"`
	Template   string            `json:"template,omitempty"`
	License    string            `json:"license,omitempty"`
	System     string            `json:"system,omitempty"`
	Parameters map[string]any    `json:"parameters,omitempty"`
	Messages   []Message         `json:"messages,omitempty"`
	Quantize   string            `json:"quantize,omitempty"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// ModelSummary is one entry from GET /api/tags.
type ModelSummary struct {
	Name       string    `json:"name"`
	Digest     string    `json:"digest"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

// ListResponse is the body of GET /api/tags.
type ListResponse struct {
	Models []ModelSummary `json:"models"`
}

// ModelDetails describes a model's format and quantization.
type ModelDetails struct {
	Format            string `json:"format"`
	Family            string `json:"family"`
	ParameterSize     string `json:"parameter_size"`
	QuantizationLevel string `json:"quantization_level"`
}

// ShowResponse is the body of POST /api/show.
type ShowResponse struct {
	Modelfile  string       `json:"modelfile"`
	Parameters string       `json:"parameters"`
	Template   string       `json:"template"`
	System     string       `json:"system"`
	License    string       `json:"license"`
	Details    ModelDetails `json:"details"`
}

// VersionResponse is the body of GET /api/version.
type VersionResponse struct {
	Version string `json:"version"`
}

// ChatChunk is one decoded NDJSON line from a /api/chat or /api/generate
// stream. Chat delivers tokens in Message.Content, generate in Response.
type ChatChunk struct {
	Model      string    `json:"model"`
	CreatedAt  time.Time `json:"created_at"`
	Message    Message   `json:"message"`
	Response   string    `json:"response"`
	Done       bool      `json:"done"`
	DoneReason string    `json:"done_reason,omitempty"`

	TotalDuration      int64 `json:"total_duration,omitempty"`
	LoadDuration       int64 `json:"load_duration,omitempty"`
	PromptEvalCount    int   `json:"prompt_eval_count,omitempty"`
	PromptEvalDuration int64 `json:"prompt_eval_duration,omitempty"`
	EvalCount          int   `json:"eval_count,omitempty"`
	EvalDuration       int64 `json:"eval_duration,omitempty"`
}

// Token returns the text payload of the chunk for either endpoint shape.
func (c *ChatChunk) Token() string {
	if c.Message.Content != "" {
		return c.Message.Content
	}
	return c.Response
}

// ProgressChunk is one decoded NDJSON line from a /api/pull or /api/create
// stream.
type ProgressChunk struct {
	Status    string `json:"status"`
	Digest    string `json:"digest,omitempty"`
	Total     int64  `json:"total,omitempty"`
	Completed int64  `json:"completed,omitempty"`
}

// Percent returns download progress in [0,100], or -1 when the chunk
// carries no byte counts (indeterminate phase).
func (p *ProgressChunk) Percent() float64 {
	if p.Total <= 0 {
		return -1
	}
	return float64(p.Completed) / float64(p.Total) * 100
}

// =============================================================================
// COMPLETION STATISTICS
// =============================================================================

// CompletionStats are the aggregate timings carried on a done:true line.
type CompletionStats struct {
	TotalDuration      time.Duration
	LoadDuration       time.Duration
	PromptEvalDuration time.Duration
	EvalDuration       time.Duration
	PromptTokens       int
	CompletionTokens   int
}

// TokensPerSecond computes generation throughput, or 0 when unknown.
func (s *CompletionStats) TokensPerSecond() float64 {
	if s.EvalDuration <= 0 {
		return 0
	}
	return float64(s.CompletionTokens) / s.EvalDuration.Seconds()
}

func statsFromChunk(c *ChatChunk) *CompletionStats {
	return &CompletionStats{
		TotalDuration:      time.Duration(c.TotalDuration),
		LoadDuration:       time.Duration(c.LoadDuration),
		PromptEvalDuration: time.Duration(c.PromptEvalDuration),
		EvalDuration:       time.Duration(c.EvalDuration),
		PromptTokens:       c.PromptEvalCount,
		CompletionTokens:   c.EvalCount,
	}
}

// =============================================================================
// STREAM EVENTS
// =============================================================================

// EventKind discriminates StreamEvent variants.
type EventKind int

const (
	EventToken EventKind = iota
	EventProgress
	EventDone
	EventError

	// EventCancelled is synthesized by the session layer when a request is
	// aborted; it never decodes from the wire.
	EventCancelled
)

// StreamEvent is the typed per-line output of a streaming request. A stream
// carries any number of Token/Progress events followed by exactly one
// terminal event.
type StreamEvent struct {
	Kind    EventKind
	Token   string           // EventToken
	Percent float64          // EventProgress; -1 when indeterminate
	Status  string           // EventProgress
	Stats   *CompletionStats // EventDone; nil for pull/create
	Err     error            // EventError
}

// Terminal reports whether the event ends its stream.
func (e StreamEvent) Terminal() bool {
	return e.Kind == EventDone || e.Kind == EventError || e.Kind == EventCancelled
}

// =============================================================================
// CREATE PAYLOAD BUILDER
// =============================================================================

// Quantization levels the daemon accepts for create-time requantization.
var quantizeLevels = map[string]bool{
	"q2_K": true, "q3_K_S": true, "q3_K_M": true, "q3_K_L": true,
	"q4_0": true, "q4_1": true, "q4_K_S": true, "q4_K_M": true,
	"q5_0": true, "q5_1": true, "q5_K_S": true, "q5_K_M": true,
	"q6_K": true, "q8_0": true, "f16": true, "f32": true,
}

// ValidQuantizeLevel reports whether level names a known quantization.
func ValidQuantizeLevel(level string) bool {
	return quantizeLevels[level]
}

// BuildCreateRequest derives the /api/create payload from a parsed
// Modelfile. A repeated parameter key collapses into a list value in input
// order; every other optional field maps from its directive when present.
// An explicit quantize argument overrides a QUANTIZE directive.
func BuildCreateRequest(name string, mf *modelfile.Modelfile, quantize string) (*CreateRequest, error) {
	if strings.TrimSpace(name) == "" {
		return nil, &ClientError{Type: ErrTypeValidation, Message: "model name is required"}
	}
	from := mf.From()
	if from == "" {
		return nil, &ClientError{Type: ErrTypeValidation, Message: "modelfile has no FROM directive"}
	}

	req := &CreateRequest{
		Model:    name,
		From:     from,
		Stream:   true,
		Template: mf.Template(),
		License:  mf.License(),
		System:   mf.System(),
	}

	if params := mf.Parameters(); len(params) > 0 {
		req.Parameters = collapseParameters(params)
	}
	if adapters := mf.Adapters(); len(adapters) > 0 {
		req.Adapters = make(map[string]string, len(adapters))
		for _, d := range adapters {
			req.Adapters[d.Arg] = d.Value
		}
	}
	for _, d := range mf.Messages() {
		req.Messages = append(req.Messages, Message{Role: d.Arg, Content: d.Value})
	}

	if quantize == "" {
		quantize = mf.Quantize()
	}
	if quantize != "" {
		if !ValidQuantizeLevel(quantize) {
			return nil, &ClientError{Type: ErrTypeValidation, Message: "unknown quantization level: " + quantize}
		}
		req.Quantize = quantize
	}

	return req, nil
}

// collapseParameters folds repeated keys into a []string value, preserving
// input order, and keeps single occurrences as plain strings.
func collapseParameters(params []modelfile.Directive) map[string]any {
	out := make(map[string]any, len(params))
	for _, d := range params {
		switch prev := out[d.Arg].(type) {
		case nil:
			out[d.Arg] = d.Value
		case string:
			out[d.Arg] = []string{prev, d.Value}
		case []string:
			out[d.Arg] = append(prev, d.Value)
		}
	}
	return out
}
