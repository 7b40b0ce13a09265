// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model holds the chat domain types shared by the UI and the CLI.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/djinn-tui/internal/api"
)

// =============================================================================
// MESSAGES
// =============================================================================

// Role identifies a message author.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one committed conversation entry.
type Message struct {
	Role    Role
	Content string
	At      time.Time
}

// =============================================================================
// CONVERSATION
// =============================================================================

// Conversation is an ordered, append-only message sequence plus the
// in-progress assistant reply being streamed. Committed messages are never
// mutated; the reply buffer grows token by token and becomes a message on
// FinishReply.
//
// Conversation is not safe for concurrent use; the view controller owns it
// and mutates it only from the event loop.
type Conversation struct {
	id       string
	model    string
	messages []Message
	reply    strings.Builder
	replying bool
}

// NewConversation creates an empty conversation for a model. A non-empty
// system prompt becomes the first message.
func NewConversation(modelName, system string) *Conversation {
	c := &Conversation{id: uuid.NewString(), model: modelName}
	if system != "" {
		c.Append(RoleSystem, system)
	}
	return c
}

// ID returns the conversation's unique identifier.
func (c *Conversation) ID() string {
	return c.id
}

// Model returns the model the conversation targets.
func (c *Conversation) Model() string {
	return c.model
}

// SetModel switches the target model for subsequent requests.
func (c *Conversation) SetModel(name string) {
	c.model = name
}

// Append commits a message to the conversation.
func (c *Conversation) Append(role Role, content string) {
	c.messages = append(c.messages, Message{Role: role, Content: content, At: time.Now()})
}

// Messages returns a snapshot of the committed messages.
func (c *Conversation) Messages() []Message {
	return append([]Message(nil), c.messages...)
}

// Len returns the number of committed messages.
func (c *Conversation) Len() int {
	return len(c.messages)
}

// Clear drops every message and any in-progress reply.
func (c *Conversation) Clear() {
	c.messages = nil
	c.reply.Reset()
	c.replying = false
}

// =============================================================================
// STREAMED REPLY BUFFER
// =============================================================================

// BeginReply opens the streamed assistant reply buffer.
func (c *Conversation) BeginReply() {
	c.reply.Reset()
	c.replying = true
}

// AppendToken grows the in-progress reply.
func (c *Conversation) AppendToken(token string) {
	c.reply.WriteString(token)
}

// Reply returns the in-progress reply text.
func (c *Conversation) Reply() string {
	return c.reply.String()
}

// Replying reports whether a streamed reply is open.
func (c *Conversation) Replying() bool {
	return c.replying
}

// FinishReply commits the streamed reply as an assistant message. An empty
// reply commits nothing.
func (c *Conversation) FinishReply() {
	if c.replying && c.reply.Len() > 0 {
		c.Append(RoleAssistant, c.reply.String())
	}
	c.reply.Reset()
	c.replying = false
}

// DiscardReply drops the streamed reply without committing, as on
// cancellation or failure. Tokens already shown are kept out of history so
// a re-issued request starts clean.
func (c *Conversation) DiscardReply() {
	c.reply.Reset()
	c.replying = false
}

// =============================================================================
// WIRE CONVERSION
// =============================================================================

// APIMessages converts the committed history to the wire shape.
func (c *Conversation) APIMessages() []api.Message {
	out := make([]api.Message, len(c.messages))
	for i, m := range c.messages {
		out[i] = api.Message{Role: string(m.Role), Content: m.Content}
	}
	return out
}
