// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"time"

	"github.com/google/uuid"

	"asesor/internal/catalog"
	"asesor/internal/evaluator"
	"asesor/internal/llm"
	"asesor/internal/profile"
)

// ============================================================================
// CONVERSATION STATE
// ============================================================================

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry in the append-only conversation log.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is everything the engine tracks for one session: the
// profile under construction, the message log, the current state, and the
// latest search outcome.
type Conversation struct {
	SessionID       string                   `json:"session_id"`
	Profile         *profile.Profile         `json:"profile"`
	Messages        []Message                `json:"messages"`
	State           State                    `json:"state"`
	TurnCount       int                      `json:"turn_count"`
	SearchResults   []catalog.Product        `json:"search_results,omitempty"`
	Recommendations []evaluator.ProductScore `json:"recommendations,omitempty"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
}

// NewConversation starts a fresh session in WELCOME.
func NewConversation() *Conversation {
	now := time.Now()
	return &Conversation{
		SessionID: uuid.NewString(),
		Profile:   profile.New(),
		State:     StateWelcome,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Append adds a message to the log. User messages advance the turn
// counter; assistant messages do not.
func (c *Conversation) Append(role, content string) {
	c.Messages = append(c.Messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
	if role == RoleUser {
		c.TurnCount++
	}
	c.UpdatedAt = time.Now()
}

// History returns up to limit of the most recent messages as collaborator
// turns.
func (c *Conversation) History(limit int) []llm.Turn {
	msgs := c.Messages
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	turns := make([]llm.Turn, len(msgs))
	for i, m := range msgs {
		turns[i] = llm.Turn{Role: m.Role, Content: m.Content}
	}
	return turns
}
