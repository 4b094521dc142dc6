// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"asesor/internal/catalog"
	"asesor/internal/evaluator"
	"asesor/internal/llm"
	"asesor/internal/profile"
)

// ============================================================================
// Errors
// ============================================================================

// ErrUnknownState means the conversation reached a state outside the
// closed set. This is a configuration or programming error, never user
// input, so it is fatal rather than recovered.
var ErrUnknownState = errors.New("engine: unknown conversation state")

// ============================================================================
// Configuration
// ============================================================================

// Config tunes the engine.
type Config struct {
	// MaxTurns is the escape valve: after this many user messages the
	// engine forces a search with whatever it has.
	MaxTurns int

	// ReadyThreshold is the profile confidence that ends gathering.
	ReadyThreshold float64

	// HistoryWindow is how many recent messages go to the collaborator.
	HistoryWindow int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		MaxTurns:       15,
		ReadyThreshold: 0.8,
		HistoryWindow:  10,
	}
}

// ============================================================================
// Canned responses
// ============================================================================

const (
	welcomeMessage = "¡Hola! 👋 Soy tu asesor personal de tecnología. " +
		"Estoy aquí para ayudarte a encontrar el portátil perfecto para ti. " +
		"Cuéntame, ¿para qué lo vas a usar principalmente?"

	searchingMessage = "🔍 ¡Perfecto! Estoy buscando las mejores opciones para ti, dame un momento..."

	noResultsMessage = "Lo siento, no encontré portátiles que cumplan todo lo que buscas. 😔 " +
		"Podemos ajustar el presupuesto o alguna condición e intentarlo de nuevo."

	closingMessage = "¡Gracias por tu visita! Espero haberte ayudado a encontrar tu portátil ideal. " +
		"Vuelve cuando quieras. 👋"

	refinePriceMessage = "Entiendo, busquemos opciones más económicas. ¿Cuál sería tu presupuesto ideal?"

	refineWeightMessage = "Claro, busquemos algo más liviano. ¿Cuánto debería pesar como máximo?"

	refineGenericMessage = "Con gusto busco otras opciones. ¿Qué te gustaría cambiar de las que te mostré?"
)

// FOLLOWUP routing keywords, checked in order: first the ending family,
// then the refinement family. Accented and bare spellings both appear
// because users type either.
var endingKeywords = []string{
	"gracias", "adios", "adiós", "hasta luego", "no necesito", "eso es todo", "perfecto",
}

var refinementKeywords = []string{
	"más barato", "mas barato", "más ligero", "mas ligero",
	"otra opcion", "otra opción", "alternativa", "diferente", "cambiar",
}

// ============================================================================
// Engine
// ============================================================================

// TurnResult is what one engine interaction produces. State names the
// state that handled the turn, which may differ from where the
// conversation sits afterwards.
type TurnResult struct {
	Reply           string                   `json:"reply"`
	State           string                   `json:"state"`
	Profile         *profile.Profile         `json:"profile"`
	Confidence      float64                  `json:"confidence"`
	ReadyToSearch   bool                     `json:"ready_to_search"`
	Products        []catalog.Product        `json:"products,omitempty"`
	Recommendations []evaluator.ProductScore `json:"recommendations,omitempty"`
	RefinementFocus string                   `json:"refinement_focus,omitempty"`
	Ended           bool                     `json:"ended"`
}

// Engine runs one conversation. Not safe for concurrent use; callers own
// the session-to-goroutine mapping.
type Engine struct {
	collab llm.Collaborator
	cfg    Config
	conv   *Conversation
}

// New creates an engine with a fresh conversation. Zero config fields
// fall back to defaults.
func New(collab llm.Collaborator, cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = def.MaxTurns
	}
	if cfg.ReadyThreshold <= 0 {
		cfg.ReadyThreshold = def.ReadyThreshold
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = def.HistoryWindow
	}
	return &Engine{
		collab: collab,
		cfg:    cfg,
		conv:   NewConversation(),
	}
}

// Resume attaches the engine to a previously stored conversation.
func (e *Engine) Resume(conv *Conversation) {
	if conv != nil {
		e.conv = conv
	}
}

// WelcomeMessage is the fixed greeting shown before the first user
// message.
func (e *Engine) WelcomeMessage() string {
	return welcomeMessage
}

// Reset discards the conversation and starts over with a new session.
func (e *Engine) Reset() {
	e.conv = NewConversation()
}

// CurrentState names the state the conversation sits in.
func (e *Engine) CurrentState() string {
	return e.conv.State.String()
}

// Profile exposes the requirements profile built so far.
func (e *Engine) Profile() *profile.Profile {
	return e.conv.Profile
}

// ProfileSummary renders the profile for confirmation or display.
func (e *Engine) ProfileSummary() string {
	return e.conv.Profile.Summary()
}

// Conversation exposes the full session for persistence.
func (e *Engine) Conversation() *Conversation {
	return e.conv
}

// ============================================================================
// Dispatch
// ============================================================================

// ProcessUserMessage appends the message to the log and dispatches it to
// the handler for the current state. The reply, if any, is appended as an
// assistant message.
func (e *Engine) ProcessUserMessage(ctx context.Context, text string) (*TurnResult, error) {
	e.conv.Append(RoleUser, text)

	res, err := e.dispatch(ctx, text)
	if err != nil {
		return nil, err
	}

	if res.Reply != "" {
		e.conv.Append(RoleAssistant, res.Reply)
	}
	return res, nil
}

func (e *Engine) dispatch(ctx context.Context, text string) (*TurnResult, error) {
	switch e.conv.State {
	case StateWelcome:
		return e.handleWelcome(ctx, text)
	case StateGathering:
		return e.handleGathering(ctx, text)
	case StateConfirming:
		return e.handleConfirming(), nil
	case StateSearching:
		return e.handleSearching(), nil
	case StateRecommending:
		return e.renderRecommendations(), nil
	case StateFollowup:
		return e.handleFollowup(ctx, text)
	case StateEnded:
		return e.handleEnded(), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownState, int(e.conv.State))
	}
}

// handleWelcome moves straight into gathering; the first user message
// already carries requirements more often than not.
func (e *Engine) handleWelcome(ctx context.Context, text string) (*TurnResult, error) {
	e.conv.State = StateGathering
	return e.handleGathering(ctx, text)
}

func (e *Engine) handleGathering(ctx context.Context, text string) (*TurnResult, error) {
	resp, err := e.collab.Process(ctx, text, e.conv.Profile, e.conv.History(e.cfg.HistoryWindow))
	if err != nil {
		return nil, fmt.Errorf("engine: collaborator: %w", err)
	}

	e.conv.Profile.Merge(resp.Extracted)

	if resp.ReadyToSearch || e.conv.Profile.ReadyForSearch(e.cfg.ReadyThreshold) {
		e.conv.State = StateConfirming
		return e.handleConfirming(), nil
	}

	// Escape valve: stop asking and search with what there is.
	if e.conv.TurnCount >= e.cfg.MaxTurns {
		e.conv.State = StateSearching
		return e.handleSearching(), nil
	}

	return e.result(StateGathering, resp.Reply), nil
}

// handleConfirming plays the summary back and arms the search. Whatever
// the user sends next proceeds; there is no yes/no parsing.
func (e *Engine) handleConfirming() *TurnResult {
	reply := e.conv.Profile.Summary() +
		"\n\n¿Vamos con esto? Envía cualquier mensaje y empiezo a buscar."

	res := e.result(StateConfirming, reply)
	res.ReadyToSearch = true
	e.conv.State = StateSearching
	return res
}

// handleSearching emits the handoff marker. The caller sees
// State == "SEARCHING", runs the search collaborator, and injects the
// outcome via SetSearchResults.
func (e *Engine) handleSearching() *TurnResult {
	res := e.result(StateSearching, searchingMessage)
	res.ReadyToSearch = true
	e.conv.State = StateRecommending
	return res
}

// SetSearchResults injects the search outcome and renders the
// recommendation turn. Injection replies are not appended to the message
// log; only real exchanges are.
func (e *Engine) SetSearchResults(products []catalog.Product) *TurnResult {
	e.conv.SearchResults = products
	e.conv.State = StateRecommending
	return e.renderRecommendations()
}

// SetRecommendations stores the ranked list without changing state.
func (e *Engine) SetRecommendations(recs []evaluator.ProductScore) *TurnResult {
	e.conv.Recommendations = recs
	res := e.result(e.conv.State, "")
	res.Recommendations = recs
	return res
}

func (e *Engine) renderRecommendations() *TurnResult {
	var reply string
	if len(e.conv.SearchResults) == 0 {
		reply = noResultsMessage
	} else {
		reply = "✨ ¡Encontré " + strconv.Itoa(len(e.conv.SearchResults)) +
			" opciones que se ajustan a lo que buscas!"
	}

	res := e.result(StateRecommending, reply)
	res.Products = e.conv.SearchResults
	res.Recommendations = e.conv.Recommendations
	e.conv.State = StateFollowup
	return res
}

// handleFollowup routes by keyword family: ending phrases close the
// conversation, refinement phrases loop back to gathering, and anything
// else goes to the collaborator.
func (e *Engine) handleFollowup(ctx context.Context, text string) (*TurnResult, error) {
	lower := strings.ToLower(text)

	for _, kw := range endingKeywords {
		if strings.Contains(lower, kw) {
			e.conv.State = StateEnded
			return e.handleEnded(), nil
		}
	}

	for _, kw := range refinementKeywords {
		if strings.Contains(lower, kw) {
			return e.startRefinement(lower), nil
		}
	}

	resp, err := e.collab.Process(ctx, text, e.conv.Profile, e.conv.History(e.cfg.HistoryWindow))
	if err != nil {
		return nil, fmt.Errorf("engine: collaborator: %w", err)
	}
	e.conv.Profile.Merge(resp.Extracted)
	return e.result(StateFollowup, resp.Reply), nil
}

// startRefinement reopens gathering with a focus-specific prompt. The
// result reports GATHERING_INFO so callers branching on state see where
// the conversation now is.
func (e *Engine) startRefinement(lower string) *TurnResult {
	e.conv.State = StateGathering

	focus := "general"
	reply := refineGenericMessage
	switch {
	case strings.Contains(lower, "barato") || strings.Contains(lower, "precio"):
		focus = "price"
		reply = refinePriceMessage
	case strings.Contains(lower, "ligero") || strings.Contains(lower, "peso"):
		focus = "weight"
		reply = refineWeightMessage
	}

	res := e.result(StateGathering, reply)
	res.RefinementFocus = focus
	return res
}

func (e *Engine) handleEnded() *TurnResult {
	res := e.result(StateEnded, closingMessage)
	res.Ended = true
	return res
}

// result builds a TurnResult with the profile snapshot filled in.
func (e *Engine) result(handled State, reply string) *TurnResult {
	return &TurnResult{
		Reply:         reply,
		State:         handled.String(),
		Profile:       e.conv.Profile.Clone(),
		Confidence:    e.conv.Profile.Confidence(),
		ReadyToSearch: e.conv.Profile.ReadyForSearch(e.cfg.ReadyThreshold),
		Ended:         e.conv.State.Terminal(),
	}
}
