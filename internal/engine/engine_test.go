// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"asesor/internal/catalog"
	"asesor/internal/evaluator"
	"asesor/internal/llm"
	"asesor/internal/profile"
)

// scriptedCollaborator returns canned responses in order, repeating the
// last one when the script runs out.
type scriptedCollaborator struct {
	responses []*llm.Response
	calls     int
	err       error
}

func (s *scriptedCollaborator) Process(ctx context.Context, message string, prof *profile.Profile, history []llm.Turn) (*llm.Response, error) {
	if s.err != nil {
		return nil, s.err
	}
	idx := s.calls
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	s.calls++
	return s.responses[idx], nil
}

func (s *scriptedCollaborator) Name() string { return "scripted" }

func askResponse(reply string, extracted map[string]any) *llm.Response {
	return &llm.Response{Reply: reply, Extracted: extracted}
}

func TestWelcomeTransitionsToGathering(t *testing.T) {
	collab := &scriptedCollaborator{responses: []*llm.Response{
		askResponse("¿Cuál es tu presupuesto?", map[string]any{"use_case": "gaming"}),
	}}
	e := New(collab, Config{})

	res, err := e.ProcessUserMessage(context.Background(), "busco algo para juegos")
	if err != nil {
		t.Fatalf("ProcessUserMessage: %v", err)
	}
	if res.State != "GATHERING_INFO" {
		t.Errorf("State = %q, want GATHERING_INFO", res.State)
	}
	if e.CurrentState() != "GATHERING_INFO" {
		t.Errorf("CurrentState = %q, want GATHERING_INFO", e.CurrentState())
	}
	if e.Profile().UseCase != "gaming" {
		t.Errorf("extraction not merged: UseCase = %q", e.Profile().UseCase)
	}
}

func TestMessageLogAndTurnCount(t *testing.T) {
	collab := &scriptedCollaborator{responses: []*llm.Response{askResponse("pregunta", nil)}}
	e := New(collab, Config{})

	ctx := context.Background()
	e.ProcessUserMessage(ctx, "uno")
	e.ProcessUserMessage(ctx, "dos")

	conv := e.Conversation()
	if conv.TurnCount != 2 {
		t.Errorf("TurnCount = %d, want 2", conv.TurnCount)
	}
	// Each exchange logs the user message and the assistant reply.
	if len(conv.Messages) != 4 {
		t.Errorf("len(Messages) = %d, want 4", len(conv.Messages))
	}
	if conv.Messages[0].Role != RoleUser || conv.Messages[1].Role != RoleAssistant {
		t.Errorf("unexpected roles: %s, %s", conv.Messages[0].Role, conv.Messages[1].Role)
	}
}

func TestCollaboratorReadyTriggersConfirmation(t *testing.T) {
	collab := &scriptedCollaborator{responses: []*llm.Response{
		{Reply: "listo", ReadyToSearch: true, Extracted: map[string]any{"use_case": "study", "budget_max": 2000000}},
	}}
	e := New(collab, Config{})

	res, err := e.ProcessUserMessage(context.Background(), "para estudiar, 2 millones")
	if err != nil {
		t.Fatalf("ProcessUserMessage: %v", err)
	}
	if res.State != "CONFIRMING" {
		t.Errorf("State = %q, want CONFIRMING", res.State)
	}
	if !res.ReadyToSearch {
		t.Error("confirmation turn should flag readiness")
	}
	if !strings.Contains(res.Reply, "study") {
		t.Errorf("confirmation should summarize the profile: %q", res.Reply)
	}
	// Armed: the next message goes straight to searching.
	if e.CurrentState() != "SEARCHING" {
		t.Errorf("CurrentState = %q, want SEARCHING", e.CurrentState())
	}
}

func TestProfileConfidenceTriggersConfirmation(t *testing.T) {
	// The collaborator never says ready, but the merged profile crosses
	// the threshold on its own.
	collab := &scriptedCollaborator{responses: []*llm.Response{
		askResponse("ok", map[string]any{
			"use_case":   "study",
			"budget_max": 2500000,
			"priorities": []string{"battery", "price"},
			"min_ram_gb": 8, "max_weight_kg": 1.5,
			"location": "universidad", "frequency": "diario",
		}),
	}}
	e := New(collab, Config{})

	res, err := e.ProcessUserMessage(context.Background(), "te cuento todo de una vez")
	if err != nil {
		t.Fatalf("ProcessUserMessage: %v", err)
	}
	if res.State != "CONFIRMING" {
		t.Errorf("State = %q, want CONFIRMING (confidence %v)", res.State, res.Confidence)
	}
}

func TestConfirmingThenSearchingHandoff(t *testing.T) {
	collab := &scriptedCollaborator{responses: []*llm.Response{
		{Reply: "listo", ReadyToSearch: true, Extracted: map[string]any{"use_case": "office", "budget_max": 2000000}},
	}}
	e := New(collab, Config{})

	ctx := context.Background()
	if _, err := e.ProcessUserMessage(ctx, "oficina, 2 millones"); err != nil {
		t.Fatal(err)
	}

	res, err := e.ProcessUserMessage(ctx, "dale")
	if err != nil {
		t.Fatalf("ProcessUserMessage: %v", err)
	}
	if res.State != "SEARCHING" {
		t.Errorf("State = %q, want SEARCHING", res.State)
	}
	if e.CurrentState() != "RECOMMENDING" {
		t.Errorf("CurrentState = %q, want RECOMMENDING", e.CurrentState())
	}
}

func TestMaxTurnsForcesSearch(t *testing.T) {
	collab := &scriptedCollaborator{responses: []*llm.Response{askResponse("¿algo más?", nil)}}
	e := New(collab, Config{MaxTurns: 3})

	ctx := context.Background()
	e.ProcessUserMessage(ctx, "uno")
	e.ProcessUserMessage(ctx, "dos")

	res, err := e.ProcessUserMessage(ctx, "tres")
	if err != nil {
		t.Fatal(err)
	}
	if res.State != "SEARCHING" {
		t.Errorf("State = %q, want SEARCHING after max turns", res.State)
	}
}

func TestSetSearchResultsWithHits(t *testing.T) {
	e := New(&scriptedCollaborator{responses: []*llm.Response{askResponse("", nil)}}, Config{})

	res := e.SetSearchResults([]catalog.Product{
		{ObjectID: "a", Name: "A"},
		{ObjectID: "b", Name: "B"},
	})
	if res.State != "RECOMMENDING" {
		t.Errorf("State = %q, want RECOMMENDING", res.State)
	}
	if !strings.Contains(res.Reply, "2 opciones") {
		t.Errorf("Reply should announce the count: %q", res.Reply)
	}
	if e.CurrentState() != "FOLLOWUP" {
		t.Errorf("CurrentState = %q, want FOLLOWUP", e.CurrentState())
	}
}

func TestSetSearchResultsEmpty(t *testing.T) {
	e := New(&scriptedCollaborator{responses: []*llm.Response{askResponse("", nil)}}, Config{})

	res := e.SetSearchResults(nil)
	if !strings.Contains(res.Reply, "no encontré") {
		t.Errorf("Reply should apologize: %q", res.Reply)
	}
	if e.CurrentState() != "FOLLOWUP" {
		t.Errorf("CurrentState = %q, want FOLLOWUP", e.CurrentState())
	}
}

func TestSetRecommendationsKeepsState(t *testing.T) {
	e := New(&scriptedCollaborator{responses: []*llm.Response{askResponse("", nil)}}, Config{})
	e.SetSearchResults([]catalog.Product{{ObjectID: "a"}})

	before := e.CurrentState()
	res := e.SetRecommendations([]evaluator.ProductScore{{MatchPercentage: 82}})
	if e.CurrentState() != before {
		t.Errorf("state changed from %q to %q", before, e.CurrentState())
	}
	if len(res.Recommendations) != 1 {
		t.Errorf("Recommendations = %v", res.Recommendations)
	}
}

func followupEngine(t *testing.T) *Engine {
	t.Helper()
	e := New(&scriptedCollaborator{responses: []*llm.Response{
		askResponse("respuesta libre", nil),
	}}, Config{})
	e.SetSearchResults([]catalog.Product{{ObjectID: "a", Name: "A"}})
	if e.CurrentState() != "FOLLOWUP" {
		t.Fatalf("setup failed, state %q", e.CurrentState())
	}
	return e
}

func TestFollowupEndings(t *testing.T) {
	for _, msg := range []string{"muchas gracias", "adiós", "eso es todo", "perfecto, me sirve"} {
		t.Run(msg, func(t *testing.T) {
			e := followupEngine(t)
			res, err := e.ProcessUserMessage(context.Background(), msg)
			if err != nil {
				t.Fatal(err)
			}
			if !res.Ended {
				t.Error("result should be marked ended")
			}
			if e.CurrentState() != "ENDED" {
				t.Errorf("CurrentState = %q, want ENDED", e.CurrentState())
			}
		})
	}
}

func TestFollowupRefinement(t *testing.T) {
	tests := []struct {
		message string
		focus   string
	}{
		{"¿tienes algo más barato?", "price"},
		{"quisiera algo mas ligero", "weight"},
		{"muéstrame otra alternativa", "general"},
	}

	for _, tt := range tests {
		t.Run(tt.focus, func(t *testing.T) {
			e := followupEngine(t)
			res, err := e.ProcessUserMessage(context.Background(), tt.message)
			if err != nil {
				t.Fatal(err)
			}
			if res.RefinementFocus != tt.focus {
				t.Errorf("RefinementFocus = %q, want %q", res.RefinementFocus, tt.focus)
			}
			// The result reports the reopened state, not the state that
			// routed the message.
			if res.State != "GATHERING_INFO" {
				t.Errorf("State = %q, want GATHERING_INFO", res.State)
			}
			if e.CurrentState() != "GATHERING_INFO" {
				t.Errorf("CurrentState = %q, want GATHERING_INFO", e.CurrentState())
			}
		})
	}
}

func TestFollowupFallsThroughToCollaborator(t *testing.T) {
	e := followupEngine(t)

	res, err := e.ProcessUserMessage(context.Background(), "¿cuál tiene mejor pantalla?")
	if err != nil {
		t.Fatal(err)
	}
	if res.Reply != "respuesta libre" {
		t.Errorf("Reply = %q, want collaborator passthrough", res.Reply)
	}
	if e.CurrentState() != "FOLLOWUP" {
		t.Errorf("CurrentState = %q, want FOLLOWUP", e.CurrentState())
	}
}

func TestEndedIsTerminal(t *testing.T) {
	e := followupEngine(t)
	ctx := context.Background()
	e.ProcessUserMessage(ctx, "gracias")

	res, err := e.ProcessUserMessage(ctx, "¿sigues ahí?")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Ended || e.CurrentState() != "ENDED" {
		t.Error("ENDED must be terminal")
	}
}

func TestRefinementLoopReachesSearchAgain(t *testing.T) {
	collab := &scriptedCollaborator{responses: []*llm.Response{
		{Reply: "listo", ReadyToSearch: true, Extracted: map[string]any{"use_case": "study", "budget_max": 1500000}},
	}}
	e := New(collab, Config{})
	e.SetSearchResults([]catalog.Product{{ObjectID: "a"}})

	ctx := context.Background()
	// Refinement reopens gathering.
	if _, err := e.ProcessUserMessage(ctx, "algo más barato por favor"); err != nil {
		t.Fatal(err)
	}
	// The collaborator declares ready again, re-arming the search.
	res, err := e.ProcessUserMessage(ctx, "máximo millón y medio")
	if err != nil {
		t.Fatal(err)
	}
	if res.State != "CONFIRMING" {
		t.Errorf("State = %q, want CONFIRMING on the refinement loop", res.State)
	}
}

func TestUnknownStateIsFatal(t *testing.T) {
	e := New(&scriptedCollaborator{responses: []*llm.Response{askResponse("", nil)}}, Config{})
	e.conv.State = State(99)

	_, err := e.ProcessUserMessage(context.Background(), "hola")
	if !errors.Is(err, ErrUnknownState) {
		t.Errorf("err = %v, want ErrUnknownState", err)
	}
}

func TestCollaboratorErrorPropagates(t *testing.T) {
	e := New(&scriptedCollaborator{err: errors.New("api down")}, Config{})

	if _, err := e.ProcessUserMessage(context.Background(), "hola"); err == nil {
		t.Error("collaborator errors should surface")
	}
}

func TestReset(t *testing.T) {
	e := New(&scriptedCollaborator{responses: []*llm.Response{askResponse("ok", map[string]any{"use_case": "gaming"})}}, Config{})
	ctx := context.Background()
	e.ProcessUserMessage(ctx, "para juegos")

	oldSession := e.Conversation().SessionID
	e.Reset()

	if e.CurrentState() != "WELCOME" {
		t.Errorf("CurrentState = %q, want WELCOME", e.CurrentState())
	}
	if e.Profile().UseCase != "" {
		t.Error("profile should be empty after reset")
	}
	if e.Conversation().SessionID == oldSession {
		t.Error("reset should mint a new session id")
	}
}
