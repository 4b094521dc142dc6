// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package advisor

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"asesor/internal/catalog"
	"asesor/internal/engine"
	"asesor/internal/llm"
	"asesor/internal/search"
)

// fullFlowTurns walks a conversation to the search handoff using the
// rule-based collaborator and the demo search backend.
func newTestAdvisor(t *testing.T, store Store) *Advisor {
	t.Helper()
	eng := engine.New(llm.NewRules(), engine.Config{})
	demo := search.NewDemo(nil)
	return New(eng, demo, store, Config{})
}

type memoryStore struct {
	saves int
	last  *engine.Conversation
}

func (m *memoryStore) Save(conv *engine.Conversation) error {
	m.saves++
	m.last = conv
	return nil
}

func TestFullAdvisoryFlow(t *testing.T) {
	a := newTestAdvisor(t, nil)
	ctx := context.Background()

	// Turn 1: use case, budget, one priority.
	res, err := a.Process(ctx, "Busco algo para estudiar, tengo 2 millones y que sea liviana")
	require.NoError(t, err)
	require.Equal(t, "GATHERING_INFO", res.State)

	// Turn 2: constraints plus usage context push confidence past 0.8,
	// which lands on the confirmation summary.
	res, err = a.Process(ctx, "Con 8gb de ram está bien, la usaría en casa todos los días")
	require.NoError(t, err)
	require.Equal(t, "CONFIRMING", res.State)
	require.True(t, res.ReadyToSearch)

	// Turn 3: anything proceeds. The advisor completes the handoff in
	// the same turn: search, inject, rank.
	res, err = a.Process(ctx, "sí, dale")
	require.NoError(t, err)
	require.Equal(t, "RECOMMENDING", res.State)
	require.NotEmpty(t, res.Products)
	require.NotEmpty(t, res.Recommendations)
	require.Contains(t, res.Reply, "opciones")
	require.Equal(t, "FOLLOWUP", a.CurrentState())

	// Recommendations are ranked and bounded.
	require.LessOrEqual(t, len(res.Recommendations), 2)
	if len(res.Recommendations) == 2 {
		require.GreaterOrEqual(t,
			res.Recommendations[0].TotalScore,
			res.Recommendations[1].TotalScore)
	}
}

func TestSearchFailureDegradesToApology(t *testing.T) {
	eng := engine.New(llm.NewRules(), engine.Config{})
	a := New(eng, failingClient{}, nil, Config{})
	ctx := context.Background()

	_, err := a.Process(ctx, "para estudiar, 2 millones, que sea rapida, 8gb de ram, en casa todos los dias")
	require.NoError(t, err)

	res, err := a.Process(ctx, "dale")
	require.NoError(t, err)
	require.Equal(t, "RECOMMENDING", res.State)
	require.Empty(t, res.Products)
	require.Contains(t, res.Reply, "no encontré")
}

type failingClient struct{}

func (failingClient) Search(ctx context.Context, query, filters string, hitsPerPage int) (*search.Result, error) {
	return nil, search.ErrBackendUnavailable
}

func TestPersistenceAfterEveryTurn(t *testing.T) {
	store := &memoryStore{}
	a := newTestAdvisor(t, store)

	_, err := a.Process(context.Background(), "para juegos")
	require.NoError(t, err)
	require.Equal(t, 1, store.saves)
	require.NotNil(t, store.last)
	require.Equal(t, "gaming", store.last.Profile.UseCase)
}

func TestInjectResultsRanks(t *testing.T) {
	a := newTestAdvisor(t, nil)

	res := a.InjectResults(catalog.DemoProducts())
	require.Equal(t, "RECOMMENDING", res.State)
	require.NotEmpty(t, res.Recommendations)
}

func TestRefinementRoundTrip(t *testing.T) {
	a := newTestAdvisor(t, nil)
	ctx := context.Background()

	_, err := a.Process(ctx, "para estudiar, 2 millones, que sea rapida, 8gb de ram, en casa todos los dias")
	require.NoError(t, err)
	_, err = a.Process(ctx, "dale")
	require.NoError(t, err)
	require.Equal(t, "FOLLOWUP", a.CurrentState())

	res, err := a.Process(ctx, "¿no hay algo mas barato?")
	require.NoError(t, err)
	require.Equal(t, "price", res.RefinementFocus)
	require.Equal(t, "GATHERING_INFO", res.State)
	require.Equal(t, "GATHERING_INFO", a.CurrentState())
}

func TestWelcomeAndReset(t *testing.T) {
	a := newTestAdvisor(t, nil)
	require.True(t, strings.Contains(a.WelcomeMessage(), "asesor"))

	_, err := a.Process(context.Background(), "para juegos")
	require.NoError(t, err)
	a.Reset()
	require.Equal(t, "WELCOME", a.CurrentState())
}
