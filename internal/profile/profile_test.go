// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package profile

import (
	"reflect"
	"strings"
	"testing"
)

func TestEmptyProfile(t *testing.T) {
	p := New()

	if got := p.Confidence(); got != 0.0 {
		t.Errorf("Confidence() = %v, want 0.0", got)
	}

	want := []string{"use_case", "budget", "priorities", "usage_location", "usage_frequency"}
	if got := p.MissingCriticalFields(); !reflect.DeepEqual(got, want) {
		t.Errorf("MissingCriticalFields() = %v, want %v", got, want)
	}

	if p.ReadyForSearch(0.8) {
		t.Error("empty profile should not be ready for search")
	}
}

func TestConfidenceAccumulation(t *testing.T) {
	p := New()

	steps := []struct {
		name     string
		fragment map[string]any
		want     float64
	}{
		{
			name:     "use case and budget",
			fragment: map[string]any{"use_case": "gaming", "budget_max": 3000000},
			want:     0.50,
		},
		{
			name:     "two priorities",
			fragment: map[string]any{"priorities": []string{"performance", "portability"}},
			want:     0.60,
		},
		{
			name:     "ram and weight constraints",
			fragment: map[string]any{"min_ram_gb": 16, "max_weight_kg": 1.5},
			want:     0.70,
		},
		{
			name:     "location only",
			fragment: map[string]any{"location": "casa"},
			want:     0.78,
		},
		{
			name:     "frequency completes usage context",
			fragment: map[string]any{"frequency": "diario"},
			want:     0.85,
		},
	}

	for _, step := range steps {
		p.Merge(step.fragment)
		if got := p.Confidence(); got != step.want {
			t.Errorf("after %q: Confidence() = %v, want %v", step.name, got, step.want)
		}
	}
}

func TestReadyForSearchThreshold(t *testing.T) {
	p := New()
	p.Merge(map[string]any{
		"use_case":      "gaming",
		"budget_max":    3000000,
		"priorities":    []string{"performance", "portability"},
		"min_ram_gb":    16,
		"max_weight_kg": 1.5,
		"location":      "casa",
	})

	// 0.78 with the default 0.8 engine threshold.
	if p.ReadyForSearch(0.8) {
		t.Error("profile at 0.78 should not clear a 0.8 threshold")
	}

	p.Merge(map[string]any{"frequency": "diario"})
	if !p.ReadyForSearch(0.8) {
		t.Error("profile at 0.85 should clear a 0.8 threshold")
	}

	// Non-positive threshold falls back to the package default.
	if !p.ReadyForSearch(0) {
		t.Error("profile at 0.85 should clear the default threshold")
	}
}

func TestPriorityCap(t *testing.T) {
	p := New()
	p.Merge(map[string]any{
		"priorities": []string{"performance", "portability", "battery", "price", "display"},
	})
	// Five priorities still score as three.
	if got := p.Confidence(); got != 0.15 {
		t.Errorf("Confidence() = %v, want 0.15", got)
	}
}

func TestMergeIdempotent(t *testing.T) {
	fragment := map[string]any{
		"use_case":          "study",
		"budget_max":        2500000,
		"priorities":        []string{"battery", "portability"},
		"min_ram_gb":        8,
		"min_battery_hours": 8,
		"location":          "universidad",
		"frequency":         "diario",
	}

	p := New()
	p.Merge(fragment)
	first := p.Clone()

	p.Merge(fragment)
	if p.Confidence() != first.Confidence() {
		t.Errorf("confidence changed on repeat merge: %v vs %v", p.Confidence(), first.Confidence())
	}
	if !reflect.DeepEqual(p.Priorities, first.Priorities) {
		t.Errorf("priorities changed on repeat merge: %v vs %v", p.Priorities, first.Priorities)
	}
}

func TestUseCaseFirstWins(t *testing.T) {
	p := New()
	p.Merge(map[string]any{"use_case": "gaming"})
	p.Merge(map[string]any{"use_case": "office"})
	if p.UseCase != "gaming" {
		t.Errorf("UseCase = %q, want %q", p.UseCase, "gaming")
	}
}

func TestScalarConstraintsOverwrite(t *testing.T) {
	p := New()
	p.Merge(map[string]any{"budget_max": 3000000, "min_ram_gb": 8})
	p.Merge(map[string]any{"budget_max": 2000000, "min_ram_gb": 16})

	if p.Budget.Max != 2000000 {
		t.Errorf("Budget.Max = %d, want 2000000", p.Budget.Max)
	}
	if p.MustHaves.MinRAMGB != 16 {
		t.Errorf("MinRAMGB = %d, want 16", p.MustHaves.MinRAMGB)
	}
}

func TestListUnionKeepsOrder(t *testing.T) {
	p := New()
	p.Merge(map[string]any{"priorities": []string{"performance"}})
	p.Merge(map[string]any{"priorities": []string{"battery", "performance", "price"}})

	want := []string{"performance", "battery", "price"}
	if !reflect.DeepEqual(p.Priorities, want) {
		t.Errorf("Priorities = %v, want %v", p.Priorities, want)
	}
}

func TestMergeToleratesGarbage(t *testing.T) {
	p := New()
	p.Merge(map[string]any{
		"use_case":   42,
		"budget_max": "not a number",
		"priorities": "portability",
		"min_ram_gb": []string{"16"},
		"mystery":    struct{}{},
	})

	if p.UseCase != "" {
		t.Errorf("UseCase = %q, want empty", p.UseCase)
	}
	if p.Budget.Max != 0 {
		t.Errorf("Budget.Max = %d, want 0", p.Budget.Max)
	}
	// A bare string is accepted as a single-element list.
	if !reflect.DeepEqual(p.Priorities, []string{"portability"}) {
		t.Errorf("Priorities = %v, want [portability]", p.Priorities)
	}
}

func TestMissingFieldsShrink(t *testing.T) {
	p := New()
	p.Merge(map[string]any{"use_case": "office", "frequency": "diario"})

	want := []string{"budget", "priorities", "usage_location"}
	if got := p.MissingCriticalFields(); !reflect.DeepEqual(got, want) {
		t.Errorf("MissingCriticalFields() = %v, want %v", got, want)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	p := New()
	p.Merge(map[string]any{
		"use_case":      "creative",
		"budget_max":    4000000,
		"priorities":    []string{"display", "performance"},
		"min_ram_gb":    16,
		"os_preference": "macos",
	})

	data, err := p.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	restored, err := FromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}

	if restored.Confidence() != p.Confidence() {
		t.Errorf("restored confidence %v, want %v", restored.Confidence(), p.Confidence())
	}
	if restored.UseCase != p.UseCase || restored.Budget.Max != p.Budget.Max {
		t.Errorf("restored profile differs: %+v vs %+v", restored, p)
	}
}

func TestSummaryIncludesKnownFields(t *testing.T) {
	p := New()
	p.Merge(map[string]any{
		"use_case":      "gaming",
		"budget_max":    2499000,
		"priorities":    []string{"performance"},
		"max_weight_kg": 1.5,
	})

	s := p.Summary()
	for _, want := range []string{"gaming", "$2.499.000", "performance", "1.5kg"} {
		if !strings.Contains(s, want) {
			t.Errorf("Summary() missing %q:\n%s", want, s)
		}
	}
	if strings.Contains(s, "Batería") {
		t.Errorf("Summary() should omit unset battery field:\n%s", s)
	}
}
