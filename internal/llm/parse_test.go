// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"errors"
	"testing"
)

func TestParseResponseBareJSON(t *testing.T) {
	resp, err := parseResponse(`{"reply":"¿Cuál es tu presupuesto?","extracted":{"use_case":"gaming"},"confidence":0.25,"ready_to_search":false}`)
	if err != nil {
		t.Fatalf("parseResponse: %v", err)
	}
	if resp.Reply != "¿Cuál es tu presupuesto?" {
		t.Errorf("Reply = %q", resp.Reply)
	}
	if resp.Extracted["use_case"] != "gaming" {
		t.Errorf("Extracted = %v", resp.Extracted)
	}
}

func TestParseResponseFenced(t *testing.T) {
	text := "```json\n{\"reply\":\"listo\",\"confidence\":0.9,\"ready_to_search\":true}\n```"
	resp, err := parseResponse(text)
	if err != nil {
		t.Fatalf("parseResponse: %v", err)
	}
	if !resp.ReadyToSearch {
		t.Error("ReadyToSearch should be true")
	}
}

func TestParseResponseEmbeddedInProse(t *testing.T) {
	text := `Claro, aquí tienes: {"reply":"hola","confidence":0.1,"ready_to_search":false} ¡Espero que sirva!`
	resp, err := parseResponse(text)
	if err != nil {
		t.Fatalf("parseResponse: %v", err)
	}
	if resp.Reply != "hola" {
		t.Errorf("Reply = %q", resp.Reply)
	}
}

func TestParseResponseGarbage(t *testing.T) {
	for _, text := range []string{"", "no json here", "{broken"} {
		if _, err := parseResponse(text); !errors.Is(err, ErrInvalidJSON) {
			t.Errorf("parseResponse(%q) err = %v, want ErrInvalidJSON", text, err)
		}
	}
}

func TestParseResponsePrunesPlaceholders(t *testing.T) {
	resp, err := parseResponse(`{"reply":"ok","extracted":{"use_case":"study","budget_max":0,"os_preference":"","priorities":[]},"confidence":0.3,"ready_to_search":false}`)
	if err != nil {
		t.Fatalf("parseResponse: %v", err)
	}
	if _, ok := resp.Extracted["budget_max"]; ok {
		t.Error("zero budget_max should be pruned")
	}
	if _, ok := resp.Extracted["os_preference"]; ok {
		t.Error("empty os_preference should be pruned")
	}
	if _, ok := resp.Extracted["priorities"]; ok {
		t.Error("empty priorities should be pruned")
	}
	if resp.Extracted["use_case"] != "study" {
		t.Errorf("use_case lost: %v", resp.Extracted)
	}
}
