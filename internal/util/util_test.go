// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import "testing"

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"shorter than limit", "HP Pavilion", 20, "HP Pavilion"},
		{"exactly at limit", "abcde", 5, "abcde"},
		{"truncated with ellipsis", "Portátil HP Pavilion 15.6 pulgadas", 12, "Portátil ..."},
		{"accents count as one rune", "ultraligerísima", 15, "ultraligerísima"},
		{"tiny limit skips ellipsis", "abcdef", 3, "abc"},
		{"zero limit", "abc", 0, ""},
		{"negative limit", "abc", -1, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateRunes(tt.in, tt.max); got != tt.want {
				t.Errorf("TruncateRunes(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}
