// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"asesor/internal/profile"
)

// ============================================================================
// RULE-BASED COLLABORATOR
// ============================================================================

// readyThreshold is the confidence at which the rule-based collaborator
// declares gathering complete.
const readyThreshold = 0.8

// keywordGroup maps trigger substrings to a canonical value. Groups are
// checked in order and the first hit wins within a group.
type keywordGroup struct {
	value    string
	triggers []string
}

// Use-case detection. Order matters: "estudio" must win over the generic
// home words when both appear.
var useCaseGroups = []keywordGroup{
	{profile.UseCaseStudy, []string{"estudio", "estudiar", "universidad", "estudiante", "colegio", "clases"}},
	{profile.UseCaseGaming, []string{"gaming", "gamer", "juego", "juegos", "videojuego"}},
	{profile.UseCaseOffice, []string{"oficina", "trabajo", "empresa", "teletrabajo"}},
	{profile.UseCaseCreative, []string{"diseño", "diseno", "edicion", "video", "fotografia", "ilustracion"}},
	{profile.UseCaseGeneral, []string{"casa", "hogar", "familiar", "navegar"}},
}

var priorityGroups = []keywordGroup{
	{"performance", []string{"rapida", "rapido", "veloz", "potente", "rendimiento"}},
	{"portability", []string{"ligera", "ligero", "liviana", "liviano", "portatil", "portabilidad"}},
	{"battery", []string{"bateria", "duracion", "autonomia"}},
	{"price", []string{"barata", "barato", "economica", "economico", "precio bajo"}},
	{"display", []string{"pantalla", "visual", "resolucion"}},
}

var locationGroups = []keywordGroup{
	{"casa", []string{"en casa", "hogar", "desde casa"}},
	{"oficina", []string{"en la oficina", "oficina"}},
	{"universidad", []string{"universidad", "en clase", "campus"}},
	{"viajes", []string{"viaje", "viajar", "viajes"}},
}

var frequencyGroups = []keywordGroup{
	{"diario", []string{"diario", "todos los dias", "a diario", "cada dia"}},
	{"ocasional", []string{"ocasional", "a veces", "de vez en cuando", "fines de semana"}},
}

// Amount and constraint patterns. Budgets arrive as "2500000", as grouped
// "2.500.000", or as "2 millones y medio" style shorthand.
var (
	millionsPattern = regexp.MustCompile(`(\d{1,3})\s*millon(?:es)?`)
	amountPattern   = regexp.MustCompile(`\d{1,3}(?:[.,']\d{3})+|\d{6,10}`)
	ramPattern      = regexp.MustCompile(`(\d+)\s*(?:gb|gigas?)(?:\s*(?:de\s+)?(?:ram|memoria))?`)
	weightPattern   = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(?:kg|kilos?)`)
	batteryPattern  = regexp.MustCompile(`(\d+)\s*(?:horas?|hrs?)(?:\s*(?:de\s+)?(?:bateria|duracion))?`)
	separatorRunes  = strings.NewReplacer(".", "", ",", "", "'", "")
)

// accentFold lowercases and strips Spanish accents so keyword lookups do
// not depend on how the user typed them. Ñ is kept.
var accentFold = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u",
	"Á", "a", "É", "e", "Í", "i", "Ó", "o", "Ú", "u", "Ü", "u",
)

// Questions asked for each still-missing critical field, in the same
// order the profile reports them.
var fieldQuestions = map[string]string{
	"use_case":        "¿Para qué vas a usar principalmente el portátil? (estudio, trabajo, gaming, diseño...)",
	"budget":          "¿Cuál es tu presupuesto máximo aproximado?",
	"priorities":      "¿Qué es lo más importante para ti: rendimiento, portabilidad, batería o precio?",
	"usage_location":  "¿Dónde lo vas a usar principalmente: en casa, la oficina o la universidad?",
	"usage_frequency": "¿Con qué frecuencia lo vas a usar?",
}

const (
	readyReply   = "¡Perfecto! Ya tengo lo que necesito para buscar las mejores opciones para ti."
	detailsReply = "¿Tienes algún requisito adicional? Por ejemplo RAM mínima, peso máximo o duración de batería."
)

// Rules is the deterministic collaborator. It never errors and makes no
// external calls.
type Rules struct{}

// NewRules returns the rule-based collaborator.
func NewRules() *Rules {
	return &Rules{}
}

// Name identifies the collaborator for logs.
func (r *Rules) Name() string { return "rules" }

// Process extracts what it can from the message and answers with the
// question for the first critical field still missing.
func (r *Rules) Process(ctx context.Context, message string, prof *profile.Profile, history []Turn) (*Response, error) {
	extracted := Extract(message)

	merged := prof.Clone()
	merged.Merge(extracted)

	resp := &Response{
		Extracted:     extracted,
		Confidence:    merged.Confidence(),
		ReadyToSearch: merged.ReadyForSearch(readyThreshold),
	}

	switch missing := merged.MissingCriticalFields(); {
	case resp.ReadyToSearch:
		resp.Reply = readyReply
	case len(missing) > 0:
		resp.Reply = ackPrefix(extracted) + fieldQuestions[missing[0]]
	default:
		// Critical fields covered but confidence still short: probe for
		// hard constraints.
		resp.Reply = ackPrefix(extracted) + detailsReply
	}
	return resp, nil
}

// ackPrefix acknowledges that something was understood before asking the
// next question.
func ackPrefix(extracted map[string]any) string {
	if len(extracted) == 0 {
		return ""
	}
	return "¡Entendido! "
}

// ============================================================================
// Extraction
// ============================================================================

// Extract pulls profile fragments out of a Spanish message. It is shared
// with the Gemini collaborator's degraded mode.
func Extract(message string) map[string]any {
	text := accentFold.Replace(strings.ToLower(message))
	out := make(map[string]any)

	if uc := matchGroup(text, useCaseGroups); uc != "" {
		out["use_case"] = uc
	}
	if budget := extractBudget(text); budget > 0 {
		out["budget_max"] = budget
	}
	if prios := matchAllGroups(text, priorityGroups); len(prios) > 0 {
		out["priorities"] = prios
	}
	if m := ramPattern.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			out["min_ram_gb"] = n
		}
	}
	if m := weightPattern.FindStringSubmatch(text); m != nil {
		if f, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64); err == nil {
			out["max_weight_kg"] = f
		}
	}
	if m := batteryPattern.FindStringSubmatch(text); m != nil {
		if strings.Contains(text, "bateria") || strings.Contains(text, "duracion") {
			if n, err := strconv.Atoi(m[1]); err == nil {
				out["min_battery_hours"] = float64(n)
			}
		}
	}
	if loc := matchGroup(text, locationGroups); loc != "" {
		out["location"] = loc
	}
	if freq := matchGroup(text, frequencyGroups); freq != "" {
		out["frequency"] = freq
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

// extractBudget understands "2 millones", grouped amounts like
// "2.500.000", and bare amounts of at least six digits.
func extractBudget(text string) int {
	if m := millionsPattern.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n * 1000000
		}
	}
	if m := amountPattern.FindString(text); m != "" {
		if n, err := strconv.Atoi(separatorRunes.Replace(m)); err == nil {
			return n
		}
	}
	return 0
}

func matchGroup(text string, groups []keywordGroup) string {
	for _, g := range groups {
		for _, trigger := range g.triggers {
			if strings.Contains(text, trigger) {
				return g.value
			}
		}
	}
	return ""
}

func matchAllGroups(text string, groups []keywordGroup) []string {
	var out []string
	for _, g := range groups {
		for _, trigger := range g.triggers {
			if strings.Contains(text, trigger) {
				out = append(out, g.value)
				break
			}
		}
	}
	return out
}
