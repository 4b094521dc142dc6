// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package profile

import (
	"encoding/json"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ============================================================================
// Constants
// ============================================================================

// Known use cases. Free-form values are accepted everywhere a use case is
// stored; these are the ones the rest of the system has tuned defaults for.
const (
	UseCaseGaming   = "gaming"
	UseCaseCreative = "creative"
	UseCaseStudy    = "study"
	UseCaseOffice   = "office"
	UseCaseGeneral  = "general"
)

// DefaultReadyThreshold is the minimum confidence a profile must reach
// before a search is worth running when the caller does not supply its
// own threshold.
const DefaultReadyThreshold = 0.7

// DefaultCurrency is assumed when a budget arrives without one.
const DefaultCurrency = "COP"

// Confidence weights in millipoints (1000 = 1.0). Integer arithmetic keeps
// the score exact; the public value is rounded to centipoints.
const (
	pointsUseCase      = 250
	pointsBudget       = 250
	pointsPriorityEach = 50
	pointsPriorityCap  = 150
	pointsMustHaveEach = 50
	pointsUsageBoth    = 150
	pointsUsageOne     = 75
)

// criticalFields is the fixed reporting order for MissingCriticalFields.
var criticalFields = []string{
	"use_case",
	"budget",
	"priorities",
	"usage_location",
	"usage_frequency",
}

// spanishPrinter renders prices with Spanish digit grouping (1.234.567).
var spanishPrinter = message.NewPrinter(language.Spanish)

// ============================================================================
// Types
// ============================================================================

// Budget is a price range in whole currency units.
type Budget struct {
	Min      int    `json:"min,omitempty"`
	Max      int    `json:"max,omitempty"`
	Currency string `json:"currency,omitempty"`
}

// Complete reports whether the budget is usable for filtering. Only the
// maximum matters; a minimum without a ceiling cannot bound a search.
func (b Budget) Complete() bool {
	return b.Max > 0
}

// MustHaves are hard constraints a candidate product must satisfy.
type MustHaves struct {
	MinRAMGB        int     `json:"min_ram_gb,omitempty"`
	MaxWeightKg     float64 `json:"max_weight_kg,omitempty"`
	MinBatteryHours float64 `json:"min_battery_hours,omitempty"`
	OSPreference    string  `json:"os_preference,omitempty"`
}

// filled counts how many of the four constraint fields are set.
func (m MustHaves) filled() int {
	n := 0
	if m.MinRAMGB > 0 {
		n++
	}
	if m.MaxWeightKg > 0 {
		n++
	}
	if m.MinBatteryHours > 0 {
		n++
	}
	if m.OSPreference != "" {
		n++
	}
	return n
}

// UsageContext describes where and how often the laptop will be used.
type UsageContext struct {
	Location  string `json:"location,omitempty"`
	Frequency string `json:"frequency,omitempty"`
}

// Profile is the accumulated picture of what the user is looking for.
// The zero value is not ready for use; call New.
type Profile struct {
	UseCase       string       `json:"use_case,omitempty"`
	Budget        Budget       `json:"budget"`
	Priorities    []string     `json:"priorities,omitempty"`
	MustHaves     MustHaves    `json:"must_haves"`
	NiceToHaves   []string     `json:"nice_to_haves,omitempty"`
	Usage         UsageContext `json:"usage_context"`
	SoftwareNeeds []string     `json:"software_needs,omitempty"`

	// Derived fields, recomputed by Merge and refreshed by Recompute.
	ConfidenceScore float64  `json:"confidence_score"`
	MissingInfo     []string `json:"missing_info"`
}

// New returns an empty profile with derived fields initialized.
func New() *Profile {
	p := &Profile{
		Budget: Budget{Currency: DefaultCurrency},
	}
	p.Recompute()
	return p
}

// ============================================================================
// Merging
// ============================================================================

// Merge folds a partial extraction into the profile. Keys follow the
// extraction schema shared with the language collaborators:
//
//	use_case, budget_min, budget_max, priorities, min_ram_gb,
//	max_weight_kg, min_battery_hours, os_preference, nice_to_haves,
//	location, frequency, software_needs
//
// The use case keeps its first observed value; list fields union with
// first-seen order preserved; scalar constraints overwrite. Unknown keys
// and values of the wrong type are ignored. Merging the same fragment
// twice leaves the profile unchanged.
func (p *Profile) Merge(extracted map[string]any) {
	if len(extracted) == 0 {
		p.Recompute()
		return
	}

	if v, ok := asString(extracted["use_case"]); ok && v != "" && p.UseCase == "" {
		p.UseCase = strings.ToLower(v)
	}
	if v, ok := asInt(extracted["budget_max"]); ok && v > 0 {
		p.Budget.Max = v
	}
	if v, ok := asInt(extracted["budget_min"]); ok && v > 0 {
		p.Budget.Min = v
	}
	if p.Budget.Currency == "" {
		p.Budget.Currency = DefaultCurrency
	}

	p.Priorities = appendUnique(p.Priorities, asStrings(extracted["priorities"])...)
	p.NiceToHaves = appendUnique(p.NiceToHaves, asStrings(extracted["nice_to_haves"])...)
	p.SoftwareNeeds = appendUnique(p.SoftwareNeeds, asStrings(extracted["software_needs"])...)

	if v, ok := asInt(extracted["min_ram_gb"]); ok && v > 0 {
		p.MustHaves.MinRAMGB = v
	}
	if v, ok := asFloat(extracted["max_weight_kg"]); ok && v > 0 {
		p.MustHaves.MaxWeightKg = v
	}
	if v, ok := asFloat(extracted["min_battery_hours"]); ok && v > 0 {
		p.MustHaves.MinBatteryHours = v
	}
	if v, ok := asString(extracted["os_preference"]); ok && v != "" {
		p.MustHaves.OSPreference = strings.ToLower(v)
	}

	if v, ok := asString(extracted["location"]); ok && v != "" {
		p.Usage.Location = strings.ToLower(v)
	}
	if v, ok := asString(extracted["frequency"]); ok && v != "" {
		p.Usage.Frequency = strings.ToLower(v)
	}

	p.Recompute()
}

// ============================================================================
// Scoring
// ============================================================================

// millipoints computes the raw confidence score on a 0..1000 scale.
func (p *Profile) millipoints() int {
	pts := 0
	if p.UseCase != "" {
		pts += pointsUseCase
	}
	if p.Budget.Complete() {
		pts += pointsBudget
	}
	if n := len(p.Priorities) * pointsPriorityEach; n > 0 {
		pts += min(n, pointsPriorityCap)
	}
	pts += p.MustHaves.filled() * pointsMustHaveEach
	switch {
	case p.Usage.Location != "" && p.Usage.Frequency != "":
		pts += pointsUsageBoth
	case p.Usage.Location != "" || p.Usage.Frequency != "":
		pts += pointsUsageOne
	}
	return pts
}

// Confidence returns the completeness score in [0, 1], rounded half-up to
// two decimals.
func (p *Profile) Confidence() float64 {
	return float64((p.millipoints()+5)/10) / 100
}

// ReadyForSearch reports whether enough is known to run a product search.
// A non-positive threshold falls back to DefaultReadyThreshold.
func (p *Profile) ReadyForSearch(threshold float64) bool {
	if threshold <= 0 {
		threshold = DefaultReadyThreshold
	}
	return p.Confidence() >= threshold
}

// MissingCriticalFields lists the critical fields still unknown, always in
// the same order: use_case, budget, priorities, usage_location,
// usage_frequency.
func (p *Profile) MissingCriticalFields() []string {
	missing := make([]string, 0, len(criticalFields))
	for _, f := range criticalFields {
		switch f {
		case "use_case":
			if p.UseCase == "" {
				missing = append(missing, f)
			}
		case "budget":
			if !p.Budget.Complete() {
				missing = append(missing, f)
			}
		case "priorities":
			if len(p.Priorities) == 0 {
				missing = append(missing, f)
			}
		case "usage_location":
			if p.Usage.Location == "" {
				missing = append(missing, f)
			}
		case "usage_frequency":
			if p.Usage.Frequency == "" {
				missing = append(missing, f)
			}
		}
	}
	return missing
}

// Recompute refreshes the derived ConfidenceScore and MissingInfo fields.
// Merge calls it automatically; callers that mutate fields directly (for
// example after loading from storage) should call it themselves.
func (p *Profile) Recompute() {
	p.ConfidenceScore = p.Confidence()
	p.MissingInfo = p.MissingCriticalFields()
}

// ============================================================================
// Presentation
// ============================================================================

// FormatPrice renders a whole amount with Spanish digit grouping, e.g.
// "$2.499.000".
func FormatPrice(amount int) string {
	return spanishPrinter.Sprintf("$%d", amount)
}

// Summary renders the known requirements as a Spanish bullet list for
// confirmation back to the user. Unset fields are omitted.
func (p *Profile) Summary() string {
	var b strings.Builder
	b.WriteString("📋 Esto es lo que busco para ti:\n")
	if p.UseCase != "" {
		b.WriteString("• Uso principal: " + p.UseCase + "\n")
	}
	if p.Budget.Complete() {
		cur := p.Budget.Currency
		if cur == "" {
			cur = DefaultCurrency
		}
		if p.Budget.Min > 0 {
			b.WriteString("• Presupuesto: " + FormatPrice(p.Budget.Min) + " a " + FormatPrice(p.Budget.Max) + " " + cur + "\n")
		} else {
			b.WriteString("• Presupuesto: hasta " + FormatPrice(p.Budget.Max) + " " + cur + "\n")
		}
	}
	if len(p.Priorities) > 0 {
		b.WriteString("• Prioridades: " + strings.Join(p.Priorities, ", ") + "\n")
	}
	if p.MustHaves.MinRAMGB > 0 {
		b.WriteString("• RAM mínima: " + strconv.Itoa(p.MustHaves.MinRAMGB) + "GB\n")
	}
	if p.MustHaves.MaxWeightKg > 0 {
		b.WriteString("• Peso máximo: " + trimFloat(p.MustHaves.MaxWeightKg) + "kg\n")
	}
	if p.MustHaves.MinBatteryHours > 0 {
		b.WriteString("• Batería mínima: " + trimFloat(p.MustHaves.MinBatteryHours) + " horas\n")
	}
	if p.MustHaves.OSPreference != "" {
		b.WriteString("• Sistema operativo: " + p.MustHaves.OSPreference + "\n")
	}
	if len(p.SoftwareNeeds) > 0 {
		b.WriteString("• Programas: " + strings.Join(p.SoftwareNeeds, ", ") + "\n")
	}
	if p.Usage.Location != "" {
		b.WriteString("• Lugar de uso: " + p.Usage.Location + "\n")
	}
	if p.Usage.Frequency != "" {
		b.WriteString("• Frecuencia de uso: " + p.Usage.Frequency + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// ============================================================================
// Serialization
// ============================================================================

// ToJSON serializes the profile with derived fields refreshed.
func (p *Profile) ToJSON() ([]byte, error) {
	p.Recompute()
	return json.Marshal(p)
}

// FromJSON restores a profile previously produced by ToJSON. Derived
// fields are recomputed rather than trusted.
func FromJSON(data []byte) (*Profile, error) {
	p := New()
	if err := json.Unmarshal(data, p); err != nil {
		return nil, err
	}
	p.Recompute()
	return p, nil
}

// Clone returns a deep copy.
func (p *Profile) Clone() *Profile {
	c := *p
	c.Priorities = append([]string(nil), p.Priorities...)
	c.NiceToHaves = append([]string(nil), p.NiceToHaves...)
	c.SoftwareNeeds = append([]string(nil), p.SoftwareNeeds...)
	c.MissingInfo = append([]string(nil), p.MissingInfo...)
	return &c
}

// ============================================================================
// Coercion helpers
// ============================================================================

// Extractions arrive from JSON decoding or hand-built maps, so numeric
// values may be float64, int, or numeric strings.

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return strings.TrimSpace(s), ok
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return int(f), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func asStrings(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.ToLower(strings.TrimSpace(s)))
			}
		}
		return out
	case string:
		if strings.TrimSpace(list) == "" {
			return nil
		}
		return []string{strings.ToLower(strings.TrimSpace(list))}
	}
	return nil
}

func appendUnique(dst []string, items ...string) []string {
	for _, item := range items {
		found := false
		for _, existing := range dst {
			if existing == item {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, item)
		}
	}
	return dst
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
