// Package cost computes review spend from token counts and per-model rates.
package cost

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

//go:embed pricing.json
var embeddedPricing []byte

// Rates are USD per one million tokens.
type Rates struct {
	InputPerMillion  float64 `json:"input_per_million"`
	OutputPerMillion float64 `json:"output_per_million"`
}

// Amount returns the unrounded cost of one call. Callers round at the point
// of persistence; rounding here would accumulate error across additions.
func Amount(tokensIn, tokensOut int64, r Rates) float64 {
	return (float64(tokensIn)*r.InputPerMillion + float64(tokensOut)*r.OutputPerMillion) / 1_000_000
}

// Round rounds a monetary amount to 6 decimal places.
func Round(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

type pricingFile struct {
	LastUpdated string       `json:"last_updated"`
	Models      []modelPrice `json:"models"`
}

type modelPrice struct {
	Name             string  `json:"name"`
	InputPerMillion  float64 `json:"input_per_million"`
	OutputPerMillion float64 `json:"output_per_million"`
}

// Table resolves per-model rates, falling back to configured defaults for
// models missing from the baked-in pricing data.
type Table struct {
	models   map[string]Rates
	defaults Rates
}

// LoadTable parses the embedded pricing data.
func LoadTable(defaults Rates) (*Table, error) {
	var pf pricingFile
	if err := json.Unmarshal(embeddedPricing, &pf); err != nil {
		return nil, fmt.Errorf("parse embedded pricing: %w", err)
	}
	t := &Table{models: make(map[string]Rates, len(pf.Models)), defaults: defaults}
	for _, m := range pf.Models {
		t.models[strings.ToLower(m.Name)] = Rates{
			InputPerMillion:  m.InputPerMillion,
			OutputPerMillion: m.OutputPerMillion,
		}
	}
	return t, nil
}

// RatesFor returns the rates for a model name, or the defaults when the
// model has no pricing entry.
func (t *Table) RatesFor(model string) Rates {
	if r, ok := t.models[strings.ToLower(model)]; ok {
		return r
	}
	return t.defaults
}
