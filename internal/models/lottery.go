package models

import (
	"fmt"
	"strings"
)

// Tier identifies one prize category on the results board.
type Tier string

const (
	TierConsolation Tier = "consolation"
	TierThird       Tier = "third"
	TierSecond      Tier = "second"
	TierFirst       Tier = "first"
	TierSpecial     Tier = "special"
)

// Order is the fixed order in which tiers are filled.
var Order = []Tier{TierConsolation, TierThird, TierSecond, TierFirst, TierSpecial}

// ParseTier converts a route or CLI argument into a Tier.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Order {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tier %q", s)
}

// TierMeta describes how many numbers a tier holds and how wide they are.
type TierMeta struct {
	Label  string
	Max    int
	Digits int
}

// Layout is the per-tier configuration of one lottery variant.
type Layout map[Tier]TierMeta

const (
	VariantStandard = "standard"
	VariantExtended = "extended"
)

// NewLayout returns the tier layout for a variant. The extended variant draws
// three times as many consolation numbers.
func NewLayout(variant string) (Layout, error) {
	consolation := 15
	switch variant {
	case "", VariantStandard:
	case VariantExtended:
		consolation = 45
	default:
		return nil, fmt.Errorf("unknown variant %q", variant)
	}
	return Layout{
		TierConsolation: {Label: "Giải khuyến khích", Max: consolation, Digits: 3},
		TierThird:       {Label: "Giải ba", Max: 5, Digits: 4},
		TierSecond:      {Label: "Giải nhì", Max: 3, Digits: 4},
		TierFirst:       {Label: "Giải nhất", Max: 1, Digits: 4},
		TierSpecial:     {Label: "Giải đặc biệt", Max: 1, Digits: 4},
	}, nil
}

// Results is the whole persisted document: every tier's winning numbers in
// the order they were entered.
type Results struct {
	Consolation []string `json:"consolation"`
	Third       []string `json:"third"`
	Second      []string `json:"second"`
	First       []string `json:"first"`
	Special     []string `json:"special"`
}

// EmptyResults returns a document with every tier present and empty, so it
// encodes as arrays rather than nulls.
func EmptyResults() Results {
	return Results{
		Consolation: []string{},
		Third:       []string{},
		Second:      []string{},
		First:       []string{},
		Special:     []string{},
	}
}

// Get returns the numbers stored for a tier.
func (r *Results) Get(t Tier) []string {
	switch t {
	case TierConsolation:
		return r.Consolation
	case TierThird:
		return r.Third
	case TierSecond:
		return r.Second
	case TierFirst:
		return r.First
	case TierSpecial:
		return r.Special
	}
	return nil
}

// Set replaces the numbers stored for a tier.
func (r *Results) Set(t Tier, values []string) {
	switch t {
	case TierConsolation:
		r.Consolation = values
	case TierThird:
		r.Third = values
	case TierSecond:
		r.Second = values
	case TierFirst:
		r.First = values
	case TierSpecial:
		r.Special = values
	}
}

// With returns a copy of r with value appended to tier t. The receiver is not
// modified.
func (r Results) With(t Tier, value string) Results {
	next := r.Clone()
	next.Set(t, append(next.Get(t), value))
	return next
}

// Clone deep-copies the document.
func (r Results) Clone() Results {
	out := EmptyResults()
	for _, t := range Order {
		out.Set(t, append([]string{}, r.Get(t)...))
	}
	return out
}

// Normalize trims every entry, drops blank ones and truncates every tier to
// the layout's maximum. Missing tiers become empty slices.
func (r Results) Normalize(layout Layout) Results {
	out := EmptyResults()
	for _, t := range Order {
		items := make([]string, 0, len(r.Get(t)))
		for _, item := range r.Get(t) {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}
			items = append(items, item)
		}
		if limit := layout[t].Max; len(items) > limit {
			items = items[:limit]
		}
		out.Set(t, items)
	}
	return out
}
