package services

import (
	"fmt"

	"xoso/internal/models"
)

// Display styles for a tier on the results board.
const (
	StyleGrid   = "grid"
	StyleChips  = "chips"
	StyleSingle = "single"
)

// TierView is what the templates need to draw one tier.
type TierView struct {
	Key         models.Tier
	Label       string
	Numbers     []string
	Max         int
	Digits      int
	CanInput    bool
	Full        bool
	Visible     bool
	Style       string
	Highlight   bool
	HeaderCount string
	BoardCount  string
	Placeholder string
}

// Board is the view model for the input sidebar and the results board.
type Board struct {
	Tiers []TierView
}

// VisibleTiers returns the tiers shown on the results board: those that can
// take input or already hold numbers.
func (b Board) VisibleTiers() []TierView {
	var out []TierView
	for _, tv := range b.Tiers {
		if tv.Visible {
			out = append(out, tv)
		}
	}
	return out
}

// Board builds the view model for results.
func (s *LotteryService) Board(results models.Results) Board {
	can := s.CanInput(results)
	board := Board{Tiers: make([]TierView, 0, len(models.Order))}
	for _, t := range models.Order {
		meta := s.layout[t]
		numbers := results.Get(t)
		tv := TierView{
			Key:        t,
			Label:      meta.Label,
			Numbers:    numbers,
			Max:        meta.Max,
			Digits:     meta.Digits,
			CanInput:   can[t],
			Full:       len(numbers) >= meta.Max,
			Visible:    can[t] || len(numbers) > 0,
			BoardCount: fmt.Sprintf("%d/%d", len(numbers), meta.Max),
		}

		switch {
		case meta.Max == 1:
			tv.Style = StyleSingle
		case t == models.TierSecond:
			tv.Style = StyleChips
		default:
			tv.Style = StyleGrid
		}
		tv.Highlight = tv.Style != StyleGrid

		// Consolation numbers are announced three digits at a time, so the
		// sidebar counts digits drawn rather than numbers.
		if t == models.TierConsolation {
			tv.HeaderCount = fmt.Sprintf("%d/%d", len(numbers)*3, meta.Max*3)
		} else {
			tv.HeaderCount = tv.BoardCount
		}

		if meta.Digits == 3 {
			tv.Placeholder = "VD: 528"
		} else {
			tv.Placeholder = "VD: 1456"
		}
		board.Tiers = append(board.Tiers, tv)
	}
	return board
}
