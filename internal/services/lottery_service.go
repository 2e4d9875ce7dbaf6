package services

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"xoso/internal/models"

	"github.com/google/logger"
)

var (
	threeDigitRe = regexp.MustCompile(`^\d{3}$`)
	fourDigitRe  = regexp.MustCompile(`^[0-2]\d{3}$`)
)

// Store is the persistence the service needs.
type Store interface {
	Read() (models.Results, error)
	Write(models.Results) error
}

// EntryError is a rejected entry. It only carries the message shown to the
// operator and whether the message should also pop up as a toast.
type EntryError struct {
	Message string
	Toast   bool
}

func (e *EntryError) Error() string {
	return e.Message
}

const (
	msgWrongOrder   = "Vui lòng nhập đúng thứ tự các nhóm giải."
	msgThreeDigits  = "Giải khuyến khích phải là 3 chữ số (000-999)."
	msgFourDigits   = "Giải ba/nhì/nhất/đặc biệt phải là 4 chữ số, số đầu từ 0-2."
	msgSaveFailed   = "Không thể lưu dữ liệu vào file."
	msgUnknownTier  = "Nhóm giải không hợp lệ."
	suffixMsgPrefix = "3 số cuối"
)

// LotteryService applies the entry rules on top of the results store.
type LotteryService struct {
	store  Store
	layout models.Layout
	toasts bool
}

// NewLotteryService creates a service over store using the given tier layout.
// When toasts is false no error is ever flagged for a toast.
func NewLotteryService(store Store, layout models.Layout, toasts bool) *LotteryService {
	return &LotteryService{
		store:  store,
		layout: layout,
		toasts: toasts,
	}
}

// Layout returns the tier layout in use.
func (s *LotteryService) Layout() models.Layout {
	return s.layout
}

// Results loads the stored document and normalizes it to the layout.
func (s *LotteryService) Results() (models.Results, error) {
	raw, err := s.store.Read()
	if err != nil {
		return models.Results{}, err
	}
	return raw.Normalize(s.layout), nil
}

// Replace overwrites the stored document as-is.
func (s *LotteryService) Replace(results models.Results) error {
	return s.store.Write(results)
}

// Reset empties every tier.
func (s *LotteryService) Reset() error {
	logger.Infof("Resetting lottery results")
	return s.store.Write(models.EmptyResults())
}

// CanInput reports which tiers accept input. Consolation always does; every
// other tier opens once the tier before it is full.
func (s *LotteryService) CanInput(results models.Results) map[models.Tier]bool {
	can := make(map[models.Tier]bool, len(models.Order))
	for i, t := range models.Order {
		if i == 0 {
			can[t] = true
			continue
		}
		prev := models.Order[i-1]
		can[t] = len(results.Get(prev)) == s.layout[prev].Max
	}
	return can
}

// IsFull reports whether a tier has reached its maximum.
func (s *LotteryService) IsFull(results models.Results, t models.Tier) bool {
	return len(results.Get(t)) >= s.layout[t].Max
}

// ValidateEntry checks format, duplicates within the tier and trailing three
// digit clashes across all tiers. It does not check order or capacity.
func (s *LotteryService) ValidateEntry(results models.Results, t models.Tier, value string) *EntryError {
	meta := s.layout[t]
	if meta.Digits == 3 {
		if !threeDigitRe.MatchString(value) {
			return s.entryError(t, msgThreeDigits)
		}
	} else if !fourDigitRe.MatchString(value) {
		return s.entryError(t, msgFourDigits)
	}

	if slices.Contains(results.Get(t), value) {
		return s.entryError(t, fmt.Sprintf("Số %s đã tồn tại trong %s.", value, meta.Label))
	}

	last3 := value[len(value)-3:]
	for _, other := range models.Order {
		for _, existing := range results.Get(other) {
			if other == t && existing == value {
				continue
			}
			if strings.HasSuffix(existing, last3) {
				return s.entryError(t, fmt.Sprintf("%s (%s) trùng với %s.", suffixMsgPrefix, last3, s.layout[other].Label))
			}
		}
	}
	return nil
}

// Submit validates value for tier t against the stored document and, when
// accepted, appends it and persists the whole document. It returns the
// updated document and the confirmation message.
func (s *LotteryService) Submit(t models.Tier, raw string) (models.Results, string, error) {
	results, err := s.Results()
	if err != nil {
		logger.Errorf("Failed to load results: %v", err)
		return models.Results{}, "", s.entryError(t, "Không thể tải dữ liệu đã lưu.")
	}

	meta, ok := s.layout[t]
	if !ok {
		return results, "", &EntryError{Message: msgUnknownTier}
	}
	if !s.CanInput(results)[t] {
		return results, "", s.entryError(t, msgWrongOrder)
	}

	value := strings.TrimSpace(raw)
	if entryErr := s.ValidateEntry(results, t, value); entryErr != nil {
		return results, "", entryErr
	}
	if s.IsFull(results, t) {
		return results, "", s.entryError(t, fmt.Sprintf("%s đã đủ số lượng.", meta.Label))
	}

	next := results.With(t, value)
	if err := s.store.Write(next); err != nil {
		logger.Errorf("Failed to save results: %v", err)
		return results, "", s.entryError(t, msgSaveFailed)
	}
	logger.Infof("Saved %s for %s", value, t)
	return next, fmt.Sprintf("Đã lưu %s cho %s.", value, meta.Label), nil
}

// entryError builds an EntryError, flagging it for a toast on every tier
// except consolation and on any trailing-digit clash.
func (s *LotteryService) entryError(t models.Tier, msg string) *EntryError {
	toast := t != models.TierConsolation || strings.HasPrefix(msg, suffixMsgPrefix)
	return &EntryError{Message: msg, Toast: s.toasts && toast}
}
