package domain

import (
	"sync"

	catalog "github.com/minilingo/minilingo/internal/catalog/domain"
)

// EntitlementChecker answers whether the current user already owns an
// offering. Implemented by the session's entitlement store.
type EntitlementChecker interface {
	IsEntitled(language string, level catalog.LevelCode) bool
}

// Selection is the user's in-progress checkout state: the offerings they
// have checked but not yet paid for. The purchasable set is disjoint from
// the entitlement set at all times; toggling an owned offering is a
// silent no-op and the entitlement check is repeated on every read in
// case ownership arrived mid-session.
type Selection struct {
	entitled EntitlementChecker

	mu     sync.Mutex
	picked map[catalog.Key]struct{}
	owned  map[catalog.Key]struct{} // display-only "already owned" marks
}

// NewSelection creates an empty selection bound to an entitlement store.
func NewSelection(entitled EntitlementChecker) *Selection {
	return &Selection{
		entitled: entitled,
		picked:   make(map[catalog.Key]struct{}),
		owned:    make(map[catalog.Key]struct{}),
	}
}

// Toggle flips selection membership for a (language, level-label) pair.
// Unknown labels return catalog.ErrUnknownLevel; offerings the user
// already owns are immutable in selection and the call is a no-op.
func (s *Selection) Toggle(language, levelLabel string) error {
	level, err := catalog.LevelFromLabel(levelLabel)
	if err != nil {
		return err
	}
	if s.entitled.IsEntitled(language, level) {
		return nil
	}

	key := catalog.Key{Language: language, Level: level}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.picked[key]; ok {
		delete(s.picked, key)
	} else {
		s.picked[key] = struct{}{}
	}
	return nil
}

// PreCheckOwned marks every currently entitled offering as checked for
// display. Owned marks never enter the purchasable set.
func (s *Selection) PreCheckOwned() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range catalog.Offerings() {
		if s.entitled.IsEntitled(o.Language, o.Level) {
			s.owned[o.Key()] = struct{}{}
		}
	}
}

// IsChecked reports whether the offering shows as checked in the UI,
// either picked by the user or pre-checked as owned.
func (s *Selection) IsChecked(language string, level catalog.LevelCode) bool {
	key := catalog.Key{Language: language, Level: level}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.picked[key]; ok {
		return true
	}
	_, ok := s.owned[key]
	return ok
}

// PurchasableSelections returns the authoritative cart: every picked
// offering the user does not own, in catalog order.
func (s *Selection) PurchasableSelections() []catalog.Offering {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]catalog.Offering, 0, len(s.picked))
	for _, o := range catalog.Offerings() {
		if _, ok := s.picked[o.Key()]; !ok {
			continue
		}
		if s.entitled.IsEntitled(o.Language, o.Level) {
			continue
		}
		out = append(out, o)
	}
	return out
}

// IsPurchasable reports whether the offering is in the purchasable set.
func (s *Selection) IsPurchasable(offering catalog.Offering) bool {
	for _, o := range s.PurchasableSelections() {
		if o.Key() == offering.Key() {
			return true
		}
	}
	return false
}

// ComputeTotal returns unitPrice times the purchasable count. Zero
// selections price to zero, which the caller treats as "nothing payable".
func (s *Selection) ComputeTotal(unitPrice int64) int64 {
	return unitPrice * int64(len(s.PurchasableSelections()))
}

// AllOfferingsEntitled reports whether the user owns the entire catalog,
// which permanently disables further purchase.
func (s *Selection) AllOfferingsEntitled() bool {
	for _, o := range catalog.Offerings() {
		if !s.entitled.IsEntitled(o.Language, o.Level) {
			return false
		}
	}
	return true
}

// Picked returns the raw picked keys, for persistence between CLI runs.
func (s *Selection) Picked() []catalog.Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]catalog.Key, 0, len(s.picked))
	for _, o := range catalog.Offerings() {
		if _, ok := s.picked[o.Key()]; ok {
			out = append(out, o.Key())
		}
	}
	return out
}

// Restore re-applies previously picked keys, dropping anything the user
// has since become entitled to.
func (s *Selection) Restore(keys []catalog.Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		if s.entitled.IsEntitled(key.Language, key.Level) {
			continue
		}
		if _, ok := catalog.OfferingFor(key.Language, key.Level); !ok {
			continue
		}
		s.picked[key] = struct{}{}
	}
}

// Clear drops all selection state. Called on logout.
func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.picked = make(map[catalog.Key]struct{})
	s.owned = make(map[catalog.Key]struct{})
}
