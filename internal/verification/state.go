// Package verification tracks per-value verification and per-flag dismissal
// for a letter under review, and derives whether the letter can be approved.
package verification

import (
	"strings"

	"cliniscribe/internal/domain"
)

// State holds the review state for one letter. Verified transitions false to
// true only; dismissal requires a reason and is irreversible. State is not
// safe for concurrent use; callers serialize access per letter.
type State struct {
	values []domain.VerifiableValue
	flags  []domain.HallucinationFlag
}

// NewState copies the given values and flags so the caller's slices are not
// mutated in place.
func NewState(values []domain.VerifiableValue, flags []domain.HallucinationFlag) *State {
	s := &State{
		values: make([]domain.VerifiableValue, len(values)),
		flags:  make([]domain.HallucinationFlag, len(flags)),
	}
	copy(s.values, values)
	copy(s.flags, flags)
	return s
}

// Verify marks a single value verified. Verifying an already-verified value
// is a no-op.
func (s *State) Verify(valueID string) error {
	for i := range s.values {
		if s.values[i].ID == valueID {
			s.values[i].Verified = true
			return nil
		}
	}
	return domain.ErrValueNotFound
}

// VerifyAll marks every value verified. Idempotent.
func (s *State) VerifyAll() {
	for i := range s.values {
		s.values[i].Verified = true
	}
}

// Dismiss marks a flag dismissed with the given reason. A blank reason is
// rejected with no state change.
func (s *State) Dismiss(flagID, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return domain.ErrEmptyDismissReason
	}
	for i := range s.flags {
		if s.flags[i].ID == flagID {
			s.flags[i].Dismissed = true
			s.flags[i].DismissedReason = reason
			return nil
		}
	}
	return domain.ErrFlagNotFound
}

// CanApprove reports whether every critical value is verified and every
// critical flag is dismissed. Non-critical values and warning flags never
// block approval.
func (s *State) CanApprove() bool {
	for _, v := range s.values {
		if v.Critical && !v.Verified {
			return false
		}
	}
	for _, f := range s.flags {
		if f.Severity == domain.FlagSeverityCritical && !f.Dismissed {
			return false
		}
	}
	return true
}

// VerificationRate is the fraction of values verified, in [0,1]. Defined as 1
// when there are no values.
func (s *State) VerificationRate() float64 {
	if len(s.values) == 0 {
		return 1
	}
	verified := 0
	for _, v := range s.values {
		if v.Verified {
			verified++
		}
	}
	return float64(verified) / float64(len(s.values))
}

// Values returns a copy of the current value state.
func (s *State) Values() []domain.VerifiableValue {
	out := make([]domain.VerifiableValue, len(s.values))
	copy(out, s.values)
	return out
}

// Flags returns a copy of the current flag state.
func (s *State) Flags() []domain.HallucinationFlag {
	out := make([]domain.HallucinationFlag, len(s.flags))
	copy(out, s.flags)
	return out
}
