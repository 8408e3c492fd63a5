// Package activity defines extracurricular activities and their rosters.
package activity

import (
	"fmt"

	"github.com/homeroom-dev/homeroom/internal/domain"
)

// Activity is a school activity with a capped participant roster. The
// roster is insertion-ordered and duplicate-free. Owner is the email of
// the staff member responsible for the activity.
type Activity struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule"`
	MaxParticipants int      `json:"max_participants"`
	Participants    []string `json:"participants"`
	Owner           string   `json:"owner"`
}

// Clone returns a copy with its own roster slice, safe to read without
// holding the store's lock.
func (a *Activity) Clone() *Activity {
	out := *a
	out.Participants = append([]string(nil), a.Participants...)
	return &out
}

// IsFull reports whether the roster reached MaxParticipants.
func (a *Activity) IsFull() bool {
	return len(a.Participants) >= a.MaxParticipants
}

// HasParticipant reports whether email is on the roster.
func (a *Activity) HasParticipant(email string) bool {
	for _, p := range a.Participants {
		if p == email {
			return true
		}
	}
	return false
}

// Add puts email on the roster. Duplicates and over-capacity signups are
// validation errors.
func (a *Activity) Add(email string) error {
	if a.HasParticipant(email) {
		return fmt.Errorf("%w: Student is already signed up", domain.ErrValidation)
	}
	if a.IsFull() {
		return fmt.Errorf("%w: Activity is at maximum capacity", domain.ErrValidation)
	}
	a.Participants = append(a.Participants, email)
	return nil
}

// Remove takes email off the roster. Removing an absent participant is a
// validation error.
func (a *Activity) Remove(email string) error {
	for i, p := range a.Participants {
		if p == email {
			a.Participants = append(a.Participants[:i], a.Participants[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: Student is not signed up for this activity", domain.ErrValidation)
}
