package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/homeroom-dev/homeroom/internal/domain"
	"github.com/homeroom-dev/homeroom/internal/domain/activity"
)

// PutActivity registers an activity under the tenant, replacing any
// previous activity of the same name.
func (s *Store) PutActivity(_ context.Context, tenantID string, a *activity.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.getTenantLocked(tenantID); err != nil {
		return err
	}
	if s.activities[tenantID] == nil {
		s.activities[tenantID] = make(map[string]*activity.Activity)
	}
	s.activities[tenantID][a.Name] = a.Clone()
	return nil
}

// GetActivity returns the tenant's activity by name.
func (s *Store) GetActivity(_ context.Context, tenantID, name string) (*activity.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.activities[tenantID][name]
	if !ok {
		return nil, fmt.Errorf("get activity %s: %w", name, domain.ErrNotFound)
	}
	return a.Clone(), nil
}

// ListActivities returns the tenant's activities sorted by name.
func (s *Store) ListActivities(_ context.Context, tenantID string) ([]*activity.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*activity.Activity, 0, len(s.activities[tenantID]))
	for _, a := range s.activities[tenantID] {
		out = append(out, a.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// SignUp adds email to the activity's roster. Duplicate and
// over-capacity signups fail with a validation error. The write lock
// spans the read-modify-write, so capacity cannot be oversubscribed by
// concurrent signups.
func (s *Store) SignUp(_ context.Context, tenantID, activityName, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.activities[tenantID][activityName]
	if !ok {
		return fmt.Errorf("sign up for %s: %w", activityName, domain.ErrNotFound)
	}
	return a.Add(email)
}

// Unregister removes email from the activity's roster.
func (s *Store) Unregister(_ context.Context, tenantID, activityName, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.activities[tenantID][activityName]
	if !ok {
		return fmt.Errorf("unregister from %s: %w", activityName, domain.ErrNotFound)
	}
	return a.Remove(email)
}
