package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	hrotel "github.com/homeroom-dev/homeroom/internal/adapter/otel"
	"github.com/homeroom-dev/homeroom/internal/domain"
	"github.com/homeroom-dev/homeroom/internal/domain/activity"
	"github.com/homeroom-dev/homeroom/internal/port/messagequeue"
	"github.com/homeroom-dev/homeroom/internal/port/store"
)

// ActivityService manages extracurricular activities and their rosters.
type ActivityService struct {
	store   store.ActivityStore
	queue   messagequeue.Queue
	metrics *hrotel.Metrics
}

// NewActivityService creates a new ActivityService.
func NewActivityService(st store.ActivityStore, q messagequeue.Queue) *ActivityService {
	return &ActivityService{store: st, queue: q}
}

// SetMetrics sets the optional metric instruments.
func (s *ActivityService) SetMetrics(m *hrotel.Metrics) { s.metrics = m }

// List returns the tenant's activities sorted by name.
func (s *ActivityService) List(ctx context.Context, tenantID string) ([]*activity.Activity, error) {
	return s.store.ListActivities(ctx, tenantID)
}

// Get returns the tenant's activity by name.
func (s *ActivityService) Get(ctx context.Context, tenantID, name string) (*activity.Activity, error) {
	return s.store.GetActivity(ctx, tenantID, name)
}

// Put validates and registers an activity under the tenant, replacing
// any previous activity of the same name.
func (s *ActivityService) Put(ctx context.Context, tenantID string, a *activity.Activity) error {
	if a.Name == "" {
		return fmt.Errorf("%w: activity name is required", domain.ErrValidation)
	}
	if a.MaxParticipants <= 0 {
		return fmt.Errorf("%w: max participants must be positive", domain.ErrValidation)
	}
	return s.store.PutActivity(ctx, tenantID, a)
}

// SignUp adds email to the activity's roster and publishes the change.
func (s *ActivityService) SignUp(ctx context.Context, tenantID, activityName, email string) error {
	ctx, span := hrotel.StartRosterSpan(ctx, activityName, "signup")
	defer span.End()

	if err := s.store.SignUp(ctx, tenantID, activityName, email); err != nil {
		return err
	}

	s.publishRosterEvent(ctx, messagequeue.SubjectRosterSignup, tenantID, activityName, email)
	if s.metrics != nil {
		s.metrics.RosterSignups.Add(ctx, 1, metric.WithAttributes(
			attribute.String("activity.name", activityName),
		))
	}
	slog.Info("student signed up", "tenant_id", tenantID, "activity", activityName, "email", email)
	return nil
}

// Unregister removes email from the activity's roster and publishes
// the change.
func (s *ActivityService) Unregister(ctx context.Context, tenantID, activityName, email string) error {
	ctx, span := hrotel.StartRosterSpan(ctx, activityName, "unregister")
	defer span.End()

	if err := s.store.Unregister(ctx, tenantID, activityName, email); err != nil {
		return err
	}

	s.publishRosterEvent(ctx, messagequeue.SubjectRosterUnregister, tenantID, activityName, email)
	if s.metrics != nil {
		s.metrics.RosterRemovals.Add(ctx, 1, metric.WithAttributes(
			attribute.String("activity.name", activityName),
		))
	}
	slog.Info("student unregistered", "tenant_id", tenantID, "activity", activityName, "email", email)
	return nil
}

func (s *ActivityService) publishRosterEvent(ctx context.Context, subject, tenantID, activityName, email string) {
	data, err := json.Marshal(messagequeue.RosterChangePayload{
		TenantID: tenantID,
		Activity: activityName,
		Email:    email,
	})
	if err != nil {
		slog.Error("marshal roster event", "subject", subject, "error", err)
		return
	}
	if err := s.queue.Publish(ctx, subject, data); err != nil {
		slog.Error("failed to publish roster event", "subject", subject, "tenant_id", tenantID, "error", err)
	}
}
