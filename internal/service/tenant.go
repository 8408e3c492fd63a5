// Package service implements business logic on top of ports.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	hrotel "github.com/homeroom-dev/homeroom/internal/adapter/otel"
	"github.com/homeroom-dev/homeroom/internal/domain"
	"github.com/homeroom-dev/homeroom/internal/domain/tenant"
	"github.com/homeroom-dev/homeroom/internal/port/cache"
	"github.com/homeroom-dev/homeroom/internal/port/messagequeue"
	"github.com/homeroom-dev/homeroom/internal/port/store"
)

// Cache keys are namespaced by lookup kind; values are tenant IDs.
// Dots separate, not colons, since the keys must also be valid in a
// JetStream KV bucket when the tiered cache is in play.
const (
	cacheKeyPrefix    = "key."
	cacheDomainPrefix = "domain."
)

// TenantService manages tenant lifecycle, auth keys, and resolution.
// Resolution results are cached as hints and revalidated against the
// store on every hit, so revocation and deactivation take effect
// immediately regardless of cache TTL.
type TenantService struct {
	store   store.TenantStore
	cache   cache.Cache
	queue   messagequeue.Queue
	metrics *hrotel.Metrics

	keyTTL   time.Duration
	cacheTTL time.Duration
}

// NewTenantService creates a new TenantService.
func NewTenantService(st store.TenantStore, c cache.Cache, q messagequeue.Queue, keyTTL, cacheTTL time.Duration) *TenantService {
	return &TenantService{store: st, cache: c, queue: q, keyTTL: keyTTL, cacheTTL: cacheTTL}
}

// SetMetrics sets the optional metric instruments.
func (s *TenantService) SetMetrics(m *hrotel.Metrics) { s.metrics = m }

// Create validates and provisions a new tenant with one freshly minted
// auth key.
func (s *TenantService) Create(ctx context.Context, name, domainName string) (*tenant.Tenant, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: tenant name is required", domain.ErrValidation)
	}
	if tenant.NormalizeDomain(domainName) == "" {
		return nil, fmt.Errorf("%w: tenant domain is required", domain.ErrValidation)
	}

	t, err := s.store.CreateTenant(ctx, name, domainName, s.keyTTL)
	if err != nil {
		return nil, err
	}

	s.publishTenantEvent(ctx, messagequeue.SubjectTenantCreated, t)
	if k := t.ValidAuthKey(time.Now().UTC()); k != nil {
		s.publishKeyEvent(ctx, messagequeue.SubjectKeyIssued, t.ID, k.CreatedAt)
		if s.metrics != nil {
			s.metrics.KeysIssued.Add(ctx, 1)
		}
	}

	slog.Info("tenant created", "tenant_id", t.ID, "domain", t.Domain)
	return t, nil
}

// Get returns the tenant by ID.
func (s *TenantService) Get(ctx context.Context, id string) (*tenant.Tenant, error) {
	return s.store.GetTenant(ctx, id)
}

// List returns the active tenants.
func (s *TenantService) List(ctx context.Context) ([]*tenant.Tenant, error) {
	return s.store.ListTenants(ctx)
}

// Deactivate disables the tenant, revoking every auth key. Cached
// hints for the revoked keys and the tenant's domain are dropped.
func (s *TenantService) Deactivate(ctx context.Context, id string) error {
	t, err := s.store.GetTenant(ctx, id)
	if err != nil {
		return err
	}
	keys := t.ValidAuthKeys(time.Now().UTC())

	if err := s.store.DeactivateTenant(ctx, id); err != nil {
		return err
	}

	for _, k := range keys {
		s.invalidate(ctx, cacheKeyPrefix+k.Key)
	}
	s.invalidate(ctx, cacheDomainPrefix+t.Domain)

	s.publishTenantEvent(ctx, messagequeue.SubjectTenantDeactivated, t)
	slog.Info("tenant deactivated", "tenant_id", t.ID, "keys_revoked", len(keys))
	return nil
}

// Reactivate re-enables the tenant. A fresh key is minted only when no
// valid key survived; it is returned alongside the tenant so the caller
// can hand it out exactly once.
func (s *TenantService) Reactivate(ctx context.Context, id string) (*tenant.Tenant, *tenant.AuthKey, error) {
	minted, err := s.store.ReactivateTenant(ctx, id, s.keyTTL)
	if err != nil {
		return nil, nil, err
	}
	t, err := s.store.GetTenant(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	s.publishTenantEvent(ctx, messagequeue.SubjectTenantReactivated, t)
	if minted != nil {
		s.publishKeyEvent(ctx, messagequeue.SubjectKeyIssued, t.ID, minted.CreatedAt)
		if s.metrics != nil {
			s.metrics.KeysIssued.Add(ctx, 1)
		}
	}
	slog.Info("tenant reactivated", "tenant_id", t.ID, "key_minted", minted != nil)
	return t, minted, nil
}

// GenerateKey mints an additional auth key for the tenant. A
// non-positive ttl falls back to the service default.
func (s *TenantService) GenerateKey(ctx context.Context, id string, ttl time.Duration) (*tenant.AuthKey, error) {
	if ttl <= 0 {
		ttl = s.keyTTL
	}
	k, err := s.store.GenerateAuthKey(ctx, id, ttl)
	if err != nil {
		return nil, err
	}

	s.publishKeyEvent(ctx, messagequeue.SubjectKeyIssued, id, k.CreatedAt)
	if s.metrics != nil {
		s.metrics.KeysIssued.Add(ctx, 1)
	}
	slog.Info("auth key issued", "tenant_id", id)
	return k, nil
}

// RevokeKey revokes the given key and drops its cached hint.
func (s *TenantService) RevokeKey(ctx context.Context, id, key string) error {
	keys, err := s.store.ListAuthKeys(ctx, id)
	if err != nil {
		return err
	}
	var createdAt time.Time
	for _, k := range keys {
		if k.Key == key {
			createdAt = k.CreatedAt
			break
		}
	}

	if err := s.store.RevokeAuthKey(ctx, id, key); err != nil {
		return err
	}
	s.invalidate(ctx, cacheKeyPrefix+key)

	s.publishKeyEvent(ctx, messagequeue.SubjectKeyRevoked, id, createdAt)
	if s.metrics != nil {
		s.metrics.KeysRevoked.Add(ctx, 1)
	}
	slog.Info("auth key revoked", "tenant_id", id)
	return nil
}

// ListKeys returns all of the tenant's keys, oldest first.
func (s *TenantService) ListKeys(ctx context.Context, id string) ([]*tenant.AuthKey, error) {
	return s.store.ListAuthKeys(ctx, id)
}

// ResolveByKey authenticates an auth key and returns its tenant. A
// cache hit is revalidated: the key must still be the tenant's current
// valid credential, exactly as the store would check.
func (s *TenantService) ResolveByKey(ctx context.Context, key string) (*tenant.Tenant, error) {
	ctx, span := hrotel.StartResolveSpan(ctx, "key")
	defer span.End()
	start := time.Now()

	if id, ok := s.cacheGet(ctx, cacheKeyPrefix+key); ok {
		t, err := s.store.GetTenant(ctx, id)
		if err == nil && t.Active {
			if k := t.ValidAuthKey(time.Now().UTC()); k != nil && k.Key == key {
				s.recordResolve(ctx, "key", start, nil)
				return t, nil
			}
		}
		s.invalidate(ctx, cacheKeyPrefix+key)
	}

	t, err := s.store.GetTenantByAuthKey(ctx, key)
	if err != nil {
		s.recordResolve(ctx, "key", start, err)
		return nil, err
	}
	s.cacheSet(ctx, cacheKeyPrefix+key, t.ID)
	s.recordResolve(ctx, "key", start, nil)
	return t, nil
}

// ResolveByDomain returns the active tenant serving the host, with any
// ":port" suffix stripped. A cache hit is revalidated so a deactivated
// tenant stops resolving as soon as the store says so.
func (s *TenantService) ResolveByDomain(ctx context.Context, host string) (*tenant.Tenant, error) {
	normalized := tenant.NormalizeDomain(host)

	ctx, span := hrotel.StartResolveSpan(ctx, "domain")
	defer span.End()
	start := time.Now()

	if id, ok := s.cacheGet(ctx, cacheDomainPrefix+normalized); ok {
		t, err := s.store.GetTenant(ctx, id)
		if err == nil && t.Active && t.Domain == normalized {
			s.recordResolve(ctx, "domain", start, nil)
			return t, nil
		}
		s.invalidate(ctx, cacheDomainPrefix+normalized)
	}

	t, err := s.store.GetTenantByDomain(ctx, normalized)
	if err != nil {
		s.recordResolve(ctx, "domain", start, err)
		return nil, err
	}
	s.cacheSet(ctx, cacheDomainPrefix+t.Domain, t.ID)
	s.recordResolve(ctx, "domain", start, nil)
	return t, nil
}

// ResolveByID returns the tenant by ID without checking activity; the
// caller decides how to treat an inactive tenant. IDs are not
// credentials, so this path is never cached.
func (s *TenantService) ResolveByID(ctx context.Context, id string) (*tenant.Tenant, error) {
	ctx, span := hrotel.StartResolveSpan(ctx, "id")
	defer span.End()
	start := time.Now()

	t, err := s.store.GetTenant(ctx, id)
	s.recordResolve(ctx, "id", start, err)
	return t, err
}

func (s *TenantService) recordResolve(ctx context.Context, source string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("resolve.source", source))
	s.metrics.ResolveDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	if err != nil {
		s.metrics.TenantsRejected.Add(ctx, 1, attrs)
		return
	}
	s.metrics.TenantsResolved.Add(ctx, 1, attrs)
}

// cacheGet returns the tenant ID hinted for the cache key. Cache errors
// count as misses.
func (s *TenantService) cacheGet(ctx context.Context, key string) (string, bool) {
	v, ok, err := s.cache.Get(ctx, key)
	if err != nil || !ok {
		return "", false
	}
	return string(v), true
}

func (s *TenantService) cacheSet(ctx context.Context, key, tenantID string) {
	if err := s.cache.Set(ctx, key, []byte(tenantID), s.cacheTTL); err != nil {
		slog.Debug("cache set failed", "key", key, "error", err)
	}
}

func (s *TenantService) invalidate(ctx context.Context, key string) {
	if err := s.cache.Delete(ctx, key); err != nil {
		slog.Debug("cache delete failed", "key", key, "error", err)
	}
}

func (s *TenantService) publishTenantEvent(ctx context.Context, subject string, t *tenant.Tenant) {
	data, err := json.Marshal(messagequeue.TenantLifecyclePayload{
		TenantID: t.ID,
		Name:     t.Name,
		Domain:   t.Domain,
	})
	if err != nil {
		slog.Error("marshal tenant event", "subject", subject, "error", err)
		return
	}
	if err := s.queue.Publish(ctx, subject, data); err != nil {
		// The store is already updated; events are advisory.
		slog.Error("failed to publish tenant event", "subject", subject, "tenant_id", t.ID, "error", err)
	}
}

func (s *TenantService) publishKeyEvent(ctx context.Context, subject, tenantID string, createdAt time.Time) {
	data, err := json.Marshal(messagequeue.KeyLifecyclePayload{
		TenantID:     tenantID,
		KeyCreatedAt: createdAt,
	})
	if err != nil {
		slog.Error("marshal key event", "subject", subject, "error", err)
		return
	}
	if err := s.queue.Publish(ctx, subject, data); err != nil {
		slog.Error("failed to publish key event", "subject", subject, "tenant_id", tenantID, "error", err)
	}
}
