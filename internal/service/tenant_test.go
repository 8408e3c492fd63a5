package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/homeroom-dev/homeroom/internal/adapter/memory"
	"github.com/homeroom-dev/homeroom/internal/domain"
	"github.com/homeroom-dev/homeroom/internal/port/messagequeue"
)

// mockQueue implements messagequeue.Queue for testing.
type mockQueue struct {
	published []struct {
		subject string
		data    []byte
	}
	publishErr error
}

func (q *mockQueue) Publish(_ context.Context, subject string, data []byte) error {
	if q.publishErr != nil {
		return q.publishErr
	}
	q.published = append(q.published, struct {
		subject string
		data    []byte
	}{subject, data})
	return nil
}

func (q *mockQueue) Subscribe(_ context.Context, _ string, _ messagequeue.Handler) (func(), error) {
	return func() {}, nil
}

func (q *mockQueue) Close() error      { return nil }
func (q *mockQueue) IsConnected() bool { return true }

func (q *mockQueue) subjects() []string {
	out := make([]string, len(q.published))
	for i, p := range q.published {
		out[i] = p.subject
	}
	return out
}

// stubCache is a deterministic map-backed cache.
type stubCache struct {
	mu sync.Mutex
	m  map[string][]byte
}

func newStubCache() *stubCache { return &stubCache{m: make(map[string][]byte)} }

func (c *stubCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[key]
	return v, ok, nil
}

func (c *stubCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = value
	return nil
}

func (c *stubCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, key)
	return nil
}

func (c *stubCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.m[key]
	return ok
}

// --- TenantService Tests ---

func TestTenantServiceCreate(t *testing.T) {
	queue := &mockQueue{}
	svc := NewTenantService(memory.New(), newStubCache(), queue, 0, time.Minute)

	tn, err := svc.Create(context.Background(), "Mergington High School", "Mergington.LOCAL:8080")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tn.Domain != "mergington.local" {
		t.Fatalf("expected normalized domain, got %q", tn.Domain)
	}
	if tn.ValidAuthKey(time.Now().UTC()) == nil {
		t.Fatal("expected a valid initial auth key")
	}

	want := []string{messagequeue.SubjectTenantCreated, messagequeue.SubjectKeyIssued}
	if got := queue.subjects(); !slices.Equal(got, want) {
		t.Fatalf("published subjects = %v, want %v", got, want)
	}

	var payload messagequeue.TenantLifecyclePayload
	if err := json.Unmarshal(queue.published[0].data, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.TenantID != tn.ID || payload.Domain != "mergington.local" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestTenantServiceCreateValidation(t *testing.T) {
	svc := NewTenantService(memory.New(), newStubCache(), &mockQueue{}, 0, time.Minute)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "", "a.local"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("empty name = %v, want ErrValidation", err)
	}
	if _, err := svc.Create(ctx, "A", "  "); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("blank domain = %v, want ErrValidation", err)
	}

	if _, err := svc.Create(ctx, "A", "a.local"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, "B", "a.local"); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("duplicate domain = %v, want ErrConflict", err)
	}
}

func TestTenantServiceCreatePublishFailure(t *testing.T) {
	// A queue outage must not fail tenant provisioning.
	queue := &mockQueue{publishErr: errors.New("nats down")}
	svc := NewTenantService(memory.New(), newStubCache(), queue, 0, time.Minute)

	tn, err := svc.Create(context.Background(), "A", "a.local")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !tn.Active {
		t.Fatal("expected an active tenant despite queue failure")
	}
}

func TestTenantServiceKeyEventsOmitKeyMaterial(t *testing.T) {
	queue := &mockQueue{}
	svc := NewTenantService(memory.New(), newStubCache(), queue, 0, time.Minute)
	ctx := context.Background()

	tn, err := svc.Create(ctx, "A", "a.local")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	initial := tn.ValidAuthKey(time.Now().UTC())
	extra, err := svc.GenerateKey(ctx, tn.ID, time.Hour)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	for _, p := range queue.published {
		for _, secret := range []string{initial.Key, extra.Key} {
			if bytes.Contains(p.data, []byte(secret)) {
				t.Fatalf("key material leaked into %s payload", p.subject)
			}
		}
	}
}

func TestTenantServiceResolveByKey(t *testing.T) {
	queue := &mockQueue{}
	cache := newStubCache()
	svc := NewTenantService(memory.New(), cache, queue, 0, time.Minute)
	ctx := context.Background()

	tn, _ := svc.Create(ctx, "A", "a.local")
	key := tn.ValidAuthKey(time.Now().UTC()).Key

	got, err := svc.ResolveByKey(ctx, key)
	if err != nil {
		t.Fatalf("ResolveByKey: %v", err)
	}
	if got.ID != tn.ID {
		t.Fatalf("resolved %s, want %s", got.ID, tn.ID)
	}
	if !cache.has("key." + key) {
		t.Fatal("expected hint cached after resolution")
	}

	// The cached hint serves subsequent lookups.
	if _, err := svc.ResolveByKey(ctx, key); err != nil {
		t.Fatalf("ResolveByKey (cached): %v", err)
	}

	if _, err := svc.ResolveByKey(ctx, "hrk_bogus"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown key = %v, want ErrNotFound", err)
	}
}

func TestTenantServiceResolveByKeyStaleHint(t *testing.T) {
	queue := &mockQueue{}
	cache := newStubCache()
	svc := NewTenantService(memory.New(), cache, queue, 0, time.Minute)
	ctx := context.Background()

	tn, _ := svc.Create(ctx, "A", "a.local")
	second, err := svc.GenerateKey(ctx, tn.ID, time.Hour)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	// Plant a hint for the newer key. Revalidation must reject it: the
	// older key is still the tenant's current credential.
	cache.Set(ctx, "key."+second.Key, []byte(tn.ID), time.Minute)

	if _, err := svc.ResolveByKey(ctx, second.Key); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("newer key resolve = %v, want ErrNotFound while older key is valid", err)
	}
	if cache.has("key." + second.Key) {
		t.Fatal("expected stale hint dropped")
	}
}

func TestTenantServiceResolveByDomain(t *testing.T) {
	queue := &mockQueue{}
	cache := newStubCache()
	svc := NewTenantService(memory.New(), cache, queue, 0, time.Minute)
	ctx := context.Background()

	tn, _ := svc.Create(ctx, "A", "a.local")

	got, err := svc.ResolveByDomain(ctx, "A.LOCAL:8080")
	if err != nil {
		t.Fatalf("ResolveByDomain: %v", err)
	}
	if got.ID != tn.ID {
		t.Fatalf("resolved %s, want %s", got.ID, tn.ID)
	}
	if !cache.has("domain.a.local") {
		t.Fatal("expected hint cached under the normalized domain")
	}

	if _, err := svc.ResolveByDomain(ctx, "b.local"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown domain = %v, want ErrNotFound", err)
	}
}

func TestTenantServiceDeactivateInvalidatesHints(t *testing.T) {
	queue := &mockQueue{}
	cache := newStubCache()
	svc := NewTenantService(memory.New(), cache, queue, 0, time.Minute)
	ctx := context.Background()

	tn, _ := svc.Create(ctx, "A", "a.local")
	key := tn.ValidAuthKey(time.Now().UTC()).Key

	if _, err := svc.ResolveByKey(ctx, key); err != nil {
		t.Fatalf("ResolveByKey: %v", err)
	}
	if _, err := svc.ResolveByDomain(ctx, "a.local"); err != nil {
		t.Fatalf("ResolveByDomain: %v", err)
	}

	if err := svc.Deactivate(ctx, tn.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	if cache.has("key."+key) || cache.has("domain.a.local") {
		t.Fatal("expected hints dropped on deactivation")
	}
	if _, err := svc.ResolveByKey(ctx, key); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("revoked key resolve = %v, want ErrNotFound", err)
	}
	if _, err := svc.ResolveByDomain(ctx, "a.local"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("inactive domain resolve = %v, want ErrNotFound", err)
	}

	// Inactive tenants stay reachable by ID for admin reactivation.
	got, err := svc.ResolveByID(ctx, tn.ID)
	if err != nil {
		t.Fatalf("ResolveByID: %v", err)
	}
	if got.Active {
		t.Fatal("expected inactive tenant")
	}
}

func TestTenantServiceReactivateMintsWhenNeeded(t *testing.T) {
	queue := &mockQueue{}
	svc := NewTenantService(memory.New(), newStubCache(), queue, 0, time.Minute)
	ctx := context.Background()

	tn, _ := svc.Create(ctx, "A", "a.local")
	if err := svc.Deactivate(ctx, tn.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	got, minted, err := svc.Reactivate(ctx, tn.ID)
	if err != nil {
		t.Fatalf("Reactivate: %v", err)
	}
	if !got.Active {
		t.Fatal("expected active tenant")
	}
	if minted == nil {
		t.Fatal("expected a minted key after deactivation revoked all keys")
	}
	if _, err := svc.ResolveByKey(ctx, minted.Key); err != nil {
		t.Fatalf("minted key resolve: %v", err)
	}

	// A second reactivation finds a valid key and mints nothing.
	_, minted, err = svc.Reactivate(ctx, tn.ID)
	if err != nil {
		t.Fatalf("Reactivate (second): %v", err)
	}
	if minted != nil {
		t.Fatal("expected no key minted while a valid key exists")
	}
}

func TestTenantServiceRevokeKey(t *testing.T) {
	queue := &mockQueue{}
	cache := newStubCache()
	svc := NewTenantService(memory.New(), cache, queue, 0, time.Minute)
	ctx := context.Background()

	tn, _ := svc.Create(ctx, "A", "a.local")
	initial := tn.ValidAuthKey(time.Now().UTC())
	if _, err := svc.ResolveByKey(ctx, initial.Key); err != nil {
		t.Fatalf("ResolveByKey: %v", err)
	}

	if err := svc.RevokeKey(ctx, tn.ID, initial.Key); err != nil {
		t.Fatalf("RevokeKey: %v", err)
	}
	if cache.has("key." + initial.Key) {
		t.Fatal("expected revoked key hint dropped")
	}
	if _, err := svc.ResolveByKey(ctx, initial.Key); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("revoked key resolve = %v, want ErrNotFound", err)
	}

	// The revocation event names the key by creation time, not value.
	last := queue.published[len(queue.published)-1]
	if last.subject != messagequeue.SubjectKeyRevoked {
		t.Fatalf("last subject = %s, want %s", last.subject, messagequeue.SubjectKeyRevoked)
	}
	var payload messagequeue.KeyLifecyclePayload
	if err := json.Unmarshal(last.data, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if !payload.KeyCreatedAt.Equal(initial.CreatedAt) {
		t.Fatalf("payload created_at = %v, want %v", payload.KeyCreatedAt, initial.CreatedAt)
	}

	if err := svc.RevokeKey(ctx, tn.ID, "hrk_missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("revoke unknown key = %v, want ErrNotFound", err)
	}
}

func TestTenantServiceGenerateKeyDefaultTTL(t *testing.T) {
	svc := NewTenantService(memory.New(), newStubCache(), &mockQueue{}, time.Hour, time.Minute)
	ctx := context.Background()

	tn, _ := svc.Create(ctx, "A", "a.local")
	k, err := svc.GenerateKey(ctx, tn.ID, 0)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	ttl := time.Until(k.ExpiresAt)
	if ttl < 55*time.Minute || ttl > 65*time.Minute {
		t.Fatalf("default ttl = %v, want about 1h", ttl)
	}
}
