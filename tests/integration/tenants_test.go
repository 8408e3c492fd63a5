//go:build integration

package integration_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/homeroom-dev/homeroom/internal/port/messagequeue"
)

type tenantResp struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Domain string `json:"domain"`
	Active bool   `json:"active"`
}

type authKeyResp struct {
	Key    string `json:"key"`
	Active bool   `json:"active"`
}

// tenantEnvelope is the create/reactivate response shape. AuthKey is only
// present when the operation minted one.
type tenantEnvelope struct {
	Tenant  tenantResp   `json:"tenant"`
	AuthKey *authKeyResp `json:"auth_key"`
}

// keyReq issues a request that names its tenant only by auth key.
func keyReq(t *testing.T, key, path string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, testServer.URL+path, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("X-Tenant-Key", key)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

// idReq issues a request that names its tenant only by the unverified ID hint.
func idReq(t *testing.T, id, path string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, testServer.URL+path, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("X-Tenant-ID", id)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

func TestTenantAdminLifecycle(t *testing.T) {
	// 1. Provision a second school.
	body, _ := json.Marshal(map[string]string{
		"name":   "Lakeview Elementary",
		"domain": "lakeview.local",
	})
	resp := doReq(t, http.MethodPost, "/api/v1/admin/tenants", adminEmail, bytes.NewReader(body))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", resp.StatusCode)
	}
	created := decodeJSON[tenantEnvelope](t, resp)
	if created.Tenant.ID == "" {
		t.Fatal("expected non-empty tenant ID")
	}
	if !created.Tenant.Active {
		t.Error("expected new tenant to be active")
	}
	if created.AuthKey == nil || !strings.HasPrefix(created.AuthKey.Key, "hrk_") {
		t.Fatalf("expected initial auth key with hrk_ prefix, got %+v", created.AuthKey)
	}
	id := created.Tenant.ID
	firstKey := created.AuthKey.Key

	if !testQueue.contains(messagequeue.SubjectTenantCreated) {
		t.Error("expected a tenants.created event")
	}

	// 2. The initial key resolves the new tenant; its catalog starts empty.
	resp2 := keyReq(t, firstKey, "/api/v1/activities")
	if resp2.StatusCode != http.StatusOK {
		t.Fatalf("key resolution: expected 200, got %d", resp2.StatusCode)
	}
	acts := decodeJSON[map[string]any](t, resp2)
	if len(acts) != 0 {
		t.Errorf("expected empty catalog for new tenant, got %d activities", len(acts))
	}

	// 3. Admin fetch by ID.
	resp3 := doReq(t, http.MethodGet, "/api/v1/admin/tenants/"+id, adminEmail, nil)
	if resp3.StatusCode != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", resp3.StatusCode)
	}
	fetched := decodeJSON[tenantResp](t, resp3)
	if fetched.ID != id {
		t.Fatalf("expected ID %q, got %q", id, fetched.ID)
	}

	// 4. Deactivation revokes every key.
	resp4 := doReq(t, http.MethodPost, "/api/v1/admin/tenants/"+id+"/deactivate", adminEmail, nil)
	if resp4.StatusCode != http.StatusOK {
		t.Fatalf("deactivate: expected 200, got %d", resp4.StatusCode)
	}
	deactivated := decodeJSON[tenantResp](t, resp4)
	if deactivated.Active {
		t.Error("expected tenant to be inactive after deactivation")
	}
	if !testQueue.contains(messagequeue.SubjectTenantDeactivated) {
		t.Error("expected a tenants.deactivated event")
	}

	// The revoked key no longer names a tenant at all.
	resp5 := keyReq(t, firstKey, "/api/v1/activities")
	if resp5.StatusCode != http.StatusUnauthorized {
		t.Errorf("revoked key: expected 401, got %d", resp5.StatusCode)
	}
	_ = resp5.Body.Close()

	// The unverified ID hint still finds the record, and the active
	// gate rejects it.
	resp6 := idReq(t, id, "/api/v1/activities")
	if resp6.StatusCode != http.StatusForbidden {
		t.Errorf("inactive tenant by ID: expected 403, got %d", resp6.StatusCode)
	}
	_ = resp6.Body.Close()

	// 5. Reactivation mints a fresh key since none survived.
	resp7 := doReq(t, http.MethodPost, "/api/v1/admin/tenants/"+id+"/reactivate", adminEmail, nil)
	if resp7.StatusCode != http.StatusOK {
		t.Fatalf("reactivate: expected 200, got %d", resp7.StatusCode)
	}
	reactivated := decodeJSON[tenantEnvelope](t, resp7)
	if !reactivated.Tenant.Active {
		t.Error("expected tenant to be active after reactivation")
	}
	if reactivated.AuthKey == nil {
		t.Fatal("expected a fresh auth key after reactivation")
	}
	newKey := reactivated.AuthKey.Key
	if newKey == firstKey {
		t.Error("expected a fresh key, got the revoked one back")
	}
	if !testQueue.contains(messagequeue.SubjectTenantReactivated) {
		t.Error("expected a tenants.reactivated event")
	}

	// Old key stays dead; the new one works.
	resp8 := keyReq(t, firstKey, "/api/v1/activities")
	if resp8.StatusCode != http.StatusUnauthorized {
		t.Errorf("old key after reactivation: expected 401, got %d", resp8.StatusCode)
	}
	_ = resp8.Body.Close()

	resp9 := keyReq(t, newKey, "/api/v1/activities")
	if resp9.StatusCode != http.StatusOK {
		t.Errorf("new key: expected 200, got %d", resp9.StatusCode)
	}
	_ = resp9.Body.Close()

	// 6. Reactivating an already active tenant mints nothing.
	resp10 := doReq(t, http.MethodPost, "/api/v1/admin/tenants/"+id+"/reactivate", adminEmail, nil)
	if resp10.StatusCode != http.StatusOK {
		t.Fatalf("second reactivate: expected 200, got %d", resp10.StatusCode)
	}
	again := decodeJSON[tenantEnvelope](t, resp10)
	if again.AuthKey != nil {
		t.Error("expected no new key while a valid one exists")
	}
}

func TestSeedKeyResolvesDemoTenant(t *testing.T) {
	if seedAuthKey == "" {
		t.Fatal("expected the demo tenant to carry an initial auth key")
	}

	resp := keyReq(t, seedAuthKey, "/api/v1/activities")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	catalog := decodeJSON[map[string]any](t, resp)
	if _, ok := catalog["Chess Club"]; !ok {
		t.Error("expected the seeded catalog, Chess Club missing")
	}
}

func TestListTenantsIncludesDemo(t *testing.T) {
	resp := doReq(t, http.MethodGet, "/api/v1/admin/tenants", adminEmail, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", resp.StatusCode)
	}

	tenants := decodeJSON[[]tenantResp](t, resp)
	found := false
	for _, tn := range tenants {
		if tn.ID == seedTenantID {
			found = true
			if tn.Domain != "mergington.local" {
				t.Errorf("demo tenant domain = %q", tn.Domain)
			}
		}
	}
	if !found {
		t.Error("expected the demo tenant in the listing")
	}
}

func TestCreateTenantValidation(t *testing.T) {
	cases := []struct {
		name string
		body map[string]string
		want int
	}{
		{"missing name", map[string]string{"domain": "noname.local"}, http.StatusBadRequest},
		{"missing domain", map[string]string{"name": "No Domain High"}, http.StatusBadRequest},
		{"duplicate domain", map[string]string{"name": "Clone High", "domain": "mergington.local"}, http.StatusConflict},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, _ := json.Marshal(tc.body)
			resp := doReq(t, http.MethodPost, "/api/v1/admin/tenants", adminEmail, bytes.NewReader(body))
			defer func() { _ = resp.Body.Close() }()
			if resp.StatusCode != tc.want {
				t.Errorf("expected %d, got %d", tc.want, resp.StatusCode)
			}
		})
	}
}

func TestTenantAdminRequiresAdmin(t *testing.T) {
	body, _ := json.Marshal(map[string]string{"name": "Sneaky High", "domain": "sneaky.local"})

	// Anonymous callers get 401.
	resp := doReq(t, http.MethodPost, "/api/v1/admin/tenants", "", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("anonymous: expected 401, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	// Teachers are identified but lack the admin role.
	resp2 := doReq(t, http.MethodPost, "/api/v1/admin/tenants", teacherEmail, bytes.NewReader(body))
	if resp2.StatusCode != http.StatusForbidden {
		t.Errorf("teacher: expected 403, got %d", resp2.StatusCode)
	}
	_ = resp2.Body.Close()
}

func TestGetNonexistentTenant(t *testing.T) {
	resp := doReq(t, http.MethodGet, "/api/v1/admin/tenants/00000000-0000-0000-0000-000000000000", adminEmail, nil)
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
