package messagequeue

import "time"

// TenantLifecyclePayload is the schema for tenants.created,
// tenants.deactivated, and tenants.reactivated messages.
type TenantLifecyclePayload struct {
	TenantID string `json:"tenant_id"`
	Name     string `json:"name"`
	Domain   string `json:"domain"`
}

// KeyLifecyclePayload is the schema for tenants.key.issued and
// tenants.key.revoked messages. Key material itself never goes on the
// wire; the creation timestamp identifies the key for audit purposes.
type KeyLifecyclePayload struct {
	TenantID     string    `json:"tenant_id"`
	KeyCreatedAt time.Time `json:"key_created_at"`
}

// RosterChangePayload is the schema for activities.signup and
// activities.unregister messages.
type RosterChangePayload struct {
	TenantID string `json:"tenant_id"`
	Activity string `json:"activity"`
	Email    string `json:"email"`
}
