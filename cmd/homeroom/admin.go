package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"text/tabwriter"
	"time"

	"github.com/homeroom-dev/homeroom/internal/seed"
)

// runAdmin dispatches tenant admin subcommands against a running server.
// Tenant state lives in server memory, so the CLI talks HTTP rather than
// opening a store of its own.
func runAdmin(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printAdminHelp()
		return nil
	}

	switch args[0] {
	case "create-tenant":
		return runAdminCreateTenant(args[1:])
	case "list-tenants":
		return runAdminListTenants(args[1:])
	case "deactivate":
		return runAdminDeactivate(args[1:])
	case "reactivate":
		return runAdminReactivate(args[1:])
	case "mint-key":
		return runAdminMintKey(args[1:])
	case "revoke-key":
		return runAdminRevokeKey(args[1:])
	case "list-keys":
		return runAdminListKeys(args[1:])
	default:
		printAdminHelp()
		return fmt.Errorf("unknown admin command: %s", args[0])
	}
}

func printAdminHelp() {
	fmt.Fprintf(os.Stderr, `Usage: homeroom admin <command> [options]

Commands:
  create-tenant    Provision a new tenant (prints its first auth key)
  list-tenants     List active tenants
  deactivate       Deactivate a tenant and revoke all its auth keys
  reactivate       Reactivate a tenant (mints a key if none is valid)
  mint-key         Generate a new auth key for a tenant
  revoke-key       Revoke a single auth key
  list-keys        List a tenant's auth keys, revoked ones included
  help             Show this help message

Examples:
  homeroom admin create-tenant --name "Riverside High" --domain riverside.example.org
  homeroom admin list-tenants
  homeroom admin mint-key --id <tenant-id> --ttl 720h
  homeroom admin revoke-key --id <tenant-id> --key hrk_d698f1...
`)
}

// adminClient calls the tenant admin API. Every request carries
// X-Tenant-Domain, since the CLI connects by address and the server
// still needs to resolve the caller's tenant, and X-User-Email for
// the admin role check.
type adminClient struct {
	base   string
	email  string
	domain string
	hc     *http.Client
}

// newAdminFlagSet returns a FlagSet with the connection flags every
// subcommand shares, bound to a client.
func newAdminFlagSet(name string) (*flag.FlagSet, *adminClient) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	c := &adminClient{hc: &http.Client{Timeout: 10 * time.Second}}
	fs.StringVar(&c.base, "server", "http://localhost:8080", "base URL of the homeroom server")
	fs.StringVar(&c.email, "email", "admin@mergington.edu", "acting user email; must hold the admin role")
	fs.StringVar(&c.domain, "tenant-domain", seed.TenantDomain, "domain of the tenant the acting user belongs to")
	return fs, c
}

func (c *adminClient) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return err
	}
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-User-Email", c.email)
	req.Header.Set("X-Tenant-Domain", c.domain)

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("server: %s", apiErr.Error)
		}
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// tenantRow and keyRow mirror the admin API response shapes.
type tenantRow struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Domain    string    `json:"domain"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type keyRow struct {
	Key       string    `json:"key"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Active    bool      `json:"active"`
}

func runAdminCreateTenant(args []string) error {
	fs, client := newAdminFlagSet("create-tenant")
	name := fs.String("name", "", "tenant display name (required)")
	domain := fs.String("domain", "", "tenant domain, e.g. school.example.org (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *name == "" {
		return fmt.Errorf("--name is required")
	}
	if *domain == "" {
		return fmt.Errorf("--domain is required")
	}

	var out struct {
		Tenant  tenantRow `json:"tenant"`
		AuthKey *keyRow   `json:"auth_key"`
	}
	err := client.do(context.Background(), http.MethodPost, "/api/v1/admin/tenants",
		map[string]string{"name": *name, "domain": *domain}, &out)
	if err != nil {
		return fmt.Errorf("create tenant: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Tenant created: %s (id=%s, domain=%s)\n",
		out.Tenant.Name, out.Tenant.ID, out.Tenant.Domain)
	if out.AuthKey != nil {
		// The key goes to stdout so scripts can capture it.
		fmt.Println(out.AuthKey.Key)
	}
	return nil
}

func runAdminListTenants(args []string) error {
	fs, client := newAdminFlagSet("list-tenants")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var tenants []tenantRow
	if err := client.do(context.Background(), http.MethodGet, "/api/v1/admin/tenants", nil, &tenants); err != nil {
		return fmt.Errorf("list tenants: %w", err)
	}

	if len(tenants) == 0 {
		fmt.Println("No tenants found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tDOMAIN\tACTIVE\tCREATED")
	for i := range tenants {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n",
			tenants[i].ID, tenants[i].Name, tenants[i].Domain, tenants[i].Active,
			tenants[i].CreatedAt.Format(time.RFC3339))
	}
	return w.Flush()
}

func runAdminDeactivate(args []string) error {
	fs, client := newAdminFlagSet("deactivate")
	id := fs.String("id", "", "tenant id (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("--id is required")
	}

	var out tenantRow
	path := "/api/v1/admin/tenants/" + url.PathEscape(*id) + "/deactivate"
	if err := client.do(context.Background(), http.MethodPost, path, nil, &out); err != nil {
		return fmt.Errorf("deactivate tenant: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Tenant deactivated: %s (all auth keys revoked)\n", out.Name)
	return nil
}

func runAdminReactivate(args []string) error {
	fs, client := newAdminFlagSet("reactivate")
	id := fs.String("id", "", "tenant id (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("--id is required")
	}

	var out struct {
		Tenant  tenantRow `json:"tenant"`
		AuthKey *keyRow   `json:"auth_key"`
	}
	path := "/api/v1/admin/tenants/" + url.PathEscape(*id) + "/reactivate"
	if err := client.do(context.Background(), http.MethodPost, path, nil, &out); err != nil {
		return fmt.Errorf("reactivate tenant: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Tenant reactivated: %s\n", out.Tenant.Name)
	if out.AuthKey != nil {
		fmt.Println(out.AuthKey.Key)
	}
	return nil
}

func runAdminMintKey(args []string) error {
	fs, client := newAdminFlagSet("mint-key")
	id := fs.String("id", "", "tenant id (required)")
	ttl := fs.String("ttl", "", "key lifetime as a Go duration, e.g. 720h (default: server policy)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("--id is required")
	}

	var body any
	if *ttl != "" {
		body = map[string]string{"ttl": *ttl}
	}

	var out keyRow
	path := "/api/v1/admin/tenants/" + url.PathEscape(*id) + "/keys"
	if err := client.do(context.Background(), http.MethodPost, path, body, &out); err != nil {
		return fmt.Errorf("mint key: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Key minted, expires %s\n", out.ExpiresAt.Format(time.RFC3339))
	fmt.Println(out.Key)
	return nil
}

func runAdminRevokeKey(args []string) error {
	fs, client := newAdminFlagSet("revoke-key")
	id := fs.String("id", "", "tenant id (required)")
	key := fs.String("key", "", "auth key to revoke (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("--id is required")
	}
	if *key == "" {
		return fmt.Errorf("--key is required")
	}

	path := "/api/v1/admin/tenants/" + url.PathEscape(*id) + "/keys/" + url.PathEscape(*key)
	if err := client.do(context.Background(), http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("revoke key: %w", err)
	}
	fmt.Fprintln(os.Stderr, "Key revoked.")
	return nil
}

func runAdminListKeys(args []string) error {
	fs, client := newAdminFlagSet("list-keys")
	id := fs.String("id", "", "tenant id (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("--id is required")
	}

	var keys []keyRow
	path := "/api/v1/admin/tenants/" + url.PathEscape(*id) + "/keys"
	if err := client.do(context.Background(), http.MethodGet, path, nil, &keys); err != nil {
		return fmt.Errorf("list keys: %w", err)
	}

	if len(keys) == 0 {
		fmt.Println("No keys found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "KEY\tACTIVE\tCREATED\tEXPIRES")
	for i := range keys {
		_, _ = fmt.Fprintf(w, "%s\t%t\t%s\t%s\n",
			keys[i].Key, keys[i].Active,
			keys[i].CreatedAt.Format(time.RFC3339),
			keys[i].ExpiresAt.Format(time.RFC3339))
	}
	return w.Flush()
}
