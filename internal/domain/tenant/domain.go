package tenant

import "strings"

// NormalizeDomain canonicalizes a host for domain matching: any ":port"
// suffix is dropped and the result is lowercased. Browsers send
// "school.local:8080" in Host; tenants register "school.local".
func NormalizeDomain(host string) string {
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	return strings.ToLower(strings.TrimSpace(host))
}
