package secrets

import (
	"fmt"
	"os"
	"strings"
)

// EnvLoader returns a Loader that reads the specified environment
// variables. Each VAR may instead be supplied as VAR_FILE naming a file
// whose trimmed contents hold the value, the convention container
// orchestrators use for mounted secrets. A set VAR wins over VAR_FILE.
// Missing variables are silently omitted from the result map; a VAR_FILE
// that cannot be read fails the load.
func EnvLoader(keys ...string) Loader {
	return func() (map[string]string, error) {
		vals := make(map[string]string, len(keys))
		for _, k := range keys {
			if v := os.Getenv(k); v != "" {
				vals[k] = v
				continue
			}
			path := os.Getenv(k + "_FILE")
			if path == "" {
				continue
			}
			b, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the operator's own environment
			if err != nil {
				return nil, fmt.Errorf("read secret file for %s: %w", k, err)
			}
			if v := strings.TrimSpace(string(b)); v != "" {
				vals[k] = v
			}
		}
		return vals, nil
	}
}
