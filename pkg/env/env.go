package env

import "os"

// Get reads an environment variable, falling back when unset or empty.
// Empty values are treated as unset so a blank export does not silently
// override the default.
func Get(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	return val
}
