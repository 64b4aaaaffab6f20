package tests

import "testing"

// SkipWithoutEnv skips the test when the external service address is missing
func SkipWithoutEnv(t *testing.T, name string) string {
	t.Helper()
	value := getenv(name)
	if value == "" {
		t.Skipf("%s is not set, skipping", name)
	}

	return value
}
