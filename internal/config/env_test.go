package config

import (
	"os"
	"testing"
)

// unsetEnv removes key for the duration of the test and restores it afterwards.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		original, ok := os.LookupEnv(key)
		_ = os.Unsetenv(key)
		k := key
		t.Cleanup(func() {
			if ok {
				_ = os.Setenv(k, original)
			} else {
				_ = os.Unsetenv(k)
			}
		})
	}
}
