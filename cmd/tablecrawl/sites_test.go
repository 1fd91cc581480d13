package main

import (
	"strings"
	"testing"
)

// TestSitesCmd tests listing sites.
func TestSitesCmd(t *testing.T) {
	t.Parallel()

	configPath := newTestSite(t)

	stdout, _, err := execute(t, "sites", "-c", configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"pop", "follow", "Population by year", "debt", "flat", "worldometers", "national_debt", "Config: " + configPath} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, stdout)
		}
	}
}
