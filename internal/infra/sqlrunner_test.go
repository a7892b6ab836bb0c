package infra

import (
	"strings"
	"testing"
)

func TestExtractMarker(t *testing.T) {
	marker, trimmed, err := extractMarker("--sql 44107716-63f2-4b43-a0b8-2e384f40bfc1\nSELECT 1")
	if err != nil {
		t.Fatalf("extractMarker() error: %v", err)
	}
	if marker != "44107716-63f2-4b43-a0b8-2e384f40bfc1" {
		t.Errorf("marker = %q", marker)
	}
	if strings.TrimSpace(trimmed) != "SELECT 1" {
		t.Errorf("trimmed = %q", trimmed)
	}
}

func TestExtractMarkerRejectsUnmarkedQueries(t *testing.T) {
	for _, query := range []string{
		"SELECT 1",
		"-- sql 44107716-63f2-4b43-a0b8-2e384f40bfc1\nSELECT 1",
		"--sql not-a-uuid\nSELECT 1",
		"",
	} {
		if _, _, err := extractMarker(query); err == nil {
			t.Errorf("extractMarker(%q) succeeded, want error", query)
		}
	}
}
