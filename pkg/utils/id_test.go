package utils

import (
	"strconv"
	"strings"
	"testing"
)

func TestGenDraftIDFormat(t *testing.T) {
	id := GenDraftID()
	parts := strings.Split(id, "_")
	if len(parts) != 3 || parts[0] != "draft" {
		t.Fatalf("bad id shape: %s", id)
	}
	if _, err := strconv.ParseInt(parts[1], 10, 64); err != nil {
		t.Fatalf("millis segment not numeric: %s", id)
	}
	if parts[2] == "" {
		t.Fatalf("random segment empty: %s", id)
	}
}

func TestGenDraftIDUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		id := GenDraftID()
		if seen[id] {
			t.Fatalf("duplicate id: %s", id)
		}
		seen[id] = true
	}
}
