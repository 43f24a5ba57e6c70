package blacklist

import (
	"os"
	"path/filepath"
	"testing"
)

func writeRules(t *testing.T, name string, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestIdentifierListMatching(t *testing.T) {
	path := writeRules(t, "default.txt", `
# moving hotspots
WLAN-Bus*
*_nomap
Telekom_ICE
00:1E:C1:AA:BB:CC
`)
	l := LoadIdentifierList(path, "")
	if l.Len() != 4 {
		t.Fatalf("loaded %d rules, want 4", l.Len())
	}

	for _, tc := range []struct {
		id   string
		want bool
	}{
		{"Telekom_ICE", true},
		{"telekom_ice", true}, // matching happens on the canonical upper case
		{"Telekom_ICE2", false},
		{"WLAN-Bus-4711", true},
		{"myhome_nomap", true},
		{"myhome_nomap2", false},
		{"00:1e:c1:aa:bb:cc", true},
		{"FreeWifi", false},
	} {
		if got := l.Contains(tc.id); got != tc.want {
			t.Errorf("Contains(%q) = %v, want %v", tc.id, got, tc.want)
		}
	}
}

func TestIdentifierListUnionsDefaultAndCustom(t *testing.T) {
	def := writeRules(t, "default.txt", "Telekom_ICE\n")
	custom := writeRules(t, "custom.txt", "myhomewifi\n")
	l := LoadIdentifierList(def, custom)

	if !l.Contains("Telekom_ICE") || !l.Contains("MYHOMEWIFI") {
		t.Error("rules from both lists must be active")
	}
}

func TestIdentifierListMissingFilesBlockNothing(t *testing.T) {
	l := LoadIdentifierList("/nonexistent/default.txt", "")
	if l.Len() != 0 {
		t.Fatalf("expected empty rule set, got %d rules", l.Len())
	}
	if l.Contains("anything") {
		t.Error("empty list must not block")
	}
}
