package internaldefs

import (
	"strings"
	"testing"

	"github.com/MrEthical07/skillsync/session"
)

func TestEveryCounterHasUniqueName(t *testing.T) {
	seen := make(map[string]bool)
	ids := make(map[int]bool)
	for _, def := range CounterDefs {
		if !strings.HasPrefix(def.Name, "skillsync_") || !strings.HasSuffix(def.Name, "_total") {
			t.Fatalf("bad counter name %q", def.Name)
		}
		if seen[def.Name] || ids[int(def.ID)] {
			t.Fatalf("duplicate counter %q", def.Name)
		}
		seen[def.Name] = true
		ids[int(def.ID)] = true
	}
}

func TestCumulativeBuckets(t *testing.T) {
	got := CumulativeBuckets(NormalizeBuckets([]uint64{1, 2, 3}))
	want := [8]uint64{1, 3, 6, 6, 6, 6, 6, 6}
	if got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestStateValueIsOneHot(t *testing.T) {
	snap := session.Snapshot{State: session.Anonymous}
	var total uint64
	for _, state := range SessionStates {
		total += StateValue(snap, state)
	}
	if total != 1 || StateValue(snap, session.Anonymous) != 1 {
		t.Fatalf("expected exactly the anonymous series set, total=%d", total)
	}
}
