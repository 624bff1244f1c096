package cubefield

import "testing"

func TestRenderModeString(t *testing.T) {
	tests := []struct {
		mode RenderMode
		want string
	}{
		{ModeImmediate, "Immediate"},
		{ModeDeferred, "Deferred"},
		{ModeFrozen, "Frozen"},
		{RenderMode(42), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.want {
			t.Errorf("RenderMode(%d).String() = %q, want %q", int(tt.mode), got, tt.want)
		}
	}
}

func TestRenderModeNext(t *testing.T) {
	if ModeImmediate.Next() != ModeDeferred {
		t.Error("Immediate should cycle to Deferred")
	}
	if ModeDeferred.Next() != ModeFrozen {
		t.Error("Deferred should cycle to Frozen")
	}
	if ModeFrozen.Next() != ModeImmediate {
		t.Error("Frozen should cycle back to Immediate")
	}

	// The cycle must visit every mode exactly once.
	seen := map[RenderMode]bool{}
	m := ModeImmediate
	for i := 0; i < numModes; i++ {
		if seen[m] {
			t.Fatalf("mode %v visited twice", m)
		}
		seen[m] = true
		m = m.Next()
	}
	if m != ModeImmediate {
		t.Errorf("cycle of length %d did not return to start", numModes)
	}
}
