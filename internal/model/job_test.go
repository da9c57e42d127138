package model

import "testing"

func TestExternalID_Deterministic(t *testing.T) {
	a := ExternalID(ProviderGreenhouse, "12345")
	b := ExternalID(ProviderGreenhouse, "12345")
	if a != b {
		t.Fatalf("ExternalID not stable: %q vs %q", a, b)
	}
	if a != "greenhouse:12345" {
		t.Errorf("ExternalID = %q, want greenhouse:12345", a)
	}
	if ExternalID(ProviderLever, "12345") == a {
		t.Error("different providers must not collide")
	}
}

func TestSyncDelta_Add(t *testing.T) {
	var total SyncDelta
	total.Add(SyncDelta{Created: 1, Updated: 2})
	total.Add(SyncDelta{Deactivated: 3})
	if total != (SyncDelta{Created: 1, Updated: 2, Deactivated: 3}) {
		t.Errorf("total = %+v", total)
	}
	if total.IsZero() {
		t.Error("expected non-zero delta")
	}
	if !(SyncDelta{}).IsZero() {
		t.Error("expected zero delta")
	}
}
