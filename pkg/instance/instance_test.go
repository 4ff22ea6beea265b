package instance

import "testing"

func TestGetIDPrefersEnv(t *testing.T) {
	t.Setenv(IDEnv, "inventory-7")
	if got := GetID(); got != "inventory-7" {
		t.Fatalf("expected env id, got %q", got)
	}
}

func TestGetIDFallsBackToHost(t *testing.T) {
	t.Setenv(IDEnv, "")
	if got := GetID(); got == "" {
		t.Fatal("expected a non-empty id")
	}
}
