package security_test

import (
	"errors"
	"testing"

	"github.com/angelmondragon/inventory-backend/pkg/config"
	"github.com/angelmondragon/inventory-backend/pkg/security"
)

func TestHashAndVerifyPassword(t *testing.T) {
	cfg := config.PasswordConfig{
		ArgonMemoryKB:    32768,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}

	hash, err := security.HashPassword("very-secure-password", cfg)
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if hash == "" {
		t.Fatal("HashPassword returned empty string")
	}

	ok, err := security.VerifyPassword("very-secure-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for valid hash: %v", err)
	}
	if !ok {
		t.Fatal("VerifyPassword failed for the correct password")
	}

	ok, err = security.VerifyPassword("bogus-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for invalid password: %v", err)
	}
	if ok {
		t.Fatal("VerifyPassword returned true for incorrect password")
	}
}

func TestVerifyPasswordBadHash(t *testing.T) {
	if _, err := security.VerifyPassword("irrelevant", "not-a-hash"); err == nil {
		t.Fatal("expected error for malformed hash")
	}
}

func TestCheckPasswordPolicy(t *testing.T) {
	cases := []struct {
		name     string
		password string
		identity []string
		wantOK   bool
	}{
		{name: "strong", password: "tidy-shelf-42", identity: []string{"alice", "alice@example.com"}, wantOK: true},
		{name: "short", password: "a1b2", wantOK: false},
		{name: "numeric", password: "1234567890", wantOK: false},
		{name: "common", password: "Password1", wantOK: false},
		{name: "contains username", password: "alice-rocks-99", identity: []string{"alice"}, wantOK: false},
		{name: "contains email local part", password: "xx-bob.smith-xx", identity: []string{"bob.smith@example.com"}, wantOK: false},
	}
	for _, tc := range cases {
		problems := security.CheckPasswordPolicy(tc.password, tc.identity...)
		if got := len(problems) == 0; got != tc.wantOK {
			t.Fatalf("%s: expected ok=%v, got problems %v", tc.name, tc.wantOK, problems)
		}
	}
}

func TestVerifyPasswordRejectsForeignFormats(t *testing.T) {
	for _, encoded := range []string{
		"$argon2i$v=19$m=8,t=1,p=1$c2FsdHNhbHQ$a2V5a2V5a2V5a2V5",
		"$argon2id$v=16$m=8,t=1,p=1$c2FsdHNhbHQ$a2V5a2V5a2V5a2V5",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdHNhbHQ$a2V5a2V5a2V5a2V5",
		"$argon2id$v=19$m=8,t=1,p=1$c2FsdHNhbHQ$",
	} {
		if _, err := security.VerifyPassword("pw", encoded); !errors.Is(err, security.ErrInvalidHash) {
			t.Fatalf("%s: expected ErrInvalidHash, got %v", encoded, err)
		}
	}
}

func TestNeedsRehashOnlyUpgrades(t *testing.T) {
	weak := config.PasswordConfig{ArgonMemoryKB: 8, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 8, ArgonKeyLen: 16}
	strong := config.PasswordConfig{ArgonMemoryKB: 64, ArgonTime: 2, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}

	weakHash, err := security.HashPassword("tidy-shelf-42", weak)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	strongHash, err := security.HashPassword("tidy-shelf-42", strong)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	if !security.NeedsRehash(weakHash, strong) {
		t.Fatal("expected weak hash to need an upgrade")
	}
	if security.NeedsRehash(strongHash, strong) {
		t.Fatal("hash at target cost should not be rehashed")
	}
	if security.NeedsRehash(strongHash, weak) {
		t.Fatal("hashes must never be downgraded")
	}
	if security.NeedsRehash("not-a-hash", strong) {
		t.Fatal("malformed hashes are left to VerifyPassword")
	}
}
