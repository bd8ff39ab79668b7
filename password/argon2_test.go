package password

import (
	"strings"
	"testing"
)

func secureConfig() Config {
	return Config{
		Memory:      65536,
		Time:        3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func TestHashAndCompare(t *testing.T) {
	hasher, err := NewHasher(secureConfig())
	if err != nil {
		t.Fatalf("NewHasher error: %v", err)
	}

	hash, err := hasher.Hash("Secret12345!")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	if !strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=3,p=2$") {
		t.Fatalf("unexpected PHC prefix: %s", hash)
	}

	if !hasher.Compare("Secret12345!", hash) {
		t.Fatal("expected password comparison to succeed")
	}
}

func TestCompareWrongPassword(t *testing.T) {
	hasher, err := NewHasher(secureConfig())
	if err != nil {
		t.Fatalf("NewHasher error: %v", err)
	}

	hash, err := hasher.Hash("correct-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	if hasher.Compare("wrong-password", hash) {
		t.Fatal("expected wrong password comparison to fail")
	}
}

func TestHashesAreSalted(t *testing.T) {
	hasher, err := NewHasher(secureConfig())
	if err != nil {
		t.Fatalf("NewHasher error: %v", err)
	}

	first, err := hasher.Hash("same-password-input")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	second, err := hasher.Hash("same-password-input")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	if first == second {
		t.Fatal("expected distinct encodings for repeated hashes of the same input")
	}
	if !hasher.Compare("same-password-input", first) || !hasher.Compare("same-password-input", second) {
		t.Fatal("expected both encodings to verify")
	}
}

func TestCompareMalformedHashIsFalse(t *testing.T) {
	hasher, err := NewHasher(secureConfig())
	if err != nil {
		t.Fatalf("NewHasher error: %v", err)
	}

	malformed := []string{
		"",
		"not-a-phc-string",
		"$argon2id$v=19$m=65536,t=3,p=2$!!!$AAAA",
		"$bcrypt$v=19$m=65536,t=3,p=2$c2FsdHNhbHRzYWx0c2FsdA$AAAA",
		"$argon2id$v=18$m=65536,t=3,p=2$c2FsdHNhbHRzYWx0c2FsdA$AAAA",
		"$argon2id$v=19$m=1,t=3,p=2$c2FsdHNhbHRzYWx0c2FsdA$AAAA",
	}

	for _, encoded := range malformed {
		if hasher.Compare("anything", encoded) {
			t.Fatalf("expected Compare to return false for malformed hash %q", encoded)
		}
	}
}

func TestNewHasherRejectsWeakParameters(t *testing.T) {
	weak := []Config{
		{Memory: 1024, Time: 3, Parallelism: 2, SaltLength: 16, KeyLength: 32},
		{Memory: 65536, Time: 0, Parallelism: 2, SaltLength: 16, KeyLength: 32},
		{Memory: 65536, Time: 3, Parallelism: 0, SaltLength: 16, KeyLength: 32},
		{Memory: 65536, Time: 3, Parallelism: 2, SaltLength: 8, KeyLength: 32},
		{Memory: 65536, Time: 3, Parallelism: 2, SaltLength: 16, KeyLength: 8},
	}

	for i, cfg := range weak {
		if _, err := NewHasher(cfg); err == nil {
			t.Fatalf("case %d: expected weak config to be rejected", i)
		}
	}
}
