package auth

import (
	"strings"
	"testing"
)

func TestHashAndVerifyPIN(t *testing.T) {
	hash, err := HashPIN("4821")
	if err != nil {
		t.Fatalf("HashPIN failed: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$") {
		t.Errorf("unexpected hash format: %q", hash)
	}

	ok, err := VerifyPIN("4821", hash)
	if err != nil {
		t.Fatalf("VerifyPIN failed: %v", err)
	}
	if !ok {
		t.Error("correct PIN rejected")
	}

	ok, err = VerifyPIN("0000", hash)
	if err != nil {
		t.Fatalf("VerifyPIN failed: %v", err)
	}
	if ok {
		t.Error("wrong PIN accepted")
	}
}

func TestHashPIN_UniqueSalts(t *testing.T) {
	a, _ := HashPIN("4821")
	b, _ := HashPIN("4821")
	if a == b {
		t.Error("two hashes of the same PIN must differ by salt")
	}
}

func TestVerifyPIN_MalformedHash(t *testing.T) {
	for _, encoded := range []string{
		"",
		"plainhash",
		"$argon2i$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=1$c2FsdA$aGFzaA$extra",
		"$argon2id$v=19$m=bad,t=1,p=4$c2FsdA$aGFzaA",
	} {
		if _, err := VerifyPIN("4821", encoded); err == nil {
			t.Errorf("expected error for malformed hash %q", encoded)
		}
	}
}
