package crypto

import (
	"bytes"
	"strings"
	"testing"
)

func TestRandBytes_LengthAndUniqueness(t *testing.T) {
	t.Parallel()

	const n = 64
	a, err := RandBytes(n)
	if err != nil {
		t.Fatalf("RandBytes: %v", err)
	}
	if len(a) != n {
		t.Fatalf("len=%d, want=%d", len(a), n)
	}
	b, err := RandBytes(n)
	if err != nil {
		t.Fatalf("RandBytes(2): %v", err)
	}
	if bytes.Equal(a, b) {
		t.Fatalf("two subsequent RandBytes(%d) are equal, looks non-random", n)
	}
}

func TestHashPassword_EncodingAndSalting(t *testing.T) {
	t.Parallel()

	h1, err := HashPassword("p@ssw0rd")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !strings.HasPrefix(h1, "argon2id$") {
		t.Fatalf("unexpected encoding: %q", h1)
	}
	if parts := strings.Split(h1, "$"); len(parts) != 3 {
		t.Fatalf("want 3 segments, got %d in %q", len(parts), h1)
	}

	h2, err := HashPassword("p@ssw0rd")
	if err != nil {
		t.Fatalf("HashPassword(2): %v", err)
	}
	if h1 == h2 {
		t.Fatalf("same password must hash differently with fresh salts")
	}
}

func TestVerifyPassword(t *testing.T) {
	t.Parallel()

	const pw = "correct horse battery staple"
	hash, err := HashPassword(pw)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	if !VerifyPassword(pw, hash) {
		t.Fatalf("VerifyPassword: expected true for correct password")
	}
	if VerifyPassword("wrong", hash) {
		t.Fatalf("VerifyPassword: expected false for wrong password")
	}
	if VerifyPassword("", hash) {
		t.Fatalf("VerifyPassword: expected false for empty password")
	}
}

func TestVerifyPassword_MalformedEncodings(t *testing.T) {
	t.Parallel()

	for _, enc := range []string{
		"",
		"argon2id",
		"argon2id$only-two",
		"bcrypt$abc$def",
		"argon2id$!!!$def",
		"argon2id$YWJj$!!!",
	} {
		if VerifyPassword("anything", enc) {
			t.Fatalf("VerifyPassword(%q): expected false", enc)
		}
	}
}
