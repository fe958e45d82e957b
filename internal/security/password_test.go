package security

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("admin123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	if NeedsRehash(hash) {
		t.Fatalf("fresh bcrypt hash should not need rehash")
	}

	if err := CheckPassword(hash, "admin123"); err != nil {
		t.Fatalf("expected match, got %v", err)
	}

	if err := CheckPassword(hash, "wrong"); err == nil {
		t.Fatalf("expected mismatch")
	}
}

func TestCheckPassword_LegacyBase64(t *testing.T) {
	// base64("admin123") as written by the old setup script
	legacy := "YWRtaW4xMjM="

	if !NeedsRehash(legacy) {
		t.Fatalf("legacy value should need rehash")
	}

	if err := CheckPassword(legacy, "admin123"); err != nil {
		t.Fatalf("expected legacy match, got %v", err)
	}

	if err := CheckPassword(legacy, "admin1234"); err != ErrMismatch {
		t.Fatalf("got %v, want ErrMismatch", err)
	}
}
