package auth

import "testing"

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatal("hash must not equal the plaintext")
	}

	if !VerifyPassword(hash, "correct horse battery staple") {
		t.Fatal("expected the original password to verify")
	}
	if VerifyPassword(hash, "wrong password") {
		t.Fatal("wrong password must not verify")
	}
	if VerifyPassword("", "anything") {
		t.Fatal("empty hash must not verify")
	}
}
