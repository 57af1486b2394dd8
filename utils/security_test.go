package utils_test

import (
	"strings"
	"testing"

	"gamecatalog/utils"

	"golang.org/x/crypto/bcrypt"
)

func TestCheckPasswordHash(t *testing.T) {
	password := "SecurePass123!"

	hash, err := utils.HashPassword(password, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to generate password hash: %v", err)
	}

	tests := []struct {
		name     string
		password string
		hash     string
		want     bool
	}{
		{
			name:     "Valid password should match hash",
			password: password,
			hash:     hash,
			want:     true,
		},
		{
			name:     "Invalid password should not match hash",
			password: "WrongPassword123!",
			hash:     hash,
			want:     false,
		},
		{
			name:     "Empty password should not match hash",
			password: "",
			hash:     hash,
			want:     false,
		},
		{
			name:     "Malformed hash never matches",
			password: password,
			hash:     "not-a-bcrypt-hash",
			want:     false,
		},
		{
			name:     "Empty hash never matches",
			password: password,
			hash:     "",
			want:     false,
		},
		{
			name:     "Plaintext stored as hash never matches",
			password: password,
			hash:     password,
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := utils.CheckPasswordHash(tt.password, tt.hash); got != tt.want {
				t.Errorf("CheckPasswordHash() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHashPasswordIsSalted(t *testing.T) {
	first, err := utils.HashPassword("secret1", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	second, err := utils.HashPassword("secret1", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	if first == second {
		t.Error("two hashes of the same password should differ")
	}
	if first == "secret1" || strings.Contains(first, "secret1") {
		t.Error("hash should not contain the plaintext")
	}
	if !utils.CheckPasswordHash("secret1", first) || !utils.CheckPasswordHash("secret1", second) {
		t.Error("both hashes should verify")
	}
}

func TestHashPasswordVerifiesOnlyItsOrigin(t *testing.T) {
	passwords := []string{
		"secret1",
		"Secret1",
		"secret1 ",
		"",
		"пароль-ünïcode",
		strings.Repeat("a", 72),
		strings.Repeat("a", 72) + "b",
		strings.Repeat("a", 72) + "c",
	}

	hashes := make([]string, len(passwords))
	for i, p := range passwords {
		h, err := utils.HashPassword(p, bcrypt.MinCost)
		if err != nil {
			t.Fatalf("HashPassword(%q) error = %v", p, err)
		}
		hashes[i] = h
	}

	for i, p := range passwords {
		for j, h := range hashes {
			want := i == j
			if got := utils.CheckPasswordHash(p, h); got != want {
				t.Errorf("CheckPasswordHash(%q, hash(%q)) = %v, want %v", p, passwords[j], got, want)
			}
		}
	}
}

func TestGenerateToken(t *testing.T) {
	a, err := utils.GenerateToken(32)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	b, err := utils.GenerateToken(32)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	if a == b {
		t.Error("tokens should be unique")
	}
	if len(a) != 44 {
		t.Errorf("len(GenerateToken(32)) = %d, want 44", len(a))
	}
}
