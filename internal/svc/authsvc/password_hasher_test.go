package authsvc_test

import (
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/mkrupp/simpletodo/internal/domain"
	"github.com/mkrupp/simpletodo/internal/svc/authsvc"
)

func TestPBKDF2Hasher_Hash(t *testing.T) {
	t.Parallel()

	hasher := authsvc.PBKDF2Hasher{}

	first, err := hasher.Hash("Password1!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	if !regexp.MustCompile(`^[0-9A-F]{64}-[0-9A-F]{32}$`).MatchString(first) {
		t.Errorf("hash %q is not HASH-SALT upper-case hex", first)
	}

	second, err := hasher.Hash("Password1!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	if first == second {
		t.Error("hashing the same password twice must use a fresh salt")
	}
}

func TestPBKDF2Hasher_HashRejectsBlank(t *testing.T) {
	t.Parallel()

	for _, password := range []string{"", "   ", "\t\n"} {
		_, err := authsvc.PBKDF2Hasher{}.Hash(password)
		if !errors.Is(err, authsvc.ErrEmptyPassword) {
			t.Errorf("Hash(%q) error = %v, want ErrEmptyPassword", password, err)
		}

		if domain.KindOf(err) != domain.KindValidation {
			t.Errorf("Hash(%q) kind = %v, want validation", password, domain.KindOf(err))
		}
	}
}

func TestPBKDF2Hasher_Verify(t *testing.T) {
	t.Parallel()

	hasher := authsvc.PBKDF2Hasher{}

	stored, err := hasher.Hash("correct horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	hashPart, saltPart, _ := strings.Cut(stored, "-")

	tests := []struct {
		name     string
		password string
		stored   string
		want     bool
	}{
		{"matching password", "correct horse", stored, true},
		{"wrong password", "battery staple", stored, false},
		{"case matters", "Correct horse", stored, false},
		{"lower-case stored hex", "correct horse", strings.ToLower(stored), true},
		{"missing separator", "correct horse", hashPart + saltPart, false},
		{"not hex", "correct horse", "zz-" + saltPart, false},
		{"truncated hash", "correct horse", hashPart[:10] + "-" + saltPart, false},
		{"empty salt", "correct horse", hashPart + "-", false},
		{"empty", "correct horse", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := hasher.Verify(tt.password, tt.stored); got != tt.want {
				t.Errorf("Verify() = %v, want %v", got, tt.want)
			}
		})
	}
}
