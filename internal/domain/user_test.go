package domain_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/mkrupp/simpletodo/internal/domain"
)

func TestNewUser(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		username string
		hash     string
		wantErr  error
	}{
		{name: "valid user", username: "alice", hash: "AB-CD", wantErr: nil},
		{name: "empty username", username: "", hash: "AB-CD", wantErr: domain.ErrEmptyUsername},
		{name: "whitespace username", username: "   ", hash: "AB-CD", wantErr: domain.ErrEmptyUsername},
		{name: "empty hash", username: "alice", hash: "", wantErr: domain.ErrEmptyPasswordHash},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			user, err := domain.NewUser(tt.username, tt.hash)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewUser() error = %v, want %v", err, tt.wantErr)
			}

			if err != nil {
				if domain.KindOf(err) != domain.KindValidation {
					t.Errorf("NewUser() error kind = %v, want validation", domain.KindOf(err))
				}

				return
			}

			if user.ID == uuid.Nil {
				t.Error("NewUser() did not assign an ID")
			}

			if user.Username != tt.username || user.PasswordHash != tt.hash {
				t.Errorf("NewUser() = %+v", user)
			}
		})
	}
}

func TestNewUser_UniqueIDs(t *testing.T) {
	t.Parallel()

	first, err := domain.NewUser("alice", "AB-CD")
	if err != nil {
		t.Fatalf("NewUser() error = %v", err)
	}

	second, err := domain.NewUser("alice", "AB-CD")
	if err != nil {
		t.Fatalf("NewUser() error = %v", err)
	}

	if first.ID == second.ID {
		t.Errorf("NewUser() returned the same ID twice: %v", first.ID)
	}
}
