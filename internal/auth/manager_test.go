package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/videotube/backend/internal/models"
)

type stubUserStore struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newStubUserStore(users ...models.User) *stubUserStore {
	s := &stubUserStore{users: make(map[string]models.User)}
	for _, user := range users {
		s.users[user.ID] = user
	}
	return s
}

func (s *stubUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, errors.New("no such user")
	}
	return user, nil
}

func (s *stubUserStore) UpdateRefreshToken(_ context.Context, userID, refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return errors.New("no such user")
	}
	user.RefreshToken = refreshToken
	s.users[userID] = user
	return nil
}

func newTestManager(store UserStore) *Manager {
	return NewManager(accessSecret, refreshSecret, time.Minute, time.Hour, store)
}

func TestIssuePersistsRefreshToken(t *testing.T) {
	store := newStubUserStore(models.User{ID: "user-1", Username: "alice"})
	manager := newTestManager(store)

	pair, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens to be minted")
	}

	user, err := store.FindByID(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if user.RefreshToken != pair.RefreshToken {
		t.Fatal("issued refresh token must be persisted")
	}

	claims, err := manager.VerifyAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("verify access: %v", err)
	}
	if claims.UserID != "user-1" || claims.Username != "alice" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestIssueUnknownUser(t *testing.T) {
	manager := newTestManager(newStubUserStore())

	if _, err := manager.Issue(context.Background(), "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound got %v", err)
	}
}

func TestRefreshRotates(t *testing.T) {
	store := newStubUserStore(models.User{ID: "user-1", Username: "alice"})
	manager := newTestManager(store)

	first, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	second, err := manager.Refresh(context.Background(), first.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatal("refresh must rotate the refresh token")
	}

	// The pre-rotation token no longer matches the stored one.
	if _, err := manager.Refresh(context.Background(), first.RefreshToken); !errors.Is(err, ErrTokenMismatch) {
		t.Fatalf("expected ErrTokenMismatch got %v", err)
	}

	// The rotated token still works.
	if _, err := manager.Refresh(context.Background(), second.RefreshToken); err != nil {
		t.Fatalf("refresh with rotated token: %v", err)
	}
}

func TestRefreshRejectsForgedToken(t *testing.T) {
	store := newStubUserStore(models.User{ID: "user-1", Username: "alice"})
	manager := newTestManager(store)

	forged, err := SignRefreshToken([]byte("attacker-secret"), time.Hour, "user-1")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := manager.Refresh(context.Background(), forged); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken got %v", err)
	}
	if _, err := manager.Refresh(context.Background(), ""); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken got %v", err)
	}
}

func TestRefreshAfterRevoke(t *testing.T) {
	store := newStubUserStore(models.User{ID: "user-1", Username: "alice"})
	manager := newTestManager(store)

	pair, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if err := manager.Revoke(context.Background(), "user-1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	user, err := store.FindByID(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if user.RefreshToken != "" {
		t.Fatal("revoke must clear the stored refresh token")
	}

	if _, err := manager.Refresh(context.Background(), pair.RefreshToken); !errors.Is(err, ErrTokenMismatch) {
		t.Fatalf("expected ErrTokenMismatch got %v", err)
	}
}

func TestNewManagerRequiresStore(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on nil store")
		}
	}()
	NewManager(accessSecret, refreshSecret, time.Minute, time.Hour, nil)
}
