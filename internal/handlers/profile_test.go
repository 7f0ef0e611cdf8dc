package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/middleware"
	"github.com/videotube/backend/internal/models"
)

func newTestProfileHandler(t *testing.T, store *inMemoryUserStore) ProfileHandler {
	t.Helper()
	return ProfileHandler{
		Users:   store,
		Media:   &fakeMediaStore{},
		TempDir: t.TempDir(),
	}
}

func withUser(req *http.Request, user models.User) *http.Request {
	return req.WithContext(middleware.WithUser(req.Context(), user))
}

func TestCurrentReturnsSanitizedUser(t *testing.T) {
	store := newInMemoryUserStore()
	handler := newTestProfileHandler(t, store)
	user := seedUser(t, store, "alice", "alice@example.com", "password123")

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/v1/users/current", nil), user)
	rec := httptest.NewRecorder()

	handler.Current(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	assertSanitized(t, rec.Body.String())

	env := decodeEnvelope(t, rec)
	if env.Data["username"] != "alice" {
		t.Fatalf("expected username alice got %v", env.Data["username"])
	}
}

func TestCurrentWithoutUser(t *testing.T) {
	handler := newTestProfileHandler(t, newInMemoryUserStore())

	rec := httptest.NewRecorder()
	handler.Current(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users/current", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestChangePassword(t *testing.T) {
	store := newInMemoryUserStore()
	handler := newTestProfileHandler(t, store)
	user := seedUser(t, store, "alice", "alice@example.com", "password123")

	req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/users/change-password",
		loginRequestBody(t, changePasswordRequest{OldPassword: "password123", NewPassword: "hunter2!"})), user)
	rec := httptest.NewRecorder()

	handler.ChangePassword(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	stored, err := store.FindByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if !auth.VerifyPassword(stored.Password, "hunter2!") {
		t.Fatal("new password must verify against the stored hash")
	}
	if auth.VerifyPassword(stored.Password, "password123") {
		t.Fatal("old password must no longer verify")
	}
}

func TestChangePasswordWrongOldPassword(t *testing.T) {
	store := newInMemoryUserStore()
	handler := newTestProfileHandler(t, store)
	user := seedUser(t, store, "alice", "alice@example.com", "password123")

	req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/users/change-password",
		loginRequestBody(t, changePasswordRequest{OldPassword: "wrong", NewPassword: "hunter2!"})), user)
	rec := httptest.NewRecorder()

	handler.ChangePassword(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}

	stored, err := store.FindByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if stored.Password != user.Password {
		t.Fatal("stored hash must be unchanged after a rejected change")
	}
}

func TestChangePasswordRequiresBothFields(t *testing.T) {
	store := newInMemoryUserStore()
	handler := newTestProfileHandler(t, store)
	user := seedUser(t, store, "alice", "alice@example.com", "password123")

	req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/users/change-password",
		loginRequestBody(t, changePasswordRequest{OldPassword: "password123"})), user)
	rec := httptest.NewRecorder()

	handler.ChangePassword(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestUpdateAccount(t *testing.T) {
	store := newInMemoryUserStore()
	handler := newTestProfileHandler(t, store)
	user := seedUser(t, store, "alice", "alice@example.com", "password123")

	req := withUser(httptest.NewRequest(http.MethodPatch, "/api/v1/users/update-account",
		loginRequestBody(t, updateAccountRequest{FullName: "Alice Renamed", Email: "new@example.com"})), user)
	rec := httptest.NewRecorder()

	handler.UpdateAccount(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	env := decodeEnvelope(t, rec)
	if env.Data["fullName"] != "Alice Renamed" {
		t.Fatalf("expected updated fullName got %v", env.Data["fullName"])
	}
	if env.Data["email"] != "new@example.com" {
		t.Fatalf("expected updated email got %v", env.Data["email"])
	}
}

func TestUpdateAccountRejectsInvalidEmail(t *testing.T) {
	store := newInMemoryUserStore()
	handler := newTestProfileHandler(t, store)
	user := seedUser(t, store, "alice", "alice@example.com", "password123")

	req := withUser(httptest.NewRequest(http.MethodPatch, "/api/v1/users/update-account",
		loginRequestBody(t, updateAccountRequest{FullName: "Alice", Email: "not-an-email"})), user)
	rec := httptest.NewRecorder()

	handler.UpdateAccount(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestUpdateAvatar(t *testing.T) {
	store := newInMemoryUserStore()
	handler := newTestProfileHandler(t, store)
	user := seedUser(t, store, "alice", "alice@example.com", "password123")

	req := withUser(multipartRequest(t, http.MethodPatch, "/api/v1/users/avatar",
		nil, map[string]string{"avatar": "new-avatar-bytes"}), user)
	rec := httptest.NewRecorder()

	handler.UpdateAvatar(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	stored, err := store.FindByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if stored.AvatarURL == user.AvatarURL || stored.AvatarURL == "" {
		t.Fatalf("expected avatar URL to change, got %q", stored.AvatarURL)
	}
}

func TestUpdateAvatarRequiresFile(t *testing.T) {
	store := newInMemoryUserStore()
	handler := newTestProfileHandler(t, store)
	user := seedUser(t, store, "alice", "alice@example.com", "password123")

	req := withUser(multipartRequest(t, http.MethodPatch, "/api/v1/users/avatar", map[string]string{"noop": "1"}, nil), user)
	rec := httptest.NewRecorder()

	handler.UpdateAvatar(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestUpdateCoverImage(t *testing.T) {
	store := newInMemoryUserStore()
	handler := newTestProfileHandler(t, store)
	user := seedUser(t, store, "alice", "alice@example.com", "password123")

	req := withUser(multipartRequest(t, http.MethodPatch, "/api/v1/users/cover-image",
		nil, map[string]string{"coverImage": "cover-bytes"}), user)
	rec := httptest.NewRecorder()

	handler.UpdateCoverImage(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	stored, err := store.FindByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if stored.CoverImage == "" {
		t.Fatal("expected cover image URL to be set")
	}
}
