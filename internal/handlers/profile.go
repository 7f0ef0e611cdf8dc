package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/middleware"
	"github.com/videotube/backend/internal/repositories"
)

// ProfileHandler implements the authenticated profile endpoints. Every
// route expects middleware.RequireAuth to have populated the request user.
type ProfileHandler struct {
	Users UserStore
	Media MediaUploader

	TempDir        string
	MaxUploadBytes int64
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type updateAccountRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// Current handles GET /api/v1/users/current.
func (h ProfileHandler) Current(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized request")
		return
	}

	respond(ctx, w, http.StatusOK, "current user fetched", user.Public())
}

// ChangePassword handles POST /api/v1/users/change-password. The stored
// hash is only overwritten after the old password verifies.
func (h ProfileHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized request")
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.OldPassword) == "" || strings.TrimSpace(req.NewPassword) == "" {
		respondError(ctx, w, http.StatusBadRequest, "old and new passwords are required")
		return
	}

	if !auth.VerifyPassword(user.Password, req.OldPassword) {
		respondError(ctx, w, http.StatusBadRequest, "invalid old password")
		return
	}

	hashed, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		logger.Error("failed to hash new password", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to secure password")
		return
	}

	if err := h.Users.UpdatePassword(ctx, user.ID, hashed); err != nil {
		logger.Error("failed to update password", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to change password")
		return
	}

	respond(ctx, w, http.StatusOK, "password changed successfully", nil)
}

// UpdateAccount handles PATCH /api/v1/users/update-account.
func (h ProfileHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized request")
		return
	}

	var req updateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(req.Email)
	if req.FullName == "" || req.Email == "" {
		respondError(ctx, w, http.StatusBadRequest, "full name and email are required")
		return
	}

	if _, err := mail.ParseAddress(req.Email); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid email address")
		return
	}

	if err := h.Users.UpdateAccount(ctx, user.ID, req.FullName, req.Email); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, http.StatusConflict, "email already in use")
			return
		}
		logger.Error("failed to update account", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to update account")
		return
	}

	h.respondWithUser(w, r, user.ID, "account details updated")
}

// UpdateAvatar handles PATCH /api/v1/users/avatar.
func (h ProfileHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar", h.Users.UpdateAvatar)
}

// UpdateCoverImage handles PATCH /api/v1/users/cover-image.
func (h ProfileHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "coverImage", h.Users.UpdateCoverImage)
}

func (h ProfileHandler) updateImage(w http.ResponseWriter, r *http.Request, field string, update func(ctx context.Context, userID, url string) error) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized request")
		return
	}

	if err := r.ParseMultipartForm(h.maxUploadBytes()); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	fh := formFile(r, field)
	if fh == nil {
		respondError(ctx, w, http.StatusBadRequest, field+" file is required")
		return
	}

	url, err := uploadFormFile(ctx, h.Media, h.TempDir, fh)
	if err != nil || url == "" {
		logger.Error("media upload failed", "field", field, "error", err)
		respondError(ctx, w, http.StatusBadRequest, "error while uploading "+field)
		return
	}

	if err := update(ctx, user.ID, url); err != nil {
		logger.Error("failed to update "+field, "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "unable to update "+field)
		return
	}

	h.respondWithUser(w, r, user.ID, field+" updated successfully")
}

func (h ProfileHandler) respondWithUser(w http.ResponseWriter, r *http.Request, userID, message string) {
	ctx := r.Context()

	updated, err := h.Users.FindByID(ctx, userID)
	if err != nil {
		logging.FromContext(ctx).Error("failed to reload user", "error", err, "userId", userID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load updated user")
		return
	}

	respond(ctx, w, http.StatusOK, message, updated.Public())
}

func (h ProfileHandler) maxUploadBytes() int64 {
	if h.MaxUploadBytes > 0 {
		return h.MaxUploadBytes
	}
	return 32 << 20
}
