package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/middleware"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

// AuthHandler implements registration, login, logout, and token refresh.
type AuthHandler struct {
	Users    UserStore
	Sessions SessionManager
	Media    MediaUploader
	Limiter  RateLimiter

	TempDir        string
	MaxUploadBytes int64

	NowFunc func() time.Time
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type sessionResponse struct {
	User         *models.PublicUser `json:"user,omitempty"`
	AccessToken  string             `json:"accessToken"`
	RefreshToken string             `json:"refreshToken"`
}

// Register handles POST /api/v1/users/register. The request is a multipart
// form carrying username/email/fullName/password fields plus a required
// avatar file and an optional coverImage file.
func (h AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "register") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many registration attempts")
		return
	}

	if err := r.ParseMultipartForm(h.maxUploadBytes()); err != nil {
		logger.Warn("invalid register payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	username := strings.ToLower(strings.TrimSpace(r.FormValue("username")))
	email := strings.TrimSpace(r.FormValue("email"))
	fullName := strings.TrimSpace(r.FormValue("fullName"))
	password := strings.TrimSpace(r.FormValue("password"))

	if username == "" || email == "" || fullName == "" || password == "" {
		respondError(ctx, w, http.StatusBadRequest, "all fields are required")
		return
	}

	if _, err := mail.ParseAddress(email); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid email address")
		return
	}

	if _, err := h.Users.FindByUsernameOrEmail(ctx, username, email); err == nil {
		respondError(ctx, w, http.StatusConflict, "user already exists")
		return
	} else if !errors.Is(err, repositories.ErrNotFound) {
		logger.Error("register user lookup failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to verify existing accounts")
		return
	}

	avatarFile := formFile(r, "avatar")
	if avatarFile == nil {
		respondError(ctx, w, http.StatusBadRequest, "avatar is required")
		return
	}

	avatarURL, err := uploadFormFile(ctx, h.Media, h.TempDir, avatarFile)
	if err != nil || avatarURL == "" {
		logger.Error("avatar upload failed", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "avatar upload failed")
		return
	}

	var coverURL string
	if coverFile := formFile(r, "coverImage"); coverFile != nil {
		coverURL, err = uploadFormFile(ctx, h.Media, h.TempDir, coverFile)
		if err != nil {
			logger.Warn("cover image upload failed", "error", err)
			coverURL = ""
		}
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		logger.Error("register failed to hash password", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to secure password")
		return
	}

	now := h.now()
	user := models.User{
		ID:         uuid.NewString(),
		Username:   username,
		Email:      email,
		FullName:   fullName,
		AvatarURL:  avatarURL,
		CoverImage: coverURL,
		Password:   hashed,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := h.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, http.StatusConflict, "user already exists")
			return
		}
		logger.Error("register failed to create user", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create user")
		return
	}

	// Re-fetch by the created record's id; a miss here is an invariant
	// violation, not a client error.
	created, err := h.Users.FindByID(ctx, user.ID)
	if err != nil {
		logger.Error("created user missing on re-fetch", "userId", user.ID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "something went wrong while registering the user")
		return
	}

	respond(ctx, w, http.StatusCreated, "user registered successfully", created.Public())
}

// Login handles POST /api/v1/users/login. Either username or email must be
// provided alongside the password. On success both tokens are returned in
// the body and set as httpOnly cookies.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "login") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many login attempts")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" && req.Email == "" {
		respondError(ctx, w, http.StatusBadRequest, "username or email is required")
		return
	}
	if req.Password == "" {
		respondError(ctx, w, http.StatusBadRequest, "password is required")
		return
	}

	user, err := h.Users.FindByUsernameOrEmail(ctx, req.Username, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "user does not exist")
			return
		}
		logger.Error("login user lookup failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to verify credentials")
		return
	}

	if !auth.VerifyPassword(user.Password, req.Password) {
		logger.Warn("login password mismatch", "userId", user.ID)
		respondError(ctx, w, http.StatusUnauthorized, "invalid user credentials")
		return
	}

	pair, err := h.Sessions.Issue(ctx, user.ID)
	if err != nil {
		logger.Error("failed to issue tokens", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create session")
		return
	}

	public := user.Public()
	setAuthCookies(w, pair)
	respond(ctx, w, http.StatusOK, "user logged in successfully", sessionResponse{
		User:         &public,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Logout handles POST /api/v1/users/logout. It clears the stored refresh
// token and expires both cookies. Access tokens already issued remain valid
// until their own expiry.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized request")
		return
	}

	if err := h.Sessions.Revoke(ctx, user.ID); err != nil {
		logging.FromContext(ctx).Error("failed to revoke session", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to log out")
		return
	}

	clearAuthCookies(w)
	respond(ctx, w, http.StatusOK, "user logged out", nil)
}

// Refresh handles POST /api/v1/users/refresh-token. The refresh token is
// read from the refreshToken cookie or the request body; a valid one is
// exchanged for a new rotated pair.
func (h AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	incoming := h.refreshTokenFromRequest(r)
	if incoming == "" {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized request")
		return
	}

	pair, err := h.Sessions.Refresh(ctx, incoming)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidToken),
			errors.Is(err, auth.ErrUserNotFound),
			errors.Is(err, auth.ErrTokenMismatch):
			logger.Warn("refresh rejected", "error", err)
			respondError(ctx, w, http.StatusUnauthorized, "invalid refresh token")
		default:
			logger.Error("refresh failed", "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "unable to refresh session")
		}
		return
	}

	setAuthCookies(w, pair)
	respond(ctx, w, http.StatusOK, "access token refreshed", sessionResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (h AuthHandler) refreshTokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(RefreshCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return ""
	}
	return strings.TrimSpace(req.RefreshToken)
}

func (h AuthHandler) maxUploadBytes() int64 {
	if h.MaxUploadBytes > 0 {
		return h.MaxUploadBytes
	}
	return 32 << 20
}

func (h AuthHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
