package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/middleware"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

// VideoHandler implements video publishing and playback endpoints.
type VideoHandler struct {
	Videos VideoStore
	Media  MediaUploader

	TempDir        string
	MaxUploadBytes int64

	NowFunc func() time.Time
}

// Publish handles POST /api/v1/videos. The request is a multipart form with
// videoFile and thumbnail files plus title, description, and duration
// fields.
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
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

	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))
	if title == "" || description == "" {
		respondError(ctx, w, http.StatusBadRequest, "title and description are required")
		return
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(r.FormValue("duration")), 64)
	if err != nil || duration <= 0 {
		respondError(ctx, w, http.StatusBadRequest, "duration must be a positive number of seconds")
		return
	}

	videoFile := formFile(r, "videoFile")
	thumbnailFile := formFile(r, "thumbnail")
	if videoFile == nil || thumbnailFile == nil {
		respondError(ctx, w, http.StatusBadRequest, "videoFile and thumbnail are required")
		return
	}

	videoURL, err := uploadFormFile(ctx, h.Media, h.TempDir, videoFile)
	if err != nil || videoURL == "" {
		logger.Error("video upload failed", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "video upload failed")
		return
	}

	thumbnailURL, err := uploadFormFile(ctx, h.Media, h.TempDir, thumbnailFile)
	if err != nil || thumbnailURL == "" {
		logger.Error("thumbnail upload failed", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "thumbnail upload failed")
		return
	}

	now := h.now()
	video := models.Video{
		ID:           uuid.NewString(),
		OwnerID:      user.ID,
		VideoURL:     videoURL,
		ThumbnailURL: thumbnailURL,
		Title:        title,
		Description:  description,
		Duration:     duration,
		IsPublished:  true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		logger.Error("failed to create video", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to publish video")
		return
	}

	respond(ctx, w, http.StatusCreated, "video published successfully", video)
}

// Feed handles GET /api/v1/videos: published videos, newest first.
func (h VideoHandler) Feed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}

	videos, err := h.Videos.ListPublished(ctx, limit)
	if err != nil {
		logging.FromContext(ctx).Error("failed to list videos", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load videos")
		return
	}

	if videos == nil {
		videos = []models.Video{}
	}
	respond(ctx, w, http.StatusOK, "videos fetched", videos)
}

// Watch handles GET /api/v1/videos/{videoID}. Fetching a video counts as a
// view.
func (h VideoHandler) Watch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	videoID := chi.URLParam(r, "videoID")
	if videoID == "" {
		respondError(ctx, w, http.StatusBadRequest, "video id is required")
		return
	}

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video not found")
			return
		}
		logger.Error("failed to load video", "error", err, "videoId", videoID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load video")
		return
	}

	if err := h.Videos.IncrementViews(ctx, videoID); err != nil {
		// The fetch succeeded; losing one view increment is not worth a 500.
		logger.Warn("failed to increment views", "error", err, "videoId", videoID)
	} else {
		video.Views++
	}

	respond(ctx, w, http.StatusOK, "video fetched", video)
}

func (h VideoHandler) maxUploadBytes() int64 {
	if h.MaxUploadBytes > 0 {
		return h.MaxUploadBytes
	}
	return 32 << 20
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
