package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/middleware"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

// SubscriptionHandler implements subscribe/unsubscribe and listing
// endpoints over the subscriber→channel edge.
type SubscriptionHandler struct {
	Subscriptions SubscriptionStore
	Users         UserStore

	NowFunc func() time.Time
}

// Subscribe handles POST /api/v1/subscriptions/{channelID}.
func (h SubscriptionHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized request")
		return
	}

	channelID := chi.URLParam(r, "channelID")
	if channelID == "" {
		respondError(ctx, w, http.StatusBadRequest, "channel id is required")
		return
	}
	if channelID == user.ID {
		respondError(ctx, w, http.StatusBadRequest, "cannot subscribe to yourself")
		return
	}

	if _, err := h.Users.FindByID(ctx, channelID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "channel does not exist")
			return
		}
		logger.Error("subscribe channel lookup failed", "error", err, "channelId", channelID)
		respondError(ctx, w, http.StatusInternalServerError, "unable to verify channel")
		return
	}

	sub := models.Subscription{
		ID:           uuid.NewString(),
		SubscriberID: user.ID,
		ChannelID:    channelID,
		CreatedAt:    h.now(),
	}

	if err := h.Subscriptions.Create(ctx, sub); err != nil {
		switch {
		case errors.Is(err, repositories.ErrConflict):
			respondError(ctx, w, http.StatusConflict, "already subscribed")
		case errors.Is(err, repositories.ErrNotFound):
			respondError(ctx, w, http.StatusNotFound, "channel does not exist")
		default:
			logger.Error("failed to create subscription", "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "failed to subscribe")
		}
		return
	}

	respond(ctx, w, http.StatusCreated, "subscribed successfully", sub)
}

// Unsubscribe handles DELETE /api/v1/subscriptions/{channelID}.
func (h SubscriptionHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized request")
		return
	}

	channelID := chi.URLParam(r, "channelID")
	if channelID == "" {
		respondError(ctx, w, http.StatusBadRequest, "channel id is required")
		return
	}

	if err := h.Subscriptions.Delete(ctx, user.ID, channelID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "subscription does not exist")
			return
		}
		logging.FromContext(ctx).Error("failed to delete subscription", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to unsubscribe")
		return
	}

	respond(ctx, w, http.StatusOK, "unsubscribed successfully", nil)
}

// List handles GET /api/v1/subscriptions: channels the user subscribes to.
func (h SubscriptionHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized request")
		return
	}

	channels, err := h.Subscriptions.ListChannels(ctx, user.ID)
	if err != nil {
		logging.FromContext(ctx).Error("failed to list subscriptions", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load subscriptions")
		return
	}

	if channels == nil {
		channels = []models.PublicUser{}
	}
	respond(ctx, w, http.StatusOK, "subscriptions fetched", channels)
}

func (h SubscriptionHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
