package handlers

import (
	"context"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/storage"
)

// UserStore captures the persistence operations required by the user handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) (models.User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	UpdateAccount(ctx context.Context, userID, fullName, email string) error
	UpdateAvatar(ctx context.Context, userID, avatarURL string) error
	UpdateCoverImage(ctx context.Context, userID, coverImageURL string) error
}

// SessionManager issues, rotates, and revokes token pairs for users.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (auth.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error)
	Revoke(ctx context.Context, userID string) error
}

// VideoStore captures persistence for video publishing and playback.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	ListPublished(ctx context.Context, limit int) ([]models.Video, error)
	IncrementViews(ctx context.Context, id string) error
}

// SubscriptionStore captures persistence for subscriber→channel edges.
type SubscriptionStore interface {
	Create(ctx context.Context, sub models.Subscription) error
	Delete(ctx context.Context, subscriberID, channelID string) error
	ListChannels(ctx context.Context, subscriberID string) ([]models.PublicUser, error)
	CountForChannel(ctx context.Context, channelID string) (int64, error)
}

// MediaUploader sends local temp files to the media host.
type MediaUploader = storage.MediaStore
