package repositories

import (
	"context"

	"github.com/videotube/backend/internal/models"
)

// UserRepository defines the data access contract for users.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) (models.User, error)
	UpdateRefreshToken(ctx context.Context, userID, refreshToken string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	UpdateAccount(ctx context.Context, userID, fullName, email string) error
	UpdateAvatar(ctx context.Context, userID, avatarURL string) error
	UpdateCoverImage(ctx context.Context, userID, coverImageURL string) error
}

// VideoRepository defines the data access contract for videos.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	ListPublished(ctx context.Context, limit int) ([]models.Video, error)
	IncrementViews(ctx context.Context, id string) error
}

// SubscriptionRepository defines the data access contract for
// subscriber→channel edges.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub models.Subscription) error
	Delete(ctx context.Context, subscriberID, channelID string) error
	ListChannels(ctx context.Context, subscriberID string) ([]models.PublicUser, error)
	CountForChannel(ctx context.Context, channelID string) (int64, error)
}
