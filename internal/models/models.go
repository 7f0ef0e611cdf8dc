package models

import "time"

// User represents an account within the VideoTube platform. Password holds
// the bcrypt hash and RefreshToken the single currently valid refresh
// credential; neither may ever be serialized to clients.
type User struct {
	ID           string
	Username     string
	Email        string
	FullName     string
	AvatarURL    string
	CoverImage   string
	Password     string
	RefreshToken string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is the sanitized view of a User safe to return to clients.
type PublicUser struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	AvatarURL  string    `json:"avatar"`
	CoverImage string    `json:"coverImage,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Public strips the password hash and refresh token from the user.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FullName:   u.FullName,
		AvatarURL:  u.AvatarURL,
		CoverImage: u.CoverImage,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

// Video stores metadata for an uploaded video. VideoURL and ThumbnailURL
// point at the external media host.
type Video struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner"`
	VideoURL     string    `json:"videoFile"`
	ThumbnailURL string    `json:"thumbnail"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Duration     float64   `json:"duration"`
	Views        int64     `json:"views"`
	IsPublished  bool      `json:"isPublished"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Subscription is a directed edge from a subscriber to a channel, both
// users. At most one edge may exist per (subscriber, channel) pair.
type Subscription struct {
	ID           string    `json:"id"`
	SubscriberID string    `json:"subscriber"`
	ChannelID    string    `json:"channel"`
	CreatedAt    time.Time `json:"createdAt"`
}
