package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/videotube/backend/internal/db"
	"github.com/videotube/backend/internal/models"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

const userColumns = `id, username, email, full_name, avatar_url, cover_image_url, password_hash, refresh_token, created_at, updated_at`

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.FullName,
		&user.AvatarURL, &user.CoverImage, &user.Password,
		&user.RefreshToken, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("scan user: %w", err)
	}
	return user, nil
}

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, username, email, full_name, avatar_url, cover_image_url, password_hash, refresh_token, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `, user.ID, user.Username, user.Email, user.FullName, user.AvatarURL, user.CoverImage, user.Password, user.RefreshToken, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByID fetches a user by primary key.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// FindByUsernameOrEmail fetches a user matching either identifier. Empty
// arguments never match.
func (r *PostgresUserRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT `+userColumns+`
        FROM users
        WHERE (username = $1 AND $1 <> '') OR (email = $2 AND $2 <> '')
        LIMIT 1
    `, username, email)
	return scanUser(row)
}

// UpdateRefreshToken overwrites the stored refresh token for the user. An
// empty token clears it.
func (r *PostgresUserRepository) UpdateRefreshToken(ctx context.Context, userID, refreshToken string) error {
	return r.updateField(ctx, userID, "refresh_token", refreshToken)
}

// UpdatePassword overwrites the stored password hash for the user.
func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	return r.updateField(ctx, userID, "password_hash", passwordHash)
}

// UpdateAvatar overwrites the avatar URL for the user.
func (r *PostgresUserRepository) UpdateAvatar(ctx context.Context, userID, avatarURL string) error {
	return r.updateField(ctx, userID, "avatar_url", avatarURL)
}

// UpdateCoverImage overwrites the cover image URL for the user.
func (r *PostgresUserRepository) UpdateCoverImage(ctx context.Context, userID, coverImageURL string) error {
	return r.updateField(ctx, userID, "cover_image_url", coverImageURL)
}

// UpdateAccount overwrites the full name and email for the user.
func (r *PostgresUserRepository) UpdateAccount(ctx context.Context, userID, fullName, email string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET full_name = $2, email = $3, updated_at = $4
        WHERE id = $1
    `, userID, fullName, email, time.Now().UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("update user account: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *PostgresUserRepository) updateField(ctx context.Context, userID, column, value string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	// column comes from a fixed set of callers above, never from input.
	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET `+column+` = $2, updated_at = $3
        WHERE id = $1
    `, userID, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update user %s: %w", column, err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

const videoColumns = `id, owner_id, video_url, thumbnail_url, title, description, duration, views, is_published, created_at, updated_at`

func scanVideo(row pgx.Row) (models.Video, error) {
	var video models.Video
	err := row.Scan(
		&video.ID, &video.OwnerID, &video.VideoURL, &video.ThumbnailURL,
		&video.Title, &video.Description, &video.Duration, &video.Views,
		&video.IsPublished, &video.CreatedAt, &video.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("scan video: %w", err)
	}
	return video, nil
}

// Create stores a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, owner_id, video_url, thumbnail_url, title, description, duration, views, is_published, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `, video.ID, video.OwnerID, video.VideoURL, video.ThumbnailURL, video.Title, video.Description, video.Duration, video.Views, video.IsPublished, video.CreatedAt, video.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgUniqueViolation:
				return ErrConflict
			case pgForeignKeyViolation:
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert video: %w", err)
	}

	return nil
}

// FindByID fetches a video by primary key.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id)
	return scanVideo(row)
}

// ListPublished returns published videos in reverse chronological order.
func (r *PostgresVideoRepository) ListPublished(ctx context.Context, limit int) ([]models.Video, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+videoColumns+`
        FROM videos
        WHERE is_published
        ORDER BY created_at DESC
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, video)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}

	return videos, nil
}

// IncrementViews bumps the view counter for the video.
func (r *PostgresVideoRepository) IncrementViews(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET views = views + 1
        WHERE id = $1
    `, id)
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// PostgresSubscriptionRepository persists subscriber→channel edges.
type PostgresSubscriptionRepository struct {
	pool db.Pool
}

// NewPostgresSubscriptionRepository constructs a subscription repository backed by PostgreSQL.
func NewPostgresSubscriptionRepository(pool db.Pool) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

// Create inserts a new subscription edge. A duplicate (subscriber, channel)
// pair reports ErrConflict; a missing user on either end reports ErrNotFound.
func (r *PostgresSubscriptionRepository) Create(ctx context.Context, sub models.Subscription) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO subscriptions (id, subscriber_id, channel_id, created_at)
        VALUES ($1, $2, $3, $4)
    `, sub.ID, sub.SubscriberID, sub.ChannelID, sub.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgUniqueViolation:
				return ErrConflict
			case pgForeignKeyViolation:
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert subscription: %w", err)
	}

	return nil
}

// Delete removes the subscription edge between the two users.
func (r *PostgresSubscriptionRepository) Delete(ctx context.Context, subscriberID, channelID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM subscriptions
        WHERE subscriber_id = $1 AND channel_id = $2
    `, subscriberID, channelID)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ListChannels returns the sanitized channels the user subscribes to, most
// recent subscription first.
func (r *PostgresSubscriptionRepository) ListChannels(ctx context.Context, subscriberID string) ([]models.PublicUser, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT u.id, u.username, u.email, u.full_name, u.avatar_url, u.cover_image_url, u.created_at, u.updated_at
        FROM subscriptions s
        JOIN users u ON u.id = s.channel_id
        WHERE s.subscriber_id = $1
        ORDER BY s.created_at DESC
    `, subscriberID)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()

	var channels []models.PublicUser
	for rows.Next() {
		var channel models.PublicUser
		if err := rows.Scan(
			&channel.ID, &channel.Username, &channel.Email, &channel.FullName,
			&channel.AvatarURL, &channel.CoverImage, &channel.CreatedAt, &channel.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan subscription channel: %w", err)
		}
		channels = append(channels, channel)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}

	return channels, nil
}

// CountForChannel returns how many users subscribe to the channel.
func (r *PostgresSubscriptionRepository) CountForChannel(ctx context.Context, channelID string) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var count int64
	row := conn.QueryRow(ctx, `
        SELECT COUNT(*) FROM subscriptions WHERE channel_id = $1
    `, channelID)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count subscriptions: %w", err)
	}

	return count, nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ VideoRepository = (*PostgresVideoRepository)(nil)
var _ SubscriptionRepository = (*PostgresSubscriptionRepository)(nil)
