package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

type inMemoryUserStore struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newInMemoryUserStore() *inMemoryUserStore {
	return &inMemoryUserStore{users: make(map[string]models.User)}
}

func (s *inMemoryUserStore) Create(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return repositories.ErrConflict
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *inMemoryUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *inMemoryUserStore) FindByUsernameOrEmail(_ context.Context, username, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if (username != "" && user.Username == username) || (email != "" && user.Email == email) {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *inMemoryUserStore) UpdateRefreshToken(_ context.Context, userID, refreshToken string) error {
	return s.mutate(userID, func(u *models.User) { u.RefreshToken = refreshToken })
}

func (s *inMemoryUserStore) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	return s.mutate(userID, func(u *models.User) { u.Password = passwordHash })
}

func (s *inMemoryUserStore) UpdateAccount(_ context.Context, userID, fullName, email string) error {
	return s.mutate(userID, func(u *models.User) {
		u.FullName = fullName
		u.Email = email
	})
}

func (s *inMemoryUserStore) UpdateAvatar(_ context.Context, userID, avatarURL string) error {
	return s.mutate(userID, func(u *models.User) { u.AvatarURL = avatarURL })
}

func (s *inMemoryUserStore) UpdateCoverImage(_ context.Context, userID, coverImageURL string) error {
	return s.mutate(userID, func(u *models.User) { u.CoverImage = coverImageURL })
}

func (s *inMemoryUserStore) mutate(userID string, fn func(*models.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	fn(&user)
	user.UpdatedAt = time.Now().UTC()
	s.users[userID] = user
	return nil
}

type inMemoryVideoStore struct {
	mu     sync.Mutex
	videos map[string]models.Video
}

func newInMemoryVideoStore() *inMemoryVideoStore {
	return &inMemoryVideoStore{videos: make(map[string]models.Video)}
}

func (s *inMemoryVideoStore) Create(_ context.Context, video models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.videos[video.ID]; exists {
		return repositories.ErrConflict
	}
	s.videos[video.ID] = video
	return nil
}

func (s *inMemoryVideoStore) FindByID(_ context.Context, id string) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return video, nil
}

func (s *inMemoryVideoStore) ListPublished(_ context.Context, limit int) ([]models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Video
	for _, video := range s.videos {
		if video.IsPublished {
			out = append(out, video)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *inMemoryVideoStore) IncrementViews(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[id]
	if !ok {
		return repositories.ErrNotFound
	}
	video.Views++
	s.videos[id] = video
	return nil
}

type inMemorySubscriptionStore struct {
	mu    sync.Mutex
	subs  map[string]models.Subscription
	users *inMemoryUserStore
}

func newInMemorySubscriptionStore(users *inMemoryUserStore) *inMemorySubscriptionStore {
	return &inMemorySubscriptionStore{subs: make(map[string]models.Subscription), users: users}
}

func (s *inMemorySubscriptionStore) edgeKey(subscriberID, channelID string) string {
	return subscriberID + "→" + channelID
}

func (s *inMemorySubscriptionStore) Create(_ context.Context, sub models.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.edgeKey(sub.SubscriberID, sub.ChannelID)
	if _, exists := s.subs[key]; exists {
		return repositories.ErrConflict
	}
	s.subs[key] = sub
	return nil
}

func (s *inMemorySubscriptionStore) Delete(_ context.Context, subscriberID, channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.edgeKey(subscriberID, channelID)
	if _, exists := s.subs[key]; !exists {
		return repositories.ErrNotFound
	}
	delete(s.subs, key)
	return nil
}

func (s *inMemorySubscriptionStore) ListChannels(ctx context.Context, subscriberID string) ([]models.PublicUser, error) {
	s.mu.Lock()
	var channelIDs []string
	for _, sub := range s.subs {
		if sub.SubscriberID == subscriberID {
			channelIDs = append(channelIDs, sub.ChannelID)
		}
	}
	s.mu.Unlock()

	var channels []models.PublicUser
	for _, id := range channelIDs {
		user, err := s.users.FindByID(ctx, id)
		if err != nil {
			continue
		}
		channels = append(channels, user.Public())
	}
	return channels, nil
}

func (s *inMemorySubscriptionStore) CountForChannel(_ context.Context, channelID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, sub := range s.subs {
		if sub.ChannelID == channelID {
			count++
		}
	}
	return count, nil
}

// fakeMediaStore records saved objects and returns deterministic URLs.
type fakeMediaStore struct {
	mu    sync.Mutex
	saved []string
	fail  bool
}

func (s *fakeMediaStore) Save(_ context.Context, name string, r io.Reader) (string, error) {
	if s.fail {
		return "", fmt.Errorf("media host unavailable")
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	s.mu.Lock()
	s.saved = append(s.saved, name)
	s.mu.Unlock()
	return "https://media.test/" + name, nil
}

// multipartRequest builds a multipart form request with the given text
// fields and files (field name → file content).
func multipartRequest(t *testing.T, method, target string, fields map[string]string, files map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			t.Fatalf("write field %s: %v", name, err)
		}
	}
	for name, content := range files {
		part, err := writer.CreateFormFile(name, name+".png")
		if err != nil {
			t.Fatalf("create form file %s: %v", name, err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatalf("write form file %s: %v", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}
