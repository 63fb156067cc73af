package services

import (
	"context"
	"io"
	"sort"
	"strconv"
	"sync"

	"gorm.io/gorm"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/query"
)

type memUsers struct {
	mu      sync.Mutex
	rows    map[string]models.User
	inserts int
	err     error
}

func newMemUsers() *memUsers { return &memUsers{rows: map[string]models.User{}} }

func (m *memUsers) CreateUserIfAbsent(_ context.Context, user *models.User) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserts++
	if m.err != nil {
		return false, m.err
	}
	if _, ok := m.rows[user.ID]; ok {
		return false, nil
	}
	m.rows[user.ID] = *user
	return true, nil
}

func (m *memUsers) GetUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

type memPosts struct {
	rows   map[uint]models.Post
	nextID uint
	listed int
}

func newMemPosts(posts ...models.Post) *memPosts {
	m := &memPosts{rows: map[uint]models.Post{}}
	for _, p := range posts {
		m.rows[p.ID] = p
		if p.ID > m.nextID {
			m.nextID = p.ID
		}
	}
	return m
}

func (m *memPosts) ListPosts(_ context.Context, _ query.PostFilter) ([]models.Post, error) {
	m.listed++
	out := make([]models.Post, 0, len(m.rows))
	for _, p := range m.rows {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memPosts) GetPostByID(_ context.Context, id uint) (*models.Post, error) {
	p, ok := m.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (m *memPosts) PostExists(_ context.Context, id uint) (bool, error) {
	_, ok := m.rows[id]
	return ok, nil
}

func (m *memPosts) CreatePost(_ context.Context, post *models.Post) error {
	m.nextID++
	post.ID = m.nextID
	m.rows[post.ID] = *post
	return nil
}

func (m *memPosts) UpdatePost(_ context.Context, post *models.Post) error {
	if _, ok := m.rows[post.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.rows[post.ID] = *post
	return nil
}

func (m *memPosts) DeletePost(_ context.Context, id uint) error {
	if _, ok := m.rows[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.rows, id)
	return nil
}

type favKey struct {
	user string
	post uint
}

type memFavorites struct {
	rows   map[favKey]models.Favorite
	nextID uint
	addErr error
}

func newMemFavorites() *memFavorites { return &memFavorites{rows: map[favKey]models.Favorite{}} }

func (m *memFavorites) AddFavorite(_ context.Context, f *models.Favorite) (bool, error) {
	if m.addErr != nil {
		return false, m.addErr
	}
	k := favKey{f.UserID, f.PostID}
	if existing, ok := m.rows[k]; ok {
		*f = existing
		return false, nil
	}
	m.nextID++
	f.ID = m.nextID
	m.rows[k] = *f
	return true, nil
}

func (m *memFavorites) RemoveFavorite(_ context.Context, userID string, postID uint) (int64, error) {
	k := favKey{userID, postID}
	if _, ok := m.rows[k]; !ok {
		return 0, nil
	}
	delete(m.rows, k)
	return 1, nil
}

func (m *memFavorites) GetFavoritesByUser(_ context.Context, userID string) ([]models.Favorite, error) {
	var out []models.Favorite
	for k, f := range m.rows {
		if k.user == userID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

type memCache struct {
	gen           int
	entries       map[string][]models.Post
	invalidations int
}

func newMemCache() *memCache { return &memCache{entries: map[string][]models.Post{}} }

func (c *memCache) GetPosts(_ context.Context, key string) ([]models.Post, string, bool, error) {
	gen := strconv.Itoa(c.gen)
	p, ok := c.entries[gen+":"+key]
	return p, gen, ok, nil
}

func (c *memCache) SetPosts(_ context.Context, generation, key string, posts []models.Post) error {
	c.entries[generation+":"+key] = posts
	return nil
}

func (c *memCache) Invalidate(context.Context) error {
	c.invalidations++
	c.gen++
	return nil
}

type memEvents struct {
	events []models.IngestionEvent
}

func (m *memEvents) RecordEvent(_ context.Context, e *models.IngestionEvent) error {
	m.events = append(m.events, *e)
	return nil
}

type memStorage struct {
	puts        int
	name        string
	contentType string
	body        []byte
}

func (s *memStorage) Put(_ context.Context, name string, r io.Reader, _ int64, contentType string) (string, error) {
	s.puts++
	s.name, s.contentType = name, contentType
	b, err := io.ReadAll(r)
	s.body = b
	return "https://cdn.example.com/images/" + name, err
}
