package services

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"pfotencard-backend/internal/database"
	"pfotencard-backend/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/go-redis/redis/v8"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func setupTestDB() {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}

	db.Migrator().DropTable(models.All()...)
	if err := database.Migrate(db); err != nil {
		panic("failed to migrate database")
	}

	database.DB = db
	database.RedisClient = nil
}

func setupTestRedis() *miniredis.Miniredis {
	mr, err := miniredis.Run()
	if err != nil {
		panic(err)
	}

	database.RedisClient = redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	return mr
}

func seedUser(email string, role models.Role, balance float64) models.User {
	hashed, _ := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	user := models.User{
		TenantID:       models.DefaultTenantID,
		Email:          email,
		Name:           email,
		HashedPassword: string(hashed),
		Role:           role,
		IsActive:       true,
		Balance:        balance,
		LevelID:        1,
	}
	if err := database.DB.Create(&user).Error; err != nil {
		panic(err)
	}
	return user
}

func seedAchievement(userID uint, requirementID string, at time.Time) models.Achievement {
	a := models.Achievement{UserID: userID, RequirementID: requirementID, DateAchieved: at}
	if err := database.DB.Create(&a).Error; err != nil {
		panic(err)
	}
	return a
}

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	deleted []string
	failPut bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (s *memoryStore) Put(_ context.Context, key string, r io.Reader, contentType string) error {
	if s.failPut {
		return fmt.Errorf("bucket unavailable")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	s.types[key] = contentType
	return nil
}

func (s *memoryStore) SignedURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("https://signed.example/%s?expires=%d", key, int(ttl.Seconds())), nil
}

func (s *memoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *memoryStore) PublicURL(key string) string {
	return "https://public.example/" + key
}

type recordingIdentityProvider struct {
	created []string
	updated map[string]IdentityUpdate
	deleted []string
	err     error
}

func newRecordingIdentityProvider() *recordingIdentityProvider {
	return &recordingIdentityProvider{updated: map[string]IdentityUpdate{}}
}

func (p *recordingIdentityProvider) CreateUser(_ context.Context, email, _, _ string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.created = append(p.created, email)
	return "auth-" + email, nil
}

func (p *recordingIdentityProvider) UpdateUser(_ context.Context, email string, update IdentityUpdate) error {
	if p.err != nil {
		return p.err
	}
	p.updated[email] = update
	return nil
}

func (p *recordingIdentityProvider) DeleteUser(_ context.Context, email string) error {
	if p.err != nil {
		return p.err
	}
	p.deleted = append(p.deleted, email)
	return nil
}
