package client

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rwid/internal/config"
	"rwid/internal/database"
	"rwid/internal/models"
	"rwid/internal/server"
	"rwid/internal/session"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fixture struct {
	api       *Client
	store     *session.MemoryStore
	db        *gorm.DB
	srv       *server.Server
	platform  *models.Platform
	community *models.Community
	pinned    *models.Post
	regular   *models.Post
}

// newFixture serves the real API over httptest with an owner, a member, one
// platform, one community and two posts.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	srv, err := server.NewServerWithDeps(&config.Config{
		JWTSecret:     "client-test-secret-0123456789abcdef0123456789",
		Env:           "test",
		TokenTTLHours: 1,
	}, db, rdb)
	require.NoError(t, err)

	ts := httptest.NewServer(adaptor.FiberApp(srv.NewApp()))
	t.Cleanup(func() {
		ts.Close()
		_ = rdb.Close()
		_ = sqlDB.Close()
	})

	hash, err := bcrypt.GenerateFromPassword([]byte("owner-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	username := "owner"
	require.NoError(t, db.Create(&models.Account{
		UID: "owner-1", Username: &username, PasswordHash: string(hash),
		DisplayName: "Olive Owner", Provider: models.ProviderPassword,
	}).Error)
	require.NoError(t, db.Create(&models.Account{UID: "member-1", DisplayName: "Max", Provider: models.ProviderPassword}).Error)

	platform := &models.Platform{Name: "Alpha", Slug: "alpha", OwnerID: "owner-1", Public: true}
	require.NoError(t, db.Create(platform).Error)
	community := &models.Community{PlatformID: platform.ID, Name: "General"}
	require.NoError(t, db.Create(community).Error)
	now := time.Now()
	pinned := &models.Post{PlatformID: platform.ID, CommunityID: community.ID, AuthorID: "owner-1", Content: "Welcome", Pinned: true, CreatedAt: now.Add(-time.Hour)}
	require.NoError(t, db.Create(pinned).Error)
	regular := &models.Post{PlatformID: platform.ID, CommunityID: community.ID, AuthorID: "owner-1", Content: "Members only", CreatedAt: now}
	require.NoError(t, db.Create(regular).Error)

	store := session.NewMemoryStore()
	return &fixture{
		api:       NewWithHTTPClient(ts.URL, ts.Client(), store),
		store:     store,
		db:        db,
		srv:       srv,
		platform:  platform,
		community: community,
		pinned:    pinned,
		regular:   regular,
	}
}

// signIn logs uid in by impersonation and stores the session.
func (f *fixture) signIn(t *testing.T, uid string) string {
	t.Helper()
	resp, err := f.api.Login(t.Context(), models.LoginRequest{UserID: uid})
	require.NoError(t, err)
	require.NoError(t, f.store.Write(t.Context(), session.Record{UserID: resp.User.ID, Role: resp.User.Role, Token: resp.Token}))
	return resp.Token
}

// stubServer answers every request with status and body.
func stubServer(t *testing.T, status int, body string) *Client {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return NewWithHTTPClient(ts.URL, ts.Client(), nil)
}
