// Package seed creates demo data for local development: an owner, a set of
// members, the platforms and communities of a YAML catalog, and feed posts.
package seed

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"rwid/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "password123"

// Options configure the seeder.
type Options struct {
	NumMembers        int
	PostsPerCommunity int
	MaxDays           int
	// OwnerUID reuses an existing account as the owner of every platform.
	OwnerUID   string
	Clean      bool
	SkipBcrypt bool
	DryRun     bool
	// RandSeed makes generated content reproducible when non-zero.
	RandSeed int64
}

// Factory builds domain entities with fake content.
type Factory struct {
	db           *gorm.DB
	opts         Options
	faker        *gofakeit.Faker
	passwordHash string
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a Factory bound to db.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{db: db, opts: opts, faker: gofakeit.New(seed), nextID: 1000}
}

func (f *Factory) hash() (string, error) {
	if f.passwordHash != "" {
		return f.passwordHash, nil
	}
	if f.opts.SkipBcrypt {
		f.passwordHash = DefaultPassword
		return f.passwordHash, nil
	}
	h, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash seed password: %w", err)
	}
	f.passwordHash = string(h)
	return f.passwordHash, nil
}

// BuildAccount returns an unsaved password account with a fake identity.
func (f *Factory) BuildAccount(overrides ...func(*models.Account)) *models.Account {
	first, last := f.faker.FirstName(), f.faker.LastName()
	username := strings.ToLower(fmt.Sprintf("%s_%s%d", first, last, f.faker.Number(10, 999)))
	email := username + "@example.com"
	account := &models.Account{
		UID:         uuid.NewString(),
		Username:    &username,
		Email:       &email,
		DisplayName: first + " " + last,
		PhotoURL:    fmt.Sprintf("https://i.pravatar.cc/150?u=%s", username),
		Provider:    models.ProviderPassword,
	}
	for _, override := range overrides {
		override(account)
	}
	return account
}

// CreateAccount persists an account and its profile.
func (f *Factory) CreateAccount(ctx context.Context, overrides ...func(*models.Account)) (*models.Account, error) {
	account := f.BuildAccount(overrides...)
	hash, err := f.hash()
	if err != nil {
		return nil, err
	}
	account.PasswordHash = hash

	if f.opts.DryRun {
		log.Printf("[dry-run] CreateAccount: %s", account.DisplayName)
		return account, nil
	}

	profile := models.NewProfileFor(account.Principal())
	err = f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(account).Error; err != nil {
			return err
		}
		return tx.Create(&profile).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create account %s: %w", account.DisplayName, err)
	}
	return account, nil
}

// BuildPost returns an unsaved post by author in community, dated within
// the last MaxDays days.
func (f *Factory) BuildPost(community *models.Community, author *models.Account, overrides ...func(*models.Post)) *models.Post {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 30
	}
	age := time.Duration(f.faker.Number(0, maxDays*24*60-1)) * time.Minute

	post := &models.Post{
		PlatformID:    community.PlatformID,
		CommunityID:   community.ID,
		CommunityName: community.Name,
		AuthorID:      author.UID,
		AuthorName:    author.DisplayName,
		AuthorAvatar:  author.PhotoURL,
		Content:       f.faker.Paragraph(1, f.faker.Number(1, 4), 12, " "),
		CreatedAt:     time.Now().Add(-age),
	}
	if f.faker.Number(1, 4) == 1 {
		post.Title = strings.TrimSuffix(f.faker.Sentence(6), ".")
	}
	if f.faker.Number(1, 5) == 1 {
		post.ImageURL = fmt.Sprintf("https://picsum.photos/seed/%s/800/600", f.faker.UUID())
	}
	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePosts persists posts in one batch.
func (f *Factory) CreatePosts(ctx context.Context, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	if f.opts.DryRun {
		for _, p := range posts {
			f.nextID++
			p.ID = f.nextID
		}
		log.Printf("[dry-run] CreatePosts: %d posts (no DB write)", len(posts))
		return nil
	}
	return f.db.WithContext(ctx).Create(&posts).Error
}

// Chance returns true with probability 1/n.
func (f *Factory) Chance(n int) bool {
	if n <= 1 {
		return true
	}
	return f.faker.Number(1, n) == 1
}
