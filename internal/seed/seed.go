package seed

import (
	"context"
	"errors"
	"fmt"
	"log"

	"rwid/internal/models"
	"rwid/internal/repository"

	"gorm.io/gorm"
)

// ownerUsername is the login of the seeded platform owner.
const ownerUsername = "owner"

// Summary reports what a seeding run created.
type Summary struct {
	OwnerUID    string
	Members     int
	Platforms   int
	Communities int
	Posts       int
	Reactions   int
}

// Seeder populates the database from a catalog.
type Seeder struct {
	db        *gorm.DB
	opts      Options
	factory   *Factory
	platforms repository.PlatformRepository
	posts     repository.PostRepository
}

// NewSeeder returns a seeder writing to db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	s := &Seeder{db: db, opts: opts, factory: NewFactory(db, opts)}
	if db != nil {
		s.platforms = repository.NewPlatformRepository(db)
		s.posts = repository.NewPostRepository(db)
	}
	return s
}

// Run seeds every platform of catalog.
func (s *Seeder) Run(ctx context.Context, catalog *Catalog) (*Summary, error) {
	if catalog == nil {
		return nil, errors.New("catalog is required")
	}
	if s.opts.DryRun {
		return s.dryRun(catalog), nil
	}

	log.Printf("🌱 Seeding %d platforms with %d members...", len(catalog.Platforms), s.opts.NumMembers)

	if s.opts.Clean {
		if err := Clear(ctx, s.db); err != nil {
			return nil, fmt.Errorf("clear data: %w", err)
		}
	}

	owner, err := s.ensureOwner(ctx)
	if err != nil {
		return nil, err
	}
	summary := &Summary{OwnerUID: owner.UID}

	members := make([]*models.Account, 0, s.opts.NumMembers)
	for i := 0; i < s.opts.NumMembers; i++ {
		member, err := s.factory.CreateAccount(ctx)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	summary.Members = len(members)

	for _, spec := range catalog.Platforms {
		if err := s.seedPlatform(ctx, spec, owner, members, summary); err != nil {
			return nil, fmt.Errorf("seed platform %s: %w", spec.Slug, err)
		}
	}

	log.Printf("🎉 Seeding complete: %d platforms, %d communities, %d posts, %d likes",
		summary.Platforms, summary.Communities, summary.Posts, summary.Reactions)
	return summary, nil
}

func (s *Seeder) dryRun(catalog *Catalog) *Summary {
	summary := &Summary{Members: s.opts.NumMembers, Platforms: len(catalog.Platforms)}
	for _, p := range catalog.Platforms {
		summary.Communities += len(p.Communities)
		summary.Posts += len(p.Communities)*s.opts.PostsPerCommunity + len(p.Pinned)
	}
	log.Printf("[dry-run] would seed %+v", *summary)
	return summary
}

// ensureOwner returns the configured owner, the existing seeded owner, or a
// newly created one.
func (s *Seeder) ensureOwner(ctx context.Context) (*models.Account, error) {
	var owner models.Account
	if s.opts.OwnerUID != "" {
		if err := s.db.WithContext(ctx).Where("uid = ?", s.opts.OwnerUID).First(&owner).Error; err != nil {
			return nil, fmt.Errorf("load owner %s: %w", s.opts.OwnerUID, err)
		}
		return &owner, nil
	}

	err := s.db.WithContext(ctx).Where("username = ?", ownerUsername).First(&owner).Error
	if err == nil {
		return &owner, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return s.factory.CreateAccount(ctx, func(a *models.Account) {
		username := ownerUsername
		email := "owner@rwid.local"
		a.Username = &username
		a.Email = &email
		a.DisplayName = "Platform Owner"
	})
}

func (s *Seeder) seedPlatform(ctx context.Context, spec PlatformSpec, owner *models.Account, members []*models.Account, summary *Summary) error {
	platform, created, err := s.upsertPlatform(ctx, spec, owner)
	if err != nil {
		return err
	}
	summary.Platforms++

	communities := make([]*models.Community, 0, len(spec.Communities))
	for _, cs := range spec.Communities {
		community, err := s.ensureCommunity(ctx, platform, cs)
		if err != nil {
			return err
		}
		communities = append(communities, community)
	}
	summary.Communities += len(communities)

	// A third of the members pay; the rest are admitted to one community.
	for i, member := range members {
		pm := &models.PlatformMember{PlatformID: platform.ID, UserID: member.UID}
		switch {
		case i%3 == 0:
			pm.HasPaid = true
		case len(communities) > 0:
			pm.CommunityIDs = []uint{communities[i%len(communities)].ID}
		}
		if err := s.platforms.UpsertMember(ctx, pm); err != nil {
			return err
		}
	}

	// Posts are only written for platforms this run created.
	if !created || len(communities) == 0 {
		return nil
	}

	var posts []*models.Post
	for _, content := range spec.Pinned {
		posts = append(posts, s.factory.BuildPost(communities[0], owner, func(p *models.Post) {
			p.Content = content
			p.Title = ""
			p.ImageURL = ""
			p.Pinned = true
		}))
	}
	authors := append([]*models.Account{owner}, members...)
	for _, community := range communities {
		for i := 0; i < s.opts.PostsPerCommunity; i++ {
			author := authors[i%len(authors)]
			posts = append(posts, s.factory.BuildPost(community, author))
		}
	}
	if err := s.factory.CreatePosts(ctx, posts); err != nil {
		return err
	}
	summary.Posts += len(posts)

	for _, post := range posts {
		for _, member := range members {
			if !s.factory.Chance(4) {
				continue
			}
			if _, err := s.posts.ToggleLike(ctx, post.ID, member.UID); err != nil {
				return err
			}
			summary.Reactions++
		}
	}
	return nil
}

// upsertPlatform creates the platform or refreshes it from spec. created
// reports whether it is new.
func (s *Seeder) upsertPlatform(ctx context.Context, spec PlatformSpec, owner *models.Account) (*models.Platform, bool, error) {
	platform := &models.Platform{
		Name:        spec.Name,
		Slug:        spec.Slug,
		Tagline:     spec.Tagline,
		Description: spec.Description,
		Branding: models.PlatformBranding{
			LogoURL:      spec.LogoURL,
			PrimaryColor: spec.PrimaryColor,
		},
		Settings: models.PlatformSettings{Features: models.PlatformFeatures{
			Communities:    spec.Features.Communities,
			Courses:        spec.Features.Courses,
			SuccessStories: spec.Features.SuccessStories,
		}},
		OwnerID: owner.UID,
		Public:  spec.Public,
	}

	var existing models.Platform
	err := s.db.WithContext(ctx).Where("slug = ?", spec.Slug).First(&existing).Error
	switch {
	case err == nil:
		platform.ID = existing.ID
		platform.CreatedAt = existing.CreatedAt
		if err := s.db.WithContext(ctx).Save(platform).Error; err != nil {
			return nil, false, err
		}
		return platform, false, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := s.platforms.Create(ctx, platform); err != nil {
			return nil, false, err
		}
		return platform, true, nil
	default:
		return nil, false, err
	}
}

func (s *Seeder) ensureCommunity(ctx context.Context, platform *models.Platform, spec CommunitySpec) (*models.Community, error) {
	var community models.Community
	err := s.db.WithContext(ctx).
		Where("platform_id = ? AND name = ?", platform.ID, spec.Name).
		First(&community).Error
	if err == nil {
		return &community, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	community = models.Community{
		PlatformID:  platform.ID,
		Name:        spec.Name,
		Description: spec.Description,
		Thumbnail:   spec.Thumbnail,
	}
	if err := s.platforms.CreateCommunity(ctx, &community); err != nil {
		return nil, err
	}
	return &community, nil
}

// Clear deletes all application rows, children first.
func Clear(ctx context.Context, db *gorm.DB) error {
	log.Println("🗑️  Clearing existing data...")
	tx := db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, model := range []interface{}{
		&models.Bookmark{},
		&models.Reaction{},
		&models.Post{},
		&models.MemberCommunity{},
		&models.PlatformMember{},
		&models.Community{},
		&models.Platform{},
		&models.Profile{},
		&models.Account{},
	} {
		if err := tx.Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}
