// Command main runs the database seeder for rwid.
package main

import (
	"context"
	"log"
	"os"

	"rwid/internal/bootstrap"
	"rwid/internal/config"
	"rwid/internal/database"
	"rwid/internal/seed"

	flag "github.com/spf13/pflag"
)

func main() {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	members := fs.Int("members", 12, "Number of member accounts to create")
	posts := fs.Int("posts", 8, "Posts to create per community")
	maxDays := fs.Int("max-days", 30, "Spread post timestamps over this many past days")
	catalogPath := fs.StringP("catalog", "c", "", "Path to a platform catalog YAML (defaults to the built-in catalog)")
	clean := fs.Bool("clean", false, "Delete existing platform data before seeding")
	dryRun := fs.Bool("dry-run", false, "Report what would be created without writing")
	fast := fs.Bool("fast", false, "Skip bcrypt hashing of seeded passwords (accounts cannot log in)")
	randSeed := fs.Int64("seed", 0, "Random seed for reproducible content")
	_ = fs.Parse(os.Args[1:])

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	catalog, err := loadCatalog(*catalogPath)
	if err != nil {
		log.Fatalf("❌ Catalog: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx := context.Background()
	opts := seed.Options{
		NumMembers:        *members,
		PostsPerCommunity: *posts,
		MaxDays:           *maxDays,
		Clean:             *clean,
		SkipBcrypt:        *fast,
		DryRun:            *dryRun,
		RandSeed:          *randSeed,
	}

	// Platforms belong to the development owner when one is configured.
	if !*dryRun {
		owner, err := bootstrap.EnsureDevOwner(ctx, cfg, db)
		if err != nil {
			log.Fatalf("❌ Development owner: %v", err)
		}
		if owner != nil {
			opts.OwnerUID = owner.UID
		}
	}

	summary, err := seed.NewSeeder(db, opts).Run(ctx, catalog)
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ All done! owner=%s members=%d platforms=%d communities=%d posts=%d likes=%d",
		summary.OwnerUID, summary.Members, summary.Platforms, summary.Communities, summary.Posts, summary.Reactions)
	if !*fast {
		log.Printf("📧 All seeded accounts have the password: %s", seed.DefaultPassword)
	}
}

func loadCatalog(path string) (*seed.Catalog, error) {
	if path == "" {
		return seed.DefaultCatalog()
	}
	return seed.LoadCatalog(path)
}
