// Package main provides admin management utilities for rwid.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"slices"
	"strconv"

	"rwid/internal/config"
	"rwid/internal/database"
	"rwid/internal/models"
	"rwid/internal/repository"
	"rwid/internal/validation"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const usageText = `Usage:
  go run ./cmd/admin promote <login>                      - Promote account to admin
  go run ./cmd/admin demote <login>                       - Demote account from admin
  go run ./cmd/admin list-admins                          - List all admins
  go run ./cmd/admin set-password <login>                 - Set a password from RWID_NEW_PASSWORD
  go run ./cmd/admin mark-paid <platform-slug> <login>    - Unlock every community of a platform
  go run ./cmd/admin admit <platform-slug> <community-id> <login>
                                                          - Admit a member to one community
`

var errUsage = errors.New("invalid usage")

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usageText)
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := run(context.Background(), db, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Print(usageText)
		} else {
			fmt.Printf("❌ %v\n", err)
		}
		os.Exit(1)
	}
}

type admin struct {
	db        *gorm.DB
	accounts  repository.AccountRepository
	platforms repository.PlatformRepository
	out       io.Writer
}

func run(ctx context.Context, db *gorm.DB, args []string, out io.Writer) error {
	a := &admin{
		db:        db,
		accounts:  repository.NewAccountRepository(db),
		platforms: repository.NewPlatformRepository(db),
		out:       out,
	}

	switch {
	case len(args) == 2 && args[0] == "promote":
		return a.setAdmin(ctx, args[1], true)
	case len(args) == 2 && args[0] == "demote":
		return a.setAdmin(ctx, args[1], false)
	case len(args) == 1 && args[0] == "list-admins":
		return a.listAdmins(ctx)
	case len(args) == 2 && args[0] == "set-password":
		return a.setPassword(ctx, args[1], os.Getenv("RWID_NEW_PASSWORD"))
	case len(args) == 3 && args[0] == "mark-paid":
		return a.markPaid(ctx, args[1], args[2])
	case len(args) == 4 && args[0] == "admit":
		communityID, err := strconv.ParseUint(args[2], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid community id %q", args[2])
		}
		return a.admit(ctx, args[1], uint(communityID), args[3])
	default:
		return errUsage
	}
}

func (a *admin) account(ctx context.Context, login string) (*models.Account, error) {
	account, err := a.accounts.GetByLogin(ctx, login)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("account %q not found", login)
	}
	return account, nil
}

func (a *admin) setAdmin(ctx context.Context, login string, isAdmin bool) error {
	account, err := a.account(ctx, login)
	if err != nil {
		return err
	}
	if account.IsAdmin == isAdmin {
		fmt.Fprintf(a.out, "Account %s (%s) already has admin=%t\n", login, account.UID, isAdmin)
		return nil
	}

	account.IsAdmin = isAdmin
	if err := a.accounts.Update(ctx, account); err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	verb := "promoted"
	if !isAdmin {
		verb = "demoted"
	}
	fmt.Fprintf(a.out, "✅ Successfully %s %s (%s)\n", verb, login, account.UID)
	return nil
}

func (a *admin) setPassword(ctx context.Context, login, password string) error {
	if password == "" {
		return errors.New("RWID_NEW_PASSWORD is not set")
	}
	account, err := a.account(ctx, login)
	if err != nil {
		return err
	}
	username := ""
	if account.Username != nil {
		username = *account.Username
	}
	if err := validation.ValidatePassword(password, username); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	account.PasswordHash = string(hash)
	if err := a.accounts.Update(ctx, account); err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	fmt.Fprintf(a.out, "✅ Password updated for %s (%s)\n", login, account.UID)
	return nil
}

func (a *admin) listAdmins(ctx context.Context) error {
	var admins []models.Account
	if err := a.db.WithContext(ctx).Where("is_admin = ?", true).Order("created_at ASC").Find(&admins).Error; err != nil {
		return fmt.Errorf("fetch admins: %w", err)
	}

	if len(admins) == 0 {
		fmt.Fprintln(a.out, "No admins found in the system")
		return nil
	}

	fmt.Fprintln(a.out, "📋 Current Admins:")
	fmt.Fprintln(a.out, "─────────────────────────────────────")
	for _, acc := range admins {
		username, email := "-", "-"
		if acc.Username != nil {
			username = *acc.Username
		}
		if acc.Email != nil {
			email = *acc.Email
		}
		fmt.Fprintf(a.out, "UID: %s | Username: %s | Email: %s\n", acc.UID, username, email)
	}
	fmt.Fprintln(a.out, "─────────────────────────────────────")
	return nil
}

// membership loads the current record so updates keep existing admissions.
func (a *admin) membership(ctx context.Context, slug, login string) (*models.Platform, *models.PlatformMember, error) {
	platform, err := a.platforms.GetBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	account, err := a.account(ctx, login)
	if err != nil {
		return nil, nil, err
	}
	member, err := a.platforms.GetMember(ctx, platform.ID, account.UID)
	if err != nil {
		return nil, nil, err
	}
	if member == nil {
		member = &models.PlatformMember{PlatformID: platform.ID, UserID: account.UID}
	}
	return platform, member, nil
}

func (a *admin) markPaid(ctx context.Context, slug, login string) error {
	platform, member, err := a.membership(ctx, slug, login)
	if err != nil {
		return err
	}
	member.HasPaid = true
	if err := a.platforms.UpsertMember(ctx, member); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✅ %s now has full access to %s\n", login, platform.Name)
	return nil
}

func (a *admin) admit(ctx context.Context, slug string, communityID uint, login string) error {
	platform, member, err := a.membership(ctx, slug, login)
	if err != nil {
		return err
	}
	community, err := a.platforms.GetCommunity(ctx, platform.ID, communityID)
	if err != nil {
		return err
	}
	if !slices.Contains(member.CommunityIDs, community.ID) {
		member.CommunityIDs = append(member.CommunityIDs, community.ID)
	}
	if err := a.platforms.UpsertMember(ctx, member); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✅ %s admitted to %s / %s\n", login, platform.Name, community.Name)
	return nil
}
