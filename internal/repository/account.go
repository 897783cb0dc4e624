package repository

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"rwid/internal/models"
	"rwid/internal/observability"

	"gorm.io/gorm"
)

// AccountRepository defines persistence operations for identity-provider accounts.
type AccountRepository interface {
	GetByUID(ctx context.Context, uid string) (*models.Account, error)
	// GetByLogin finds an account by username or email. It returns nil, nil
	// when nothing matches.
	GetByLogin(ctx context.Context, login string) (*models.Account, error)
	GetByProviderSubject(ctx context.Context, provider, subject string) (*models.Account, error)
	Create(ctx context.Context, account *models.Account) error
	Update(ctx context.Context, account *models.Account) error
}

type accountRepository struct {
	db      *gorm.DB
	log     *observability.RepoLogger
	metrics *observability.DatabaseMetrics
}

// NewAccountRepository returns a new AccountRepository implementation.
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{
		db:      db,
		log:     observability.NewRepoLogger("accounts"),
		metrics: observability.NewDatabaseMetrics("accounts"),
	}
}

func (r *accountRepository) GetByUID(ctx context.Context, uid string) (*models.Account, error) {
	defer r.metrics.TrackQuery("select")()

	var account models.Account
	if err := r.db.WithContext(ctx).Where("uid = ?", uid).First(&account).Error; err != nil {
		return nil, lookupError(err, "Account", uid)
	}
	return &account, nil
}

func (r *accountRepository) GetByLogin(ctx context.Context, login string) (*models.Account, error) {
	defer r.metrics.TrackQuery("select")()

	login = strings.TrimSpace(login)
	if login == "" {
		return nil, nil
	}

	var account models.Account
	err := r.db.WithContext(ctx).
		Where("username = ? OR LOWER(email) = ?", login, strings.ToLower(login)).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.Failed(ctx, "get_by_login", err)
		return nil, models.NewInternalError(err)
	}
	return &account, nil
}

func (r *accountRepository) GetByProviderSubject(ctx context.Context, provider, subject string) (*models.Account, error) {
	defer r.metrics.TrackQuery("select")()

	var account models.Account
	err := r.db.WithContext(ctx).
		Where("provider = ? AND provider_subject = ?", provider, subject).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &account, nil
}

func (r *accountRepository) Create(ctx context.Context, account *models.Account) error {
	defer r.metrics.TrackQuery("insert")()

	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		if isDuplicate(err) {
			return models.NewConflictError("Account already exists")
		}
		r.log.Failed(ctx, "create", err)
		return models.NewInternalError(err)
	}
	r.log.Changed(ctx, "create", slog.String("uid", account.UID), slog.String("provider", account.Provider))
	return nil
}

func (r *accountRepository) Update(ctx context.Context, account *models.Account) error {
	defer r.metrics.TrackQuery("update")()

	if err := r.db.WithContext(ctx).Save(account).Error; err != nil {
		if isDuplicate(err) {
			return models.NewConflictError("Account already exists")
		}
		return models.NewInternalError(err)
	}
	r.log.Changed(ctx, "update", slog.String("uid", account.UID))
	return nil
}
