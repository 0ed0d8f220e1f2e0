package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/straye-as/crm-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AccountFilters narrows account list queries; zero values are ignored
type AccountFilters struct {
	Search string
	Name   string // exact name, case-insensitive
	Type   *domain.AccountType
	Owner  string
}

var accountSortFields = map[string]string{
	"name":      "name",
	"type":      "type",
	"owner":     "owner",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *AccountRepository) WithTx(tx *gorm.DB) *AccountRepository {
	return &AccountRepository{db: tx}
}

func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(account).Error
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	var account domain.Account
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// FindByName returns the oldest account whose name matches case-insensitively.
// Returns gorm.ErrRecordNotFound when no account matches.
func (r *AccountRepository) FindByName(ctx context.Context, name string) (*domain.Account, error) {
	var account domain.Account
	err := r.db.WithContext(ctx).
		Where("name_key = ?", domain.NormalizeAccountName(name)).
		Order("created_at ASC").
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Account{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *AccountRepository) Update(ctx context.Context, account *domain.Account) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(account).Error
}

func (r *AccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Account{}, "id = ?", id).Error
}

// CountDependents returns how many contacts, opportunities and child accounts reference the account
func (r *AccountRepository) CountDependents(ctx context.Context, id uuid.UUID) (int64, error) {
	var contacts, opportunities, children int64
	db := r.db.WithContext(ctx)
	if err := db.Model(&domain.Contact{}).Where("account_id = ?", id).Count(&contacts).Error; err != nil {
		return 0, err
	}
	if err := db.Model(&domain.Opportunity{}).Where("account_id = ?", id).Count(&opportunities).Error; err != nil {
		return 0, err
	}
	if err := db.Model(&domain.Account{}).Where("parent_account_id = ?", id).Count(&children).Error; err != nil {
		return 0, err
	}
	return contacts + opportunities + children, nil
}

func (r *AccountRepository) List(ctx context.Context, filters AccountFilters, sort SortConfig) ([]domain.Account, error) {
	var accounts []domain.Account

	query := r.db.WithContext(ctx).Model(&domain.Account{})
	query = applySearch(query, filters.Search, "name", "website", "phone")

	if strings.TrimSpace(filters.Name) != "" {
		query = query.Where("name_key = ?", domain.NormalizeAccountName(filters.Name))
	}
	if filters.Type != nil {
		query = query.Where("type = ?", *filters.Type)
	}
	if filters.Owner != "" {
		query = query.Where("owner = ?", filters.Owner)
	}

	err := query.Order(BuildOrderClause(sort, accountSortFields, "updated_at")).Find(&accounts).Error
	return accounts, err
}
