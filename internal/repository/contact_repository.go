package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/straye-as/crm-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ContactFilters narrows contact list queries; zero values are ignored
type ContactFilters struct {
	Search    string
	AccountID *uuid.UUID
}

var contactSortFields = map[string]string{
	"lastName":  "last_name",
	"firstName": "first_name",
	"email":     "email",
	"title":     "title",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

type ContactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *ContactRepository) WithTx(tx *gorm.DB) *ContactRepository {
	return &ContactRepository{db: tx}
}

func (r *ContactRepository) Create(ctx context.Context, contact *domain.Contact) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(contact).Error
}

func (r *ContactRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Contact, error) {
	var contact domain.Contact
	err := r.db.WithContext(ctx).
		Preload("Account").
		First(&contact, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

func (r *ContactRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Contact{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *ContactRepository) Update(ctx context.Context, contact *domain.Contact) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(contact).Error
}

// Delete removes the contact and detaches anyone reporting to it
func (r *ContactRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.Contact{}).
			Where("reports_to_id = ?", id).
			Update("reports_to_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Contact{}, "id = ?", id).Error
	})
}

func (r *ContactRepository) List(ctx context.Context, filters ContactFilters, sort SortConfig) ([]domain.Contact, error) {
	var contacts []domain.Contact

	query := r.db.WithContext(ctx).Model(&domain.Contact{}).Preload("Account")
	query = applySearch(query, filters.Search, "first_name", "last_name", "email", "title")

	if filters.AccountID != nil {
		query = query.Where("account_id = ?", *filters.AccountID)
	}

	err := query.Order(BuildOrderClause(sort, contactSortFields, "updated_at")).Find(&contacts).Error
	return contacts, err
}
