package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/crm-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LeadFilters narrows lead list queries; zero values are ignored
type LeadFilters struct {
	Search    string
	Status    *domain.LeadStatus
	Converted *bool
	Owner     string
}

// LeadConversion holds the linkage written when a lead is converted
type LeadConversion struct {
	ConvertedStatus string
	AccountID       uuid.UUID
	ContactID       uuid.UUID
	OpportunityID   *uuid.UUID
	ConvertedAt     time.Time
}

var leadSortFields = map[string]string{
	"lastName":  "last_name",
	"firstName": "first_name",
	"company":   "company",
	"status":    "status",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

type LeadRepository struct {
	db *gorm.DB
}

func NewLeadRepository(db *gorm.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *LeadRepository) WithTx(tx *gorm.DB) *LeadRepository {
	return &LeadRepository{db: tx}
}

func (r *LeadRepository) Create(ctx context.Context, lead *domain.Lead) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(lead).Error
}

func (r *LeadRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error) {
	var lead domain.Lead
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&lead).Error
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *LeadRepository) Update(ctx context.Context, lead *domain.Lead) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(lead).Error
}

func (r *LeadRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Lead{}, "id = ?", id).Error
}

// MarkConverted moves the lead to its terminal status and records the conversion linkage.
// The update only applies to leads that are not converted yet; the returned bool is
// false when another conversion got there first.
func (r *LeadRepository) MarkConverted(ctx context.Context, id uuid.UUID, conv LeadConversion) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.Lead{}).
		Where("id = ? AND status <> ?", id, domain.LeadStatusConverted).
		Updates(map[string]interface{}{
			"status":                   domain.LeadStatusConverted,
			"converted_status":         conv.ConvertedStatus,
			"converted_account_id":     conv.AccountID,
			"converted_contact_id":     conv.ContactID,
			"converted_opportunity_id": conv.OpportunityID,
			"converted_at":             conv.ConvertedAt,
			"updated_at":               conv.ConvertedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *LeadRepository) List(ctx context.Context, filters LeadFilters, sort SortConfig) ([]domain.Lead, error) {
	var leads []domain.Lead

	query := r.db.WithContext(ctx).Model(&domain.Lead{})
	query = applySearch(query, filters.Search, "first_name", "last_name", "company", "email")

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Converted != nil {
		if *filters.Converted {
			query = query.Where("status = ?", domain.LeadStatusConverted)
		} else {
			query = query.Where("status <> ?", domain.LeadStatusConverted)
		}
	}
	if filters.Owner != "" {
		query = query.Where("owner = ?", filters.Owner)
	}

	err := query.Order(BuildOrderClause(sort, leadSortFields, "updated_at")).Find(&leads).Error
	return leads, err
}
