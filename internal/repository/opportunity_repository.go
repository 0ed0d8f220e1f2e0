package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/straye-as/crm-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OpportunityFilters narrows opportunity list queries; zero values are ignored
type OpportunityFilters struct {
	Search    string
	AccountID *uuid.UUID
	Stage     *domain.OpportunityStage
}

var opportunitySortFields = map[string]string{
	"name":        "name",
	"stage":       "stage",
	"closeDate":   "close_date",
	"amount":      "amount",
	"probability": "probability",
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
}

type OpportunityRepository struct {
	db *gorm.DB
}

func NewOpportunityRepository(db *gorm.DB) *OpportunityRepository {
	return &OpportunityRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *OpportunityRepository) WithTx(tx *gorm.DB) *OpportunityRepository {
	return &OpportunityRepository{db: tx}
}

func (r *OpportunityRepository) Create(ctx context.Context, opp *domain.Opportunity) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(opp).Error
}

func (r *OpportunityRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Opportunity, error) {
	var opp domain.Opportunity
	err := r.db.WithContext(ctx).
		Preload("Account").
		First(&opp, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &opp, nil
}

func (r *OpportunityRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Opportunity{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *OpportunityRepository) Update(ctx context.Context, opp *domain.Opportunity) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(opp).Error
}

func (r *OpportunityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Opportunity{}, "id = ?", id).Error
}

func (r *OpportunityRepository) List(ctx context.Context, filters OpportunityFilters, sort SortConfig) ([]domain.Opportunity, error) {
	var opportunities []domain.Opportunity

	query := r.db.WithContext(ctx).Model(&domain.Opportunity{}).Preload("Account")
	query = applySearch(query, filters.Search, "name", "next_step")

	if filters.AccountID != nil {
		query = query.Where("account_id = ?", *filters.AccountID)
	}
	if filters.Stage != nil {
		query = query.Where("stage = ?", *filters.Stage)
	}

	err := query.Order(BuildOrderClause(sort, opportunitySortFields, "updated_at")).Find(&opportunities).Error
	return opportunities, err
}
