package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/straye-as/crm-api/internal/auth"
	"github.com/straye-as/crm-api/internal/database"
	"github.com/straye-as/crm-api/internal/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens a private in-memory SQLite database with the CRM schema.
// A single connection is used so transactions and plain queries never contend.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err, "failed to open sqlite test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db))

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

// UserContext returns a context carrying an identified caller
func UserContext(name string) context.Context {
	return auth.WithUserContext(context.Background(), &auth.UserContext{
		DisplayName: name,
		Email:       "test@example.com",
	})
}

// CountRows returns the number of rows of model's table
func CountRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(model).Count(&count).Error)
	return count
}

// CreateTestAccount creates an account and returns it
func CreateTestAccount(t *testing.T, db *gorm.DB, name string) *domain.Account {
	t.Helper()
	account := &domain.Account{
		Name:  name,
		Owner: "Test Owner",
		Type:  domain.AccountTypeProspect,
	}
	require.NoError(t, db.Omit(clause.Associations).Create(account).Error)
	return account
}

// CreateTestContact creates a contact under account and returns it
func CreateTestContact(t *testing.T, db *gorm.DB, accountID uuid.UUID, firstName, lastName string) *domain.Contact {
	t.Helper()
	contact := &domain.Contact{
		FirstName: firstName,
		LastName:  lastName,
		AccountID: accountID,
		Email:     firstName + "." + lastName + "@example.com",
		Owner:     "Test Owner",
	}
	require.NoError(t, db.Omit(clause.Associations).Create(contact).Error)
	return contact
}

// CreateTestOpportunity creates an opportunity in the Qualify stage and returns it
func CreateTestOpportunity(t *testing.T, db *gorm.DB, accountID uuid.UUID, name string) *domain.Opportunity {
	t.Helper()
	opp := &domain.Opportunity{
		Name:             name,
		AccountID:        accountID,
		Stage:            domain.OpportunityStageQualify,
		CloseDate:        time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC),
		Amount:           decimal.NewFromInt(1000),
		Probability:      domain.OpportunityStageQualify.DefaultProbability(),
		ForecastCategory: domain.OpportunityStageQualify.DefaultForecastCategory(),
		Owner:            "Test Owner",
	}
	require.NoError(t, db.Omit(clause.Associations).Create(opp).Error)
	return opp
}

// CreateTestLead creates an open lead and returns it
func CreateTestLead(t *testing.T, db *gorm.DB, firstName, lastName, company string) *domain.Lead {
	t.Helper()
	lead := &domain.Lead{
		Salutation: "Ms.",
		FirstName:  firstName,
		LastName:   lastName,
		Company:    company,
		Email:      firstName + "@" + "example.com",
		Phone:      "555-0100",
		Status:     domain.LeadStatusOpen,
		Owner:      "Lead Owner",
	}
	require.NoError(t, db.Omit(clause.Associations).Create(lead).Error)
	return lead
}
