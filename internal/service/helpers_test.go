package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/straye-as/crm-api/internal/events"
	"github.com/straye-as/crm-api/internal/lock"
	"github.com/straye-as/crm-api/internal/repository"
	"github.com/straye-as/crm-api/internal/service"
	"github.com/straye-as/crm-api/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// recordingPublisher keeps published events for assertions
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) ofType(eventType string) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Event
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type testServices struct {
	db            *gorm.DB
	publisher     *recordingPublisher
	accounts      *service.AccountService
	contacts      *service.ContactService
	opportunities *service.OpportunityService
	leads         *service.LeadService
	activities    *service.ActivityService
}

var testDefaults = service.Defaults{
	Owner:           "CRM Integration",
	ConvertedStatus: "Qualified",
}

func setupServices(t *testing.T) *testServices {
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	publisher := &recordingPublisher{}

	accountRepo := repository.NewAccountRepository(db)
	contactRepo := repository.NewContactRepository(db)
	opportunityRepo := repository.NewOpportunityRepository(db)
	leadRepo := repository.NewLeadRepository(db)

	activities := service.NewActivityService(repository.NewActivityRepository(db), logger)
	accounts := service.NewAccountService(accountRepo, activities, lock.NewLocalLocker(5*time.Second), publisher, testDefaults, logger)

	return &testServices{
		db:            db,
		publisher:     publisher,
		accounts:      accounts,
		contacts:      service.NewContactService(contactRepo, accountRepo, accounts, activities, testDefaults, logger),
		opportunities: service.NewOpportunityService(opportunityRepo, accountRepo, accounts, activities, testDefaults, logger),
		leads:         service.NewLeadService(db, leadRepo, accountRepo, contactRepo, opportunityRepo, activities, publisher, testDefaults, logger),
		activities:    activities,
	}
}

func strPtr(s string) *string { return &s }
