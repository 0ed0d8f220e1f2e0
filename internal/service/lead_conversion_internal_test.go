package service

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/straye-as/crm-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestEndOfQuarter(t *testing.T) {
	tests := []struct {
		in   time.Time
		want string
	}{
		{time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), "2026-03-31"},
		{time.Date(2026, time.March, 31, 23, 59, 0, 0, time.UTC), "2026-03-31"},
		{time.Date(2026, time.April, 15, 12, 0, 0, 0, time.UTC), "2026-06-30"},
		{time.Date(2026, time.August, 2, 0, 0, 0, 0, time.UTC), "2026-09-30"},
		{time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC), "2026-12-31"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, endOfQuarter(tt.in).Format("2006-01-02"), tt.in.String())
	}
}

func TestDefaultOpportunityName(t *testing.T) {
	assert.Equal(t, "Acme - Jane Doe", defaultOpportunityName(&domain.Lead{FirstName: "Jane", LastName: "Doe", Company: "Acme"}))
	assert.Equal(t, "Jane Doe", defaultOpportunityName(&domain.Lead{FirstName: "Jane", LastName: "Doe"}))
	assert.Equal(t, "Doe", defaultOpportunityName(&domain.Lead{LastName: "Doe"}))

	long := defaultOpportunityName(&domain.Lead{LastName: "Doe", Company: strings.Repeat("x", 200)})
	assert.LessOrEqual(t, len(long), maxOpportunityNameLength)

	accented := defaultOpportunityName(&domain.Lead{LastName: "Doe", Company: "a" + strings.Repeat("é", 130)})
	assert.True(t, utf8.ValidString(accented))
	assert.Equal(t, maxOpportunityNameLength, utf8.RuneCountInString(accented))
	assert.True(t, strings.HasSuffix(accented, "é"))
}
