package handler_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/straye-as/crm-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityHandler_List(t *testing.T) {
	h := setupHandlers(t)

	rr := serve(h.accounts.Resolve, newRequest(t, http.MethodPost, "/accounts/resolve", "", domain.ResolveAccountRequest{Name: "Acme"}))
	require.Equal(t, http.StatusCreated, rr.Code)
	var resolved domain.ResolveAccountResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resolved))

	rr = serve(h.activities.List, newRequest(t, http.MethodGet, "/activities?targetType=Account&targetId="+resolved.AccountID.String(), "", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var activities []domain.ActivityDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &activities))
	require.NotEmpty(t, activities)
	assert.Equal(t, resolved.AccountID, activities[0].TargetID)

	tests := []struct {
		name  string
		query string
	}{
		{"unknown target type", "?targetType=Invoice"},
		{"malformed target id", "?targetId=abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(h.activities.List, newRequest(t, http.MethodGet, "/activities"+tt.query, "", nil))
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}
