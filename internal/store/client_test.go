package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"waste-console/internal/apperr"
	"waste-console/internal/models"
)

func reply(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": status < 300, "data": data})
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Options{BaseURL: srv.URL + "/api/", Logger: zaptest.NewLogger(t)})
}

func TestLoginPassesCredentialsAndReturnsTokens(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ana@primarie.ro", body["email"])
		reply(w, http.StatusOK, map[string]any{
			"user":          models.User{ID: "u1", Role: models.RoleEditorInstitution, InstitutionID: "inst-1"},
			"access_token":  "opaque-access",
			"refresh_token": "opaque-refresh",
		})
	})

	res, err := c.Login(context.Background(), "ana@primarie.ro", "secret")
	require.NoError(t, err)
	assert.Equal(t, "u1", res.User.ID)
	assert.Equal(t, "opaque-access", res.AccessToken)
	assert.Equal(t, "opaque-refresh", res.RefreshToken)
}

func TestListTicketsForwardsTokenAndQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/tickets/landfill", r.URL.Path)
		assert.Equal(t, "2024", r.URL.Query().Get("year"))
		assert.Equal(t, "sec-3", r.URL.Query().Get("sector_id"))
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		reply(w, http.StatusOK, map[string]any{
			"items":          []models.WasteTicket{{ID: "t1", NetWeightKg: 1000}},
			"pagination":     Pagination{Page: 1, Limit: 20, Total: 1, TotalPages: 1},
			"summary":        models.TicketSummary{TotalTons: 1, TotalTickets: 1},
			"location_label": "Sector 3",
		})
	})

	page, err := c.ListTickets(context.Background(), "tok", models.ReportLandfill,
		TicketQuery{Year: 2024, SectorID: "sec-3", Page: 1, Limit: 20})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, int64(1000), page.Items[0].NetWeightKg)
	assert.Equal(t, 1, page.Summary.TotalTickets)
	assert.Equal(t, "Sector 3", page.LocationLabel)
}

func TestListAllTicketsWalksPages(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		reply(w, http.StatusOK, map[string]any{
			"items":      []models.WasteTicket{{ID: fmt.Sprintf("t%d", page)}},
			"pagination": Pagination{Page: page, Limit: listPageLimit, Total: 3, TotalPages: 3},
		})
	})

	all, err := c.ListAllTickets(context.Background(), "tok", models.ReportTMB, TicketQuery{Year: 2024})
	require.NoError(t, err)
	require.Len(t, all.Items, 3)
	assert.Equal(t, []string{"t1", "t2", "t3"}, []string{all.Items[0].ID, all.Items[1].ID, all.Items[2].ID})
	assert.Equal(t, 3, all.Pagination.Total)
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		kind   apperr.Kind
	}{
		{http.StatusUnprocessableEntity, apperr.KindValidation},
		{http.StatusBadRequest, apperr.KindValidation},
		{http.StatusForbidden, apperr.KindAuthorization},
		{http.StatusUnauthorized, apperr.KindAuthorization},
		{http.StatusNotFound, apperr.KindNotFound},
		{http.StatusBadGateway, apperr.KindNetwork},
		{http.StatusTeapot, apperr.KindNetwork},
	}
	for _, tc := range cases {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": false,
				"message": "nope",
				"errors":  map[string]string{"ticket_number": "already used"},
			})
		})
		_, err := c.GetTicket(context.Background(), "tok", models.ReportLandfill, "t1")
		assert.True(t, apperr.Is(err, tc.kind), "status %d: %v", tc.status, err)
	}
}

func TestValidationKeepsField(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"success":false,"errors":{"ticket_number":"already used"}}`))
	})
	_, err := c.CreateTicket(context.Background(), "tok", models.ReportLandfill, models.TicketInput{})
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "ticket_number", appErr.Field)
	assert.Equal(t, "already used", appErr.Msg)
}

func TestTransportFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()
	c := New(Options{BaseURL: srv.URL, Logger: zaptest.NewLogger(t)})

	_, err := c.ListSectors(context.Background(), "tok")
	assert.True(t, apperr.Is(err, apperr.KindNetwork))
}

func TestBreakerOpensOnServerErrorsButNotOnRejections(t *testing.T) {
	var calls atomic.Int32
	var status atomic.Int32
	status.Store(http.StatusNotFound)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(int(status.Load()))
	})

	for i := 0; i < 10; i++ {
		_, err := c.GetUser(context.Background(), "tok", "u1")
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
	}
	assert.Equal(t, int32(10), calls.Load())

	status.Store(http.StatusInternalServerError)
	for i := 0; i < 10; i++ {
		_, err := c.GetUser(context.Background(), "tok", "u1")
		assert.True(t, apperr.Is(err, apperr.KindNetwork))
	}
	assert.Equal(t, int32(15), calls.Load(), "breaker should stop calls after five consecutive failures")
}

func TestCancelledCallsDoNotOpenBreaker(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		reply(w, http.StatusOK, []models.Sector{{ID: "s1", Number: 1}})
	})

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	expired, cancelExpired := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancelExpired()

	for i := 0; i < 5; i++ {
		_, err := c.ListSectors(cancelled, "tok")
		assert.True(t, apperr.Is(err, apperr.KindNetwork))
		_, err = c.ListSectors(expired, "tok")
		assert.True(t, apperr.Is(err, apperr.KindNetwork))
	}

	sectors, err := c.ListSectors(context.Background(), "tok")
	require.NoError(t, err)
	assert.Len(t, sectors, 1)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDeleteWithEmptyBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	})
	assert.NoError(t, c.DeleteUser(context.Background(), "tok", "u2"))
}
