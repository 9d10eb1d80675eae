package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"installerpro/internal/core"
	"installerpro/internal/kv"
	"installerpro/internal/pricing"
	"installerpro/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st, err := store.Open(context.Background(), kv.NewMemory(), store.Options{
		CodePolicy: core.CodeStrict,
		Rollover:   store.RolloverArchival,
	}, nil)
	require.NoError(t, err)
	return NewServer(":0", st, pricing.FlatTier, false)
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func createInstallation(t *testing.T, s *Server, code, date string) installationResponse {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/api/installations", installationRequest{Code: code, Date: date})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp installationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := do(t, s, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestCreateInstallation(t *testing.T) {
	s := newTestServer(t)

	resp := createInstallation(t, s, "12345", "2026-08-29")
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "12345", resp.Code)
	assert.Equal(t, "2026-08-29", resp.Date)
}

func TestCreateInstallationRejectsBadCode(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/installations", installationRequest{Code: "1234", Date: "2026-08-29"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/installations", installationRequest{Code: "123456", Date: "2026-08-29"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCreateInstallationRejectsBadDate(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/installations", installationRequest{Code: "12345", Date: "29/08/2026"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCreateInstallationRejectsMalformedBody(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/installations", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteInstallationIsIdempotent(t *testing.T) {
	s := newTestServer(t)
	created := createInstallation(t, s, "12345", "2026-08-29")

	rec := do(t, s, http.MethodDelete, "/api/installations/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodDelete, "/api/installations/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodDelete, "/api/installations/never-existed", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestListInstallationsFilters(t *testing.T) {
	s := newTestServer(t)
	today := core.Today()

	createInstallation(t, s, "12345", today.ISO())
	createInstallation(t, s, "1234567", today.ISO())
	createInstallation(t, s, "54321", "2020-01-15")

	cases := []struct {
		query string
		want  int
	}{
		{"", 3},
		{"?filter=all", 3},
		{"?filter=today", 2},
		{"?filter=month", 2},
		{"?filter=custom&start=2020-01-01&end=2020-01-31", 1},
	}
	for _, tc := range cases {
		rec := do(t, s, http.MethodGet, "/api/installations"+tc.query, nil)
		require.Equal(t, http.StatusOK, rec.Code, tc.query)

		var list []installationResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
		assert.Len(t, list, tc.want, tc.query)
	}
}

func TestListInstallationsCustomFilterNeedsBounds(t *testing.T) {
	s := newTestServer(t)

	for _, query := range []string{
		"?filter=custom",
		"?filter=custom&start=2026-08-01",
		"?filter=custom&start=2026-08-31&end=2026-08-01",
		"?filter=weekly",
	} {
		rec := do(t, s, http.MethodGet, "/api/installations"+query, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, query)
	}
}

func TestFuelLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/fuel", fuelRequest{Date: "2026-08-29", Amount: "50,00", Note: "posto"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created fuelResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, int64(5000), created.AmountCents)
	assert.Equal(t, "R$ 50,00", created.Amount)

	rec = do(t, s, http.MethodGet, "/api/fuel", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []fuelResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)

	rec = do(t, s, http.MethodDelete, "/api/fuel/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestFuelRejectsBadAmount(t *testing.T) {
	s := newTestServer(t)

	for _, amount := range []string{"", "0", "-10", "abc"} {
		rec := do(t, s, http.MethodPost, "/api/fuel", fuelRequest{Date: "2026-08-29", Amount: amount})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "amount %q", amount)
	}
}

func TestDashboardTotals(t *testing.T) {
	s := newTestServer(t)
	today := core.Today().ISO()

	for _, code := range []string{"11111", "22222", "33333"} {
		createInstallation(t, s, code, today)
	}
	rec := do(t, s, http.MethodPost, "/api/fuel", fuelRequest{Date: today, Amount: "50.00"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var dash dashboardResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dash))
	assert.Equal(t, 3, dash.Count)
	assert.Equal(t, int64(33000), dash.InstallTotal)
	assert.Equal(t, int64(5000), dash.FuelTotal)
	assert.Equal(t, int64(28000), dash.Balance)
	assert.Equal(t, "R$ 280,00", dash.BalanceFmt)
}

func TestDaysAggregation(t *testing.T) {
	s := newTestServer(t)
	today := core.Today().ISO()

	createInstallation(t, s, "11111", today)
	createInstallation(t, s, "22222", today)

	rec := do(t, s, http.MethodGet, "/api/days", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var days []dayResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &days))
	require.Len(t, days, 1)
	assert.Equal(t, today, days[0].Date)
	assert.Equal(t, 2, days[0].Count)
	assert.Equal(t, int64(10000), days[0].UnitPrice)
	assert.Equal(t, int64(20000), days[0].DayTotal)
}

func TestRolloverRequiresConfirmation(t *testing.T) {
	s := newTestServer(t)
	createInstallation(t, s, "12345", core.Today().ISO())

	rec := do(t, s, http.MethodPost, "/api/rollover", rolloverRequest{Confirm: false})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/rollover", rolloverRequest{Confirm: true, Period: "aug-2026"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/rollover", rolloverRequest{Confirm: true})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/installations", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []installationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Empty(t, list)
}

func TestExportCSV(t *testing.T) {
	s := newTestServer(t)
	createInstallation(t, s, "12345", "2026-08-29")

	rec := do(t, s, http.MethodGet, "/api/export/csv", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Equal(t, "date,code\n2026-08-29,12345\n", rec.Body.String())
}

func TestExportPDF(t *testing.T) {
	s := newTestServer(t)
	createInstallation(t, s, "12345", core.Today().ISO())

	rec := do(t, s, http.MethodGet, "/api/export/pdf", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}

func TestExportPDFRejectsBadPeriod(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/export/pdf?period=notaperiod", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestBackupAndRestoreRoundTrip(t *testing.T) {
	s := newTestServer(t)
	created := createInstallation(t, s, "12345", "2026-08-29")

	rec := do(t, s, http.MethodGet, "/api/backup", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	backup := rec.Body.Bytes()

	// Restore into a fresh deployment; the record and the technician
	// identity both follow the backup.
	var origTech technicianResponse
	techRec := do(t, s, http.MethodGet, "/api/technician", nil)
	require.NoError(t, json.Unmarshal(techRec.Body.Bytes(), &origTech))

	fresh := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/restore", bytes.NewReader(backup))
	rr := httptest.NewRecorder()
	fresh.Router().ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rec = do(t, fresh, http.MethodGet, "/api/installations", nil)
	var list []installationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	techRec = do(t, fresh, http.MethodGet, "/api/technician", nil)
	var restoredTech technicianResponse
	require.NoError(t, json.Unmarshal(techRec.Body.Bytes(), &restoredTech))
	assert.Equal(t, origTech.ID, restoredTech.ID)
}

func TestRestoreRejectsGarbage(t *testing.T) {
	s := newTestServer(t)

	for _, body := range []string{"not json", `{"key": 42}`, `[1,2,3]`} {
		req := httptest.NewRequest(http.MethodPost, "/api/restore", strings.NewReader(body))
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestTechnicianName(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/technician", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var tech technicianResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tech))
	assert.True(t, strings.HasPrefix(tech.ID, "TEC-"), tech.ID)
	assert.Empty(t, tech.Name)

	rec = do(t, s, http.MethodPut, "/api/technician", technicianRequest{Name: "João"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tech))
	assert.Equal(t, "João", tech.Name)
}

func TestRequestIDHeader(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/healthz", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "caller-supplied")
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	assert.Equal(t, "caller-supplied", rr.Header().Get("X-Request-Id"))
}

func TestClientNameRequiredWhenConfigured(t *testing.T) {
	st, err := store.Open(context.Background(), kv.NewMemory(), store.Options{
		CodePolicy:        core.CodeStrict,
		RequireClientName: true,
	}, nil)
	require.NoError(t, err)
	s := NewServer(":0", st, pricing.FlatTier, true)

	rec := do(t, s, http.MethodPost, "/api/installations", installationRequest{Code: "12345", Date: "2026-08-29"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/installations", installationRequest{
		Code: "12345", ClientName: "Silva, Maria", Date: "2026-08-29",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/export/csv", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, fmt.Sprintf("date,code,clientName\n2026-08-29,12345,%q\n", "Silva, Maria"), rec.Body.String())
}
