package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/nzhukovskiy/fundlink-api/models"
	"github.com/nzhukovskiy/fundlink-api/notifications"
	"github.com/nzhukovskiy/fundlink-api/services/rounds"
	"github.com/nzhukovskiy/fundlink-api/services/rounds/roundstest"
	"github.com/nzhukovskiy/fundlink-api/utils"
)

type apiResult struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	ErrorCode string          `json:"error_code"`
	Data      json.RawMessage `json:"data"`
}

type testAPI struct {
	t        *testing.T
	handler  http.Handler
	store    *roundstest.MemoryStore
	startup  uint
	investor uint
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("JWT_AUD", "")
	t.Setenv("JWT_ISS", "")

	store := roundstest.NewMemoryStore()
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	engine := rounds.New(store, notifications.Discard{}, rounds.Options{Now: func() time.Time { return now }})
	api := &testAPI{
		t:        t,
		handler:  InitRouter(Deps{Engine: engine, Hub: notifications.NewHub(), CronKey: "cron-secret"}),
		store:    store,
		startup:  store.AddStartup(models.Startup{Name: "Acme"}),
		investor: store.AddInvestor(models.Investor{Name: "Ann"}),
	}
	return api
}

func (a *testAPI) token(id uint, role string) string {
	tok, err := utils.GenerateAccessToken(id, role)
	if err != nil {
		a.t.Fatal(err)
	}
	return tok
}

func (a *testAPI) do(method, path, token string, body interface{}, headers ...string) (int, apiResult) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			a.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "203.0.113.1:1234"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)

	var res apiResult
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			a.t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code, res
}

func roundBody(start, end, goal string) map[string]string {
	return map[string]string{"start_date": start, "end_date": end, "funding_goal": goal}
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestFundingRoundLifecycleOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	startupTok := api.token(api.startup, utils.RoleStartup)
	investorTok := api.token(api.investor, utils.RoleInvestor)

	code, _ := api.do(http.MethodPost, "/v3/funding-rounds", "", roundBody("2025-01-01T00:00:00Z", "2025-03-01T00:00:00Z", "1000"))
	if code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", code)
	}
	code, _ = api.do(http.MethodPost, "/v3/funding-rounds", investorTok, roundBody("2025-01-01T00:00:00Z", "2025-03-01T00:00:00Z", "1000"))
	if code != http.StatusForbidden {
		t.Fatalf("expected 403 for investor, got %d", code)
	}

	code, res := api.do(http.MethodPost, "/v3/funding-rounds", startupTok, roundBody("2025-01-01T00:00:00Z", "2025-03-01T00:00:00Z", "1000"))
	if code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %+v", code, res)
	}
	var round models.FundingRound
	if err := json.Unmarshal(res.Data, &round); err != nil {
		t.Fatal(err)
	}
	if round.Stage != models.StageSeed || !round.IsCurrent {
		t.Fatalf("unexpected round %+v", round)
	}

	code, res = api.do(http.MethodPost, "/v3/funding-rounds", startupTok, roundBody("2025-02-15T00:00:00Z", "2025-04-01T00:00:00Z", "500"))
	if code != http.StatusConflict || res.ErrorCode != string(rounds.CodeOverlap) {
		t.Fatalf("expected overlap conflict, got %d %+v", code, res)
	}

	code, res = api.do(http.MethodPost, "/v3/funding-rounds", startupTok, roundBody("2025-05-01T00:00:00Z", "2025-04-01T00:00:00Z", "500"))
	if code != http.StatusBadRequest || res.ErrorCode != string(rounds.CodeInvalidDateRange) {
		t.Fatalf("expected invalid date range, got %d %+v", code, res)
	}

	path := "/v3/funding-rounds/" + itoa(round.ID)
	code, res = api.do(http.MethodPost, path+"/investments", investorTok, map[string]string{"amount": "300.50"})
	if code != http.StatusCreated {
		t.Fatalf("expected 201 for investment, got %d %+v", code, res)
	}
	code, _ = api.do(http.MethodPost, path+"/investments", startupTok, map[string]string{"amount": "1"})
	if code != http.StatusForbidden {
		t.Fatalf("expected 403 for startup investing, got %d", code)
	}

	code, res = api.do(http.MethodGet, path, "", nil)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if err := json.Unmarshal(res.Data, &round); err != nil {
		t.Fatal(err)
	}
	if round.CurrentRaised.String() != "300.5" || len(round.Investments) != 1 {
		t.Fatalf("unexpected round after investment %+v", round)
	}

	code, res = api.do(http.MethodPut, path, startupTok, roundBody("2025-01-01T00:00:00Z", "2025-03-01T00:00:00Z", "900"))
	if code != http.StatusBadRequest || res.ErrorCode != string(rounds.CodeLockedFieldEdit) {
		t.Fatalf("expected locked field edit, got %d %+v", code, res)
	}
	code, res = api.do(http.MethodPut, path, startupTok, roundBody("2025-01-01T00:00:00Z", "2025-04-01T00:00:00Z", "1000"))
	if code != http.StatusAccepted {
		t.Fatalf("expected 202 for proposal, got %d %+v", code, res)
	}

	code, res = api.do(http.MethodDelete, path, startupTok, nil)
	if code != http.StatusBadRequest || res.ErrorCode != string(rounds.CodeRoundHasInvestments) {
		t.Fatalf("expected delete refusal, got %d %+v", code, res)
	}

	code, _ = api.do(http.MethodDelete, path+"/proposal", startupTok, nil)
	if code != http.StatusOK {
		t.Fatalf("expected proposal cancel, got %d", code)
	}

	code, res = api.do(http.MethodGet, "/v3/startups/"+itoa(api.startup)+"/funding-rounds/current", "", nil)
	if code != http.StatusOK || len(res.Data) == 0 {
		t.Fatalf("expected current round, got %d %+v", code, res)
	}
	code, res = api.do(http.MethodGet, "/v3/startups/"+itoa(api.startup)+"/funding-rounds", "", nil)
	var list []models.FundingRound
	if err := json.Unmarshal(res.Data, &list); err != nil || code != http.StatusOK || len(list) != 1 {
		t.Fatalf("expected one round, got %d %v %s", code, err, res.Data)
	}
}

func TestValidationErrors(t *testing.T) {
	api := newTestAPI(t)
	tok := api.token(api.startup, utils.RoleStartup)

	code, res := api.do(http.MethodPost, "/v3/funding-rounds", tok, roundBody("2025-01-01", "2025-03-01T00:00:00Z", "1000"))
	if code != http.StatusBadRequest || res.ErrorCode != "VALIDATION_FAILED" {
		t.Fatalf("expected validation failure, got %d %+v", code, res)
	}
	code, res = api.do(http.MethodPost, "/v3/funding-rounds", tok, roundBody("2025-01-01T00:00:00Z", "2025-03-01T00:00:00Z", "0"))
	if code != http.StatusBadRequest || res.ErrorCode != string(rounds.CodeInvalidAmount) {
		t.Fatalf("expected invalid amount, got %d %+v", code, res)
	}
	code, res = api.do(http.MethodPost, "/v3/funding-rounds", tok, roundBody("2025-01-01T00:00:00Z", "2025-03-01T00:00:00Z", "1000.123456789"))
	if code != http.StatusBadRequest || res.ErrorCode != "VALIDATION_FAILED" {
		t.Fatalf("expected goal with 9 decimals to fail validation, got %d %+v", code, res)
	}
	code, res = api.do(http.MethodGet, "/v3/funding-rounds/999", "", nil)
	if code != http.StatusNotFound || res.ErrorCode != string(rounds.CodeRoundNotFound) {
		t.Fatalf("expected not found, got %d %+v", code, res)
	}
	code, res = api.do(http.MethodGet, "/v3/startups/999/funding-rounds", "", nil)
	if code != http.StatusNotFound || res.ErrorCode != string(rounds.CodeStartupNotFound) {
		t.Fatalf("expected startup not found, got %d %+v", code, res)
	}
}

func TestRoundBodyLimit(t *testing.T) {
	api := newTestAPI(t)
	tok := api.token(api.startup, utils.RoleStartup)

	code, res := api.do(http.MethodPost, "/v3/funding-rounds", tok,
		roundBody("2025-01-01T00:00:00Z", "2025-03-01T00:00:00Z", strings.Repeat("1", 4096)))
	if code != http.StatusRequestEntityTooLarge || res.ErrorCode != "BODY_TOO_LARGE" {
		t.Fatalf("expected 413, got %d %+v", code, res)
	}
	code, _ = api.do(http.MethodPost, "/v3/funding-rounds", tok, roundBody("2025-01-01T00:00:00Z", "2025-03-01T00:00:00Z", "1000"))
	if code != http.StatusCreated {
		t.Fatalf("expected regular body to pass, got %d", code)
	}
}

func TestCronSweepRequiresKey(t *testing.T) {
	api := newTestAPI(t)

	code, _ := api.do(http.MethodPost, "/v3/cron/funding-rounds/sweep", "", nil)
	if code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", code)
	}
	code, _ = api.do(http.MethodPost, "/v3/cron/funding-rounds/sweep", "", nil, "X-CRON-KEY", "wrong")
	if code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong key, got %d", code)
	}
	code, res := api.do(http.MethodPost, "/v3/cron/funding-rounds/sweep", "", nil, "X-CRON-KEY", "cron-secret")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d %+v", code, res)
	}
	var report rounds.SweepReport
	if err := json.Unmarshal(res.Data, &report); err != nil {
		t.Fatal(err)
	}
	if report.Startups != 1 || report.Failed != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestNotificationsRequireToken(t *testing.T) {
	api := newTestAPI(t)
	code, _ := api.do(http.MethodGet, "/v3/ws/notifications", "", nil)
	if code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
