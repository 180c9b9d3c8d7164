package http

import (
	"context"
	"encoding/csv"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage/memory"
)

type fakeSheets struct {
	rows [][]string
	err  error
}

func (f *fakeSheets) ReplaceRecords(_ context.Context, rows [][]string) error {
	f.rows = rows
	return f.err
}

type testEnv struct {
	srv   *Server
	store *memory.Store
}

func newTestEnv(t *testing.T, deps Dependencies, seed ...core.Transaction) testEnv {
	t.Helper()
	store := memory.New(seed...)
	clock := time.Date(2024, 3, 1, 9, 30, 0, 0, time.Local)
	deps.Controller = services.NewController(store, services.WithClock(func() time.Time { return clock }))
	deps.Store = store
	deps.Logger = log.New(log.Config{Output: &strings.Builder{}})
	if deps.RateLimitPerMinute == 0 {
		deps.RateLimitPerMinute = 1000
	}

	srv, err := NewServer(":0", deps)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return testEnv{srv: srv, store: store}
}

func (e testEnv) post(t *testing.T, form url.Values, htmx bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/update", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	rr := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func (e testEnv) get(path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestIndexAndHealth(t *testing.T) {
	env := newTestEnv(t, Dependencies{})

	rr := env.get("/")
	if rr.Code != http.StatusOK {
		t.Fatalf("index status=%d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Personal Finance Tracker") || !strings.Contains(body, `id="dashboard"`) {
		t.Fatalf("index body missing dashboard")
	}
	if strings.Contains(body, "Export to Google Sheets") {
		t.Error("sheets button shown without sheets configured")
	}
	if rr.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("security headers missing")
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("request id header missing")
	}

	for _, path := range []string{"/healthz", "/readyz", "/static/app.js"} {
		rr := env.get(path)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
	if rr := env.get("/nope"); rr.Code != http.StatusNotFound {
		t.Errorf("unknown path status=%d", rr.Code)
	}
}

func TestUpdateScenario(t *testing.T) {
	env := newTestEnv(t, Dependencies{})

	adds := []url.Values{
		{"trigger": {"add-income"}, "income_description": {"Salary"}, "income_amount": {"5000"}},
		{"trigger": {"add-expense"}, "expense_description": {"Groceries"}, "expense_category": {"Food"}, "expense_amount": {"200"}},
		{"trigger": {"add-expense"}, "expense_description": {"Rent"}, "expense_category": {"Housing"}, "expense_amount": {"1000"}},
	}
	var rr *httptest.ResponseRecorder
	for _, form := range adds {
		rr = env.post(t, form, true)
		if rr.Code != http.StatusOK {
			t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
		}
	}

	body := rr.Body.String()
	if strings.Contains(body, "<html") {
		t.Error("htmx request should get the partial only")
	}
	for _, want := range []string{
		`<strong id="total-income">5000.00</strong>`,
		`<strong id="total-expenses">1200.00</strong>`,
		`<strong id="balance">3800.00</strong>`,
		`name="income_amount" inputmode="decimal" placeholder="Amount" value=""`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}

	rr = env.post(t, url.Values{"trigger": {"filter"}, "filter_category": {"Food"}}, true)
	if !strings.Contains(rr.Body.String(), `<strong id="balance">-200.00</strong>`) {
		t.Errorf("filtered balance not rendered: %s", rr.Body.String())
	}

	all, _ := env.store.ListAll(context.Background())
	if len(all) != 3 {
		t.Fatalf("store has %d rows, want 3", len(all))
	}
	if all[0].Date != "2024-03-01" || all[0].Time != "09:30:00" {
		t.Errorf("row stamped %s %s", all[0].Date, all[0].Time)
	}
}

func TestUpdatePlainFormGetsFullPage(t *testing.T) {
	env := newTestEnv(t, Dependencies{})

	rr := env.post(t, url.Values{"trigger": {"add-income"}, "income_amount": {"10"}}, false)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "<!doctype html>") {
		t.Error("plain post should render the full page")
	}
}

func TestUpdateTableEdit(t *testing.T) {
	seed := []core.Transaction{
		{ID: 1, Description: "Salary", Category: "Income", Amount: core.Money{Cents: 500000}, Date: "2024-03-01", Time: "08:00:00"},
		{ID: 2, Description: "Lunch", Category: "Food", Amount: core.Money{Cents: 1500}, Date: "2024-03-01", Time: "12:00:00"},
	}
	env := newTestEnv(t, Dependencies{}, seed...)
	snapshot, err := EncodeSnapshot(core.RowsOf(seed))
	if err != nil {
		t.Fatal(err)
	}

	// row 2 deleted, row 1 amount edited
	form := url.Values{
		"trigger":         {"table"},
		"table_previous":  {snapshot},
		"row_id":          {"1"},
		"row_description": {"Salary"},
		"row_category":    {"Income"},
		"row_amount":      {"5100.00"},
	}
	rr := env.post(t, form, true)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}

	all, _ := env.store.ListAll(context.Background())
	if len(all) != 1 || all[0].ID != 1 || all[0].Amount.Cents != 510000 {
		t.Fatalf("unexpected store state: %+v", all)
	}
	if !strings.Contains(rr.Body.String(), `<strong id="balance">5100.00</strong>`) {
		t.Error("balance not recomputed after edit")
	}
}

// Enter inside an entry fieldset must post that fieldset's own trigger, and
// must never fall through to the form's implicit submission.
func TestDashboardEntryTriggers(t *testing.T) {
	env := newTestEnv(t, Dependencies{},
		core.Transaction{ID: 42, Description: "Bus", Category: "Transportation", Amount: core.Money{Cents: 250}, Date: "2024-03-01", Time: "07:00:00"},
	)
	body := env.get("/").Body.String()

	for _, fieldset := range []struct{ class, trigger, field string }{
		{"entry-income", "add-income", "income_amount"},
		{"entry-expense", "add-expense", "expense_amount"},
	} {
		start := strings.Index(body, `<fieldset class="`+fieldset.class+`"`)
		if start < 0 {
			t.Fatalf("%s fieldset missing", fieldset.class)
		}
		tag := body[start : start+strings.Index(body[start:], ">")]
		if !strings.Contains(tag, `hx-trigger="keydown[key==&#39;Enter&#39;`) && !strings.Contains(tag, `hx-trigger="keydown[key=='Enter'`) {
			t.Errorf("%s: no Enter trigger in %s", fieldset.class, tag)
		}
		if !strings.Contains(tag, `"trigger": "`+fieldset.trigger+`"`) {
			t.Errorf("%s: posts the wrong trigger: %s", fieldset.class, tag)
		}
		end := strings.Index(body[start:], "</fieldset>")
		if !strings.Contains(body[start:start+end], `name="`+fieldset.field+`"`) {
			t.Errorf("%s does not contain %s", fieldset.class, fieldset.field)
		}
	}

	guard := strings.Index(body, `class="implicit-submit-guard" disabled`)
	firstSubmit := strings.Index(body, `name="trigger" value="add-income"`)
	if guard < 0 || guard > firstSubmit {
		t.Error("the form's default button must be the disabled guard")
	}

	// what the expense fieldset sends on Enter
	rr := env.post(t, url.Values{
		"trigger":          {"add-expense"},
		"expense_category": {"Transportation"},
		"expense_amount":   {"50"},
	}, true)
	if !strings.Contains(rr.Body.String(), `<strong id="total-expenses">52.50</strong>`) {
		t.Errorf("expense not stored: %s", rr.Body.String())
	}

	if !strings.Contains(body, "<th>ID</th>") || !strings.Contains(body, `<td class="row-id">42</td>`) {
		t.Error("records table does not show the id column")
	}
}

func TestUpdateRejectsMalformedTable(t *testing.T) {
	env := newTestEnv(t, Dependencies{})

	rr := env.post(t, url.Values{"trigger": {"table"}, "table_previous": {"{not json"}}, true)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad snapshot status=%d", rr.Code)
	}
	if !strings.Contains(rr.Header().Get("HX-Trigger"), "Update rejected") {
		t.Errorf("HX-Trigger = %s", rr.Header().Get("HX-Trigger"))
	}

	rr = env.post(t, url.Values{"trigger": {"table"}, "row_id": {"1", "2"}, "row_description": {"a"}, "row_category": {"Food"}, "row_amount": {"1"}}, true)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("misaligned rows status=%d", rr.Code)
	}
}

func TestExportCSV(t *testing.T) {
	env := newTestEnv(t, Dependencies{},
		core.Transaction{ID: 1, Description: "Lunch, with friends", Category: "Food", Amount: core.Money{Cents: 1550}, Date: "2024-03-01", Time: "12:00:00"},
	)

	// filters never apply to the export
	env.post(t, url.Values{"trigger": {"filter"}, "filter_category": {"Housing"}}, true)

	rr := env.get("/export.csv")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if cd := rr.Header().Get("Content-Disposition"); cd != `attachment; filename="transactions.csv"` {
		t.Errorf("Content-Disposition = %q", cd)
	}
	records, err := csv.NewReader(strings.NewReader(rr.Body.String())).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 2 || records[1][1] != "Lunch, with friends" {
		t.Errorf("records = %v", records)
	}
}

func TestExportCSVEmptyStore(t *testing.T) {
	env := newTestEnv(t, Dependencies{})

	rr := env.get("/export.csv")
	if got := strings.TrimSpace(rr.Body.String()); got != "id,description,category,amount,date,time" {
		t.Errorf("empty export = %q", got)
	}
}

func TestExportSheets(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		env := newTestEnv(t, Dependencies{})
		req := httptest.NewRequest(http.MethodPost, "/export/sheets", nil)
		out := httptest.NewRecorder()
		env.srv.Handler.ServeHTTP(out, req)
		if out.Code != http.StatusNotFound {
			t.Errorf("status=%d", out.Code)
		}
	})

	t.Run("configured", func(t *testing.T) {
		sheets := &fakeSheets{}
		env := newTestEnv(t, Dependencies{Sheets: sheets},
			core.Transaction{ID: 1, Description: "Bus", Category: "Transportation", Amount: core.Money{Cents: 250}, Date: "2024-03-01", Time: "07:00:00"},
		)
		if !strings.Contains(env.get("/").Body.String(), "Export to Google Sheets") {
			t.Error("sheets button missing")
		}

		out := httptest.NewRecorder()
		env.srv.Handler.ServeHTTP(out, httptest.NewRequest(http.MethodPost, "/export/sheets", nil))
		if out.Code != http.StatusOK {
			t.Fatalf("status=%d", out.Code)
		}
		if len(sheets.rows) != 2 || sheets.rows[0][0] != "id" || sheets.rows[1][3] != "2.50" {
			t.Errorf("rows = %v", sheets.rows)
		}
		if !strings.Contains(out.Header().Get("HX-Trigger"), "show-notification") {
			t.Error("missing notification trigger")
		}
		if !strings.Contains(out.Header().Get("HX-Trigger"), `"sheets-exported":{"rows":1}`) {
			t.Errorf("HX-Trigger = %s", out.Header().Get("HX-Trigger"))
		}
	})

	t.Run("remote failure", func(t *testing.T) {
		env := newTestEnv(t, Dependencies{Sheets: &fakeSheets{err: errors.New("quota")}})
		out := httptest.NewRecorder()
		env.srv.Handler.ServeHTTP(out, httptest.NewRequest(http.MethodPost, "/export/sheets", nil))
		if out.Code != http.StatusBadGateway {
			t.Errorf("status=%d", out.Code)
		}
	})
}

func TestUpdateRateLimited(t *testing.T) {
	env := newTestEnv(t, Dependencies{RateLimitPerMinute: 2})

	for i := 0; i < 2; i++ {
		if rr := env.post(t, url.Values{"trigger": {"filter"}}, true); rr.Code != http.StatusOK {
			t.Fatalf("post %d status=%d", i, rr.Code)
		}
	}
	if rr := env.post(t, url.Values{"trigger": {"filter"}}, true); rr.Code != http.StatusTooManyRequests {
		t.Errorf("status=%d, want 429", rr.Code)
	}
	if rr := env.get("/"); rr.Code != http.StatusOK {
		t.Errorf("GET should not be limited, status=%d", rr.Code)
	}
}

func TestNewServerRequiresDependencies(t *testing.T) {
	if _, err := NewServer(":0", Dependencies{}); err == nil {
		t.Error("expected error without controller and store")
	}
}
