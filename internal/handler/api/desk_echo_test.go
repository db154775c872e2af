package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"PaperDesk/internal/domain/models"
	"PaperDesk/pkg/logger"
)

// stubArchive records the last History call.
type stubArchive struct {
	account string
	from    time.Time
	to      time.Time
	limit   int
	ticks   []*models.TickPoint
}

func (a *stubArchive) Init(context.Context) error                                 { return nil }
func (a *stubArchive) StoreTicks(context.Context, []*models.TickPoint) error      { return nil }
func (a *stubArchive) StoreTrade(context.Context, string, *models.TradeResult) error { return nil }
func (a *stubArchive) Health(context.Context) error                               { return nil }
func (a *stubArchive) Close() error                                               { return nil }

func (a *stubArchive) History(_ context.Context, id string, from, to time.Time, limit int) ([]*models.TickPoint, error) {
	a.account, a.from, a.to, a.limit = id, from, to, limit
	return a.ticks, nil
}

func testHandler(t *testing.T, archive *stubArchive) *DeskEchoHandler {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	if archive == nil {
		return NewDeskEchoHandler(log, nil, nil, nil)
	}
	return NewDeskEchoHandler(log, nil, nil, archive)
}

func historyContext(target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHistoryAlignsRangeAndParsesLimit(t *testing.T) {
	archive := &stubArchive{ticks: []*models.TickPoint{{AccountID: "alice", Price: 91}}}
	h := testHandler(t, archive)

	c, rec := historyContext(
		"/api/history?account_id=alice&from=2026-08-27T10:07:31Z&to=2026-08-27T11:03:59Z&step=5m&limit=7")
	if err := h.History(c); err != nil {
		t.Fatalf("history: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200: %s", rec.Code, rec.Body.String())
	}

	if archive.account != "alice" {
		t.Fatalf("queried account %q", archive.account)
	}
	wantFrom := time.Date(2026, 8, 27, 10, 5, 0, 0, time.UTC)
	wantTo := time.Date(2026, 8, 27, 11, 0, 0, 0, time.UTC)
	if !archive.from.Equal(wantFrom) || !archive.to.Equal(wantTo) {
		t.Fatalf("range [%v, %v], want snapped to [%v, %v]", archive.from, archive.to, wantFrom, wantTo)
	}
	if archive.limit != 7 {
		t.Fatalf("limit %d, want 7", archive.limit)
	}
}

func TestHistoryDefaultsRangeAndLimit(t *testing.T) {
	archive := &stubArchive{}
	h := testHandler(t, archive)

	before := time.Now()
	c, rec := historyContext("/api/history?account_id=bob")
	if err := h.History(c); err != nil {
		t.Fatalf("history: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}

	if archive.limit != 500 {
		t.Fatalf("default limit %d, want 500", archive.limit)
	}
	// Default window: the last hour, snapped to minute boundaries.
	if span := archive.to.Sub(archive.from); span != time.Hour {
		t.Fatalf("default span %v, want 1h", span)
	}
	if archive.to.After(before.Add(time.Minute)) {
		t.Fatalf("default to %v unexpectedly in the future", archive.to)
	}
}

func TestHistoryRejectsBadStep(t *testing.T) {
	h := testHandler(t, &stubArchive{})

	c, rec := historyContext("/api/history?account_id=carol&step=3h")
	if err := h.History(c); err != nil {
		t.Fatalf("history: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestHistoryWithoutArchive(t *testing.T) {
	h := testHandler(t, nil)

	c, rec := historyContext("/api/history?account_id=dave")
	if err := h.History(c); err != nil {
		t.Fatalf("history: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", rec.Code)
	}
}
