package reminder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/vaxtrack/vaxtrack/internal/platform/auth"
)

func newReminderContext(method, path, body, uid string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if uid != "" {
		req = req.WithContext(auth.WithUserID(req.Context(), uid))
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func expectHTTPCode(t *testing.T, err error, code int) {
	t.Helper()
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T (%v)", err, err)
	}
	if httpErr.Code != code {
		t.Errorf("expected %d, got %d", code, httpErr.Code)
	}
}

func TestHandler_CreateReminder(t *testing.T) {
	h := NewHandler(newTestService(t, NewMemoryRepo()))
	c, rec := newReminderContext(http.MethodPost, "/reminders", `{"vaccine_id":"bcg"}`, "u")
	if err := h.CreateReminder(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var got Reminder
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.Name != "BCG" || got.Status != StatusActive || got.UserID != "u" {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestHandler_CreateReminderErrors(t *testing.T) {
	h := NewHandler(newTestService(t, NewMemoryRepo()))

	c, _ := newReminderContext(http.MethodPost, "/reminders", `{"vaccine_id":"bcg"}`, "")
	expectHTTPCode(t, h.CreateReminder(c), http.StatusUnauthorized)

	c, _ = newReminderContext(http.MethodPost, "/reminders", `{"vaccine_id":"nope"}`, "u")
	expectHTTPCode(t, h.CreateReminder(c), http.StatusBadRequest)

	c, _ = newReminderContext(http.MethodPost, "/reminders", `{not json`, "u")
	expectHTTPCode(t, h.CreateReminder(c), http.StatusBadRequest)
}

func TestHandler_ListReminders(t *testing.T) {
	svc := newTestService(t, NewMemoryRepo())
	ctx := context.Background()
	for _, id := range []string{"bcg", "opv", "ipv"} {
		if err := svc.Create(ctx, "u", &Reminder{VaccineID: id}); err != nil {
			t.Fatal(err)
		}
	}
	svc.Create(ctx, "other", &Reminder{VaccineID: "bcg"})
	h := NewHandler(svc)

	c, rec := newReminderContext(http.MethodGet, "/reminders?limit=2", "", "u")
	if err := h.ListReminders(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body struct {
		Data    []Reminder `json:"data"`
		Total   int        `json:"total"`
		HasMore bool       `json:"has_more"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Total != 3 || len(body.Data) != 2 || !body.HasMore {
		t.Errorf("unexpected page %+v", body)
	}

	c, _ = newReminderContext(http.MethodGet, "/reminders?status=later", "", "u")
	expectHTTPCode(t, h.ListReminders(c), http.StatusBadRequest)
}

func TestHandler_CreateDuplicateActive(t *testing.T) {
	h := NewHandler(newTestService(t, NewMemoryRepo()))
	c, _ := newReminderContext(http.MethodPost, "/reminders", `{"vaccine_id":"bcg"}`, "u")
	if err := h.CreateReminder(c); err != nil {
		t.Fatalf("first create: %v", err)
	}
	c, _ = newReminderContext(http.MethodPost, "/reminders", `{"vaccine_id":"bcg"}`, "u")
	expectHTTPCode(t, h.CreateReminder(c), http.StatusConflict)
}

func TestHandler_DueDateIsCalendarDate(t *testing.T) {
	h := NewHandler(newTestService(t, NewMemoryRepo()))
	c, rec := newReminderContext(http.MethodPost, "/reminders", `{"vaccine_id":"mr","due_date":"2024-07-01"}`, "u")
	if err := h.CreateReminder(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"due_date":"2024-07-01"`) {
		t.Errorf("expected a YYYY-MM-DD due_date, got %s", rec.Body.String())
	}

	c, _ = newReminderContext(http.MethodPost, "/reminders", `{"vaccine_id":"mr","due_date":"2024-07-01T00:00:00Z"}`, "u")
	expectHTTPCode(t, h.CreateReminder(c), http.StatusBadRequest)
}

func TestHandler_GetUpdateDelete(t *testing.T) {
	svc := newTestService(t, NewMemoryRepo())
	r := &Reminder{VaccineID: "mr"}
	if err := svc.Create(context.Background(), "u", r); err != nil {
		t.Fatal(err)
	}
	h := NewHandler(svc)

	c, rec := newReminderContext(http.MethodGet, "/reminders/"+r.ID.String(), "", "u")
	c.SetParamNames("id")
	c.SetParamValues(r.ID.String())
	if err := h.GetReminder(c); err != nil || rec.Code != http.StatusOK {
		t.Fatalf("get: err=%v code=%d", err, rec.Code)
	}

	c, _ = newReminderContext(http.MethodGet, "/reminders/"+r.ID.String(), "", "intruder")
	c.SetParamNames("id")
	c.SetParamValues(r.ID.String())
	expectHTTPCode(t, h.GetReminder(c), http.StatusNotFound)

	c, rec = newReminderContext(http.MethodPut, "/reminders/"+r.ID.String(), `{"status":"completed"}`, "u")
	c.SetParamNames("id")
	c.SetParamValues(r.ID.String())
	if err := h.UpdateReminder(c); err != nil {
		t.Fatalf("update: %v", err)
	}
	var updated Reminder
	json.Unmarshal(rec.Body.Bytes(), &updated)
	if updated.Status != StatusCompleted {
		t.Errorf("expected completed, got %s", updated.Status)
	}

	c, rec = newReminderContext(http.MethodDelete, "/reminders/"+r.ID.String(), "", "u")
	c.SetParamNames("id")
	c.SetParamValues(r.ID.String())
	if err := h.DeleteReminder(c); err != nil || rec.Code != http.StatusNoContent {
		t.Fatalf("delete: err=%v code=%d", err, rec.Code)
	}

	c, _ = newReminderContext(http.MethodGet, "/reminders/bad", "", "u")
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")
	expectHTTPCode(t, h.GetReminder(c), http.StatusBadRequest)
}

func TestHandler_SaveFromSchedule(t *testing.T) {
	h := NewHandler(newTestService(t, NewMemoryRepo()))

	c, rec := newReminderContext(http.MethodPost, "/reminders/from-schedule", `{"dob":"2023-09-15","history":[],"conditions":[]}`, "u")
	if err := h.SaveFromSchedule(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var body struct {
		Reminders []Reminder `json:"reminders"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if len(body.Reminders) == 0 {
		t.Error("expected saved reminders")
	}

	c, _ = newReminderContext(http.MethodPost, "/reminders/from-schedule", `{"dob":"tomorrow"}`, "u")
	expectHTTPCode(t, h.SaveFromSchedule(c), http.StatusBadRequest)
}
