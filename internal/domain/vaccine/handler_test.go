package vaccine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

type fixedStatus map[string]VerificationStatus

func (f fixedStatus) Status(_ context.Context, id string) VerificationStatus {
	if s, ok := f[id]; ok {
		return s
	}
	return NeedsVerification
}

func newTestHandler(t *testing.T, status StatusSource) (*Handler, *echo.Echo) {
	t.Helper()
	return NewHandler(mustDefault(t), status), echo.New()
}

func TestHandler_ListVaccines(t *testing.T) {
	h, e := newTestHandler(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/?limit=100", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.ListVaccines(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Data  []Record `json:"data"`
		Total int      `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Total != h.catalog.Len() || len(body.Data) != h.catalog.Len() {
		t.Errorf("expected %d records, got total=%d data=%d", h.catalog.Len(), body.Total, len(body.Data))
	}
}

func TestHandler_ListVaccines_Search(t *testing.T) {
	h, e := newTestHandler(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/?q=polio", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.ListVaccines(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body struct {
		Data []Record `json:"data"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if len(body.Data) != len(h.catalog.Search("polio")) {
		t.Errorf("expected %d results, got %d", len(h.catalog.Search("polio")), len(body.Data))
	}
}

func TestHandler_ListVaccines_Paginates(t *testing.T) {
	h, e := newTestHandler(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/?limit=2&offset=1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.ListVaccines(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body struct {
		Data    []Record `json:"data"`
		HasMore bool     `json:"has_more"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if len(body.Data) != 2 {
		t.Fatalf("expected 2 records, got %d", len(body.Data))
	}
	if body.Data[0].ID != h.catalog.All()[1].ID {
		t.Errorf("expected offset to skip first record, got %s", body.Data[0].ID)
	}
	if !body.HasMore {
		t.Error("expected has_more")
	}
}

func TestHandler_GetVaccine_Annotated(t *testing.T) {
	h, e := newTestHandler(t, fixedStatus{"bcg": Verified})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("bcg")
	if err := h.GetVaccine(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var r Record
	json.Unmarshal(rec.Body.Bytes(), &r)
	if r.VerificationStatus != Verified {
		t.Errorf("expected verified, got %q", r.VerificationStatus)
	}
	if stored, _ := h.catalog.Get("bcg"); stored.VerificationStatus != NeedsVerification {
		t.Error("annotation must not change the catalog")
	}
}

func TestHandler_GetVaccine_NotFound(t *testing.T) {
	h, e := newTestHandler(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("nope")
	err := h.GetVaccine(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}
