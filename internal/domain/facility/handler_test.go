package facility

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/hivdash/hivdash/internal/platform/statsapi"
)

func newTestHandler(g *stubGetter) (*Handler, *echo.Echo) {
	h := NewHandler(newTestService(g))
	e := echo.New()
	return h, e
}

func TestHandler_ListCounties(t *testing.T) {
	h, e := newTestHandler(&stubGetter{err: errors.New("down")})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/counties", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListCounties(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get(statsapi.SourceHeader) != string(statsapi.SourceFallback) {
		t.Errorf("expected fallback source header, got %q", rec.Header().Get(statsapi.SourceHeader))
	}

	var body countiesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data) != 5 {
		t.Errorf("expected 5 counties, got %d", len(body.Data))
	}
}

func TestHandler_GetCounty_NotFound(t *testing.T) {
	h, e := newTestHandler(&stubGetter{err: errors.New("down")})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("atlantis")

	err := h.GetCounty(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", httpErr.Code)
	}
}

func TestHandler_ListFacilities_Filtered(t *testing.T) {
	h, e := newTestHandler(&stubGetter{err: errors.New("down")})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/facilities?county=kitui&limit=2", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListFacilities(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body struct {
		Data    []Facility `json:"data"`
		Total   int        `json:"total"`
		HasMore bool       `json:"has_more"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Total != 3 {
		t.Errorf("expected 3 Kitui facilities, got %d", body.Total)
	}
	if len(body.Data) != 2 || !body.HasMore {
		t.Errorf("expected first page of 2 with more, got %d has_more=%v", len(body.Data), body.HasMore)
	}
}

func TestHandler_ListFacilities_BadType(t *testing.T) {
	h, e := newTestHandler(&stubGetter{err: errors.New("down")})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/facilities?type=pharmacy", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.ListFacilities(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_GetFacility(t *testing.T) {
	h, e := newTestHandler(&stubGetter{body: []RawFacility{
		{MFLCode: "20261", Facility: "Kibera Level 3", Type: "Health Facility", County: "Nairobi"},
	}})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("mflcode")
	c.SetParamValues("20261")

	if err := h.GetFacility(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body facilityResponse
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.County.ID != "nairobi" {
		t.Errorf("expected county nairobi, got %s", body.County.ID)
	}
	if body.TypeName != "Health Center" {
		t.Errorf("expected Health Center label, got %s", body.TypeName)
	}
	if body.Source != statsapi.SourceLive {
		t.Errorf("expected live source, got %s", body.Source)
	}
}
