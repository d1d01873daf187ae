package facility

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hivdash/hivdash/internal/platform/auth"
	"github.com/hivdash/hivdash/internal/platform/statsapi"
	"github.com/hivdash/hivdash/pkg/pagination"
)


type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole("viewer"))
	read.GET("/counties", h.ListCounties)
	read.GET("/counties/:id", h.GetCounty)
	read.GET("/facilities", h.ListFacilities)
	read.GET("/facilities/:mflcode", h.GetFacility)
}

type countiesResponse struct {
	Data   []County        `json:"data"`
	Source statsapi.Source `json:"source"`
}

type facilityResponse struct {
	Facility *Facility       `json:"facility"`
	County   countyRef       `json:"county"`
	TypeName string          `json:"type_label"`
	Source   statsapi.Source `json:"source"`
}

type countyRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (h *Handler) ListCounties(c echo.Context) error {
	counties, source := h.svc.ListCounties(c.Request().Context())
	c.Response().Header().Set(statsapi.SourceHeader, string(source))
	return c.JSON(http.StatusOK, countiesResponse{Data: counties, Source: source})
}

func (h *Handler) GetCounty(c echo.Context) error {
	county, source, err := h.svc.GetCounty(c.Request().Context(), c.Param("id"))
	c.Response().Header().Set(statsapi.SourceHeader, string(source))
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "county not found")
	}
	return c.JSON(http.StatusOK, county)
}

func (h *Handler) ListFacilities(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := Filter{
		CountyID: c.QueryParam("county"),
		Type:     FacilityType(c.QueryParam("type")),
		Program:  c.QueryParam("program"),
		Name:     c.QueryParam("name"),
	}
	if f.Type != "" && !f.Type.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "type must be one of hospital, clinic, health_center, kp_site")
	}
	items, total, source := h.svc.SearchFacilities(c.Request().Context(), f, pg.Limit, pg.Offset)
	c.Response().Header().Set(statsapi.SourceHeader, string(source))
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset).WithLinks(c.Request().URL))
}

func (h *Handler) GetFacility(c echo.Context) error {
	fac, county, source, err := h.svc.GetFacility(c.Request().Context(), c.Param("mflcode"))
	c.Response().Header().Set(statsapi.SourceHeader, string(source))
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "facility not found")
	}
	return c.JSON(http.StatusOK, facilityResponse{
		Facility: fac,
		County:   countyRef{ID: county.ID, Name: county.Name},
		TypeName: TypeLabel(fac.Type),
		Source:   source,
	})
}
