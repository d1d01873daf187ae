package dashboard

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hivdash/hivdash/internal/domain/facility"
	"github.com/hivdash/hivdash/internal/domain/summary"
	"github.com/hivdash/hivdash/internal/platform/auth"
	"github.com/hivdash/hivdash/internal/platform/statsapi"
	"github.com/hivdash/hivdash/pkg/daterange"
)

// FacilityFinder looks up a normalized facility by MFL code.
type FacilityFinder interface {
	GetFacility(ctx context.Context, mflCode string) (*facility.Facility, *facility.County, statsapi.Source, error)
}

type Handler struct {
	svc        *Service
	facilities FacilityFinder
}

func NewHandler(svc *Service, facilities FacilityFinder) *Handler {
	return &Handler{svc: svc, facilities: facilities}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole("viewer"))
	read.GET("/dashboard/:category", h.GetDashboard)
	read.GET("/facilities/:mflcode/details", h.GetFacilityDetail)
	read.GET("/date-ranges/default", h.GetDefaultDateRange)
}

func (h *Handler) GetDashboard(c echo.Context) error {
	cat, err := ParseCategory(c.Param("category"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	r, err := daterange.ParseOrDefault(c.QueryParam("startdate"), c.QueryParam("enddate"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	f := Filter{
		Category:    cat,
		LocationIDs: summary.LocationIDs(c.QueryParam("locationid")),
		Range:       r,
	}

	board, err := h.svc.Load(c.Request().Context(), f)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return echo.NewHTTPError(http.StatusGatewayTimeout, "dashboard load timed out")
		}
		return echo.NewHTTPError(http.StatusServiceUnavailable, "dashboard load cancelled")
	}
	c.Response().Header().Set(statsapi.SourceHeader, string(board.Source))
	return c.JSON(http.StatusOK, board)
}

func (h *Handler) GetFacilityDetail(c echo.Context) error {
	f, _, source, err := h.facilities.GetFacility(c.Request().Context(), c.Param("mflcode"))
	if err != nil {
		if errors.Is(err, facility.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "facility not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	c.Response().Header().Set(statsapi.SourceHeader, string(source))
	return c.JSON(http.StatusOK, FacilityDetail(*f, source))
}

type dateRangesResponse struct {
	Default daterange.Range   `json:"default"`
	Presets []daterange.Range `json:"presets"`
}

// GetDefaultDateRange returns the opening period together with the six
// months leading up to it and its quarter.
func (h *Handler) GetDefaultDateRange(c echo.Context) error {
	def := daterange.Default()
	presets := make([]daterange.Range, 0, 7)
	for i := 5; i >= 0; i-- {
		m := def.Start.AddDate(0, -i, 0)
		presets = append(presets, daterange.Month(m.Year(), m.Month()))
	}
	if q, err := daterange.Quarter(def.Start.Year(), quarterOf(def.Start.Month())); err == nil {
		presets = append(presets, q)
	}
	return c.JSON(http.StatusOK, dateRangesResponse{Default: def, Presets: presets})
}

func quarterOf(m time.Month) int {
	return (int(m)-1)/3 + 1
}
