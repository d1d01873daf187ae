package summary

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hivdash/hivdash/internal/platform/auth"
	"github.com/hivdash/hivdash/internal/platform/statsapi"
	"github.com/hivdash/hivdash/pkg/daterange"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole("viewer"))
	read.GET("/summary", h.GetSummary)
}

// LocationIDs splits a comma-separated locationid parameter.
func LocationIDs(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// QueryFromContext reads reportdept, modality, locationid, startdate and
// enddate. Missing dates select the default reporting period.
func QueryFromContext(c echo.Context) (statsapi.Query, daterange.Range, error) {
	r, err := daterange.ParseOrDefault(c.QueryParam("startdate"), c.QueryParam("enddate"))
	if err != nil {
		return statsapi.Query{}, daterange.Range{}, err
	}
	q := statsapi.Query{
		ReportDept:  c.QueryParam("reportdept"),
		Modality:    c.QueryParam("modality"),
		LocationIDs: LocationIDs(c.QueryParam("locationid")),
		Start:       r.Start,
		End:         r.End,
	}
	return q, r, nil
}

type summaryResponse struct {
	Result
	Period daterange.Range `json:"period"`
}

func (h *Handler) GetSummary(c echo.Context) error {
	q, period, err := QueryFromContext(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res := h.svc.Summary(c.Request().Context(), q)
	c.Response().Header().Set(statsapi.SourceHeader, string(res.Source))
	return c.JSON(http.StatusOK, summaryResponse{Result: res, Period: period})
}
