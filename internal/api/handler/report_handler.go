package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fieldreports/reports-api/internal/core/ports"
)

const dateLayout = "2006-01-02"

// ReportHandler handles HTTP requests for field reports. Every route is
// mounted behind the policy guard.
type ReportHandler struct {
	service ports.ReportService
}

func NewReportHandler(service ports.ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// Create handles POST /reports.
//
// @Summary      Create a field report
// @Tags         reports
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createReportRequest  true  "Report details"
// @Success      201   {object}  reportResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /reports [post]
func (h *ReportHandler) Create(c echo.Context) error {
	actor, err := currentPrincipal(c)
	if err != nil {
		return err
	}

	var req createReportRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	if err := checkCoordinates(req.Latitude, req.Longitude); err != nil {
		return err
	}

	rep, err := h.service.Create(c.Request().Context(), actor, toCreateInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toReportResponse(rep))
}

// List handles GET /reports. Non-admins see their own reports unless all=true.
//
// @Summary      List field reports
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        all        query     bool    false  "Include every owner's reports"
// @Param        stationId  query     string  false  "Filter by station"
// @Param        startDate  query     string  false  "Visit date lower bound (YYYY-MM-DD or RFC3339)"
// @Param        endDate    query     string  false  "Visit date upper bound (YYYY-MM-DD or RFC3339)"
// @Success      200        {array}   reportResponse
// @Failure      400        {object}  map[string]string
// @Failure      401        {object}  map[string]string
// @Router       /reports [get]
func (h *ReportHandler) List(c echo.Context) error {
	actor, err := currentPrincipal(c)
	if err != nil {
		return err
	}

	in := ports.ListReportsInput{StationID: c.QueryParam("stationId")}
	if raw := c.QueryParam("all"); raw != "" {
		all, err := strconv.ParseBool(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "all must be a boolean")
		}
		in.All = all
	}
	if in.From, err = parseDateParam(c, "startDate", false); err != nil {
		return err
	}
	if in.To, err = parseDateParam(c, "endDate", false); err != nil {
		return err
	}

	items, err := h.service.List(c.Request().Context(), actor, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toReportResponses(items))
}

// Stats handles GET /reports/stats.
//
// @Summary      Report statistics
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  reportStatsResponse
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /reports/stats [get]
func (h *ReportHandler) Stats(c echo.Context) error {
	actor, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	stats, err := h.service.Stats(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toStatsResponse(stats))
}

// ByStation handles GET /reports/station/:stationId.
//
// @Summary      Reports for a station
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        stationId  path      string  true  "Station identifier"
// @Success      200        {array}   reportResponse
// @Failure      401        {object}  map[string]string
// @Router       /reports/station/{stationId} [get]
func (h *ReportHandler) ByStation(c echo.Context) error {
	actor, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	items, err := h.service.ListByStation(c.Request().Context(), actor, c.Param("stationId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toReportResponses(items))
}

// DateRange handles GET /reports/date-range.
//
// @Summary      Reports within a visit date range
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        startDate  query     string  true  "Start date (YYYY-MM-DD or RFC3339)"
// @Param        endDate    query     string  true  "End date (YYYY-MM-DD or RFC3339)"
// @Success      200        {array}   reportResponse
// @Failure      400        {object}  map[string]string
// @Failure      401        {object}  map[string]string
// @Failure      403        {object}  map[string]string
// @Router       /reports/date-range [get]
func (h *ReportHandler) DateRange(c echo.Context) error {
	actor, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	from, err := parseDateParam(c, "startDate", true)
	if err != nil {
		return err
	}
	to, err := parseDateParam(c, "endDate", true)
	if err != nil {
		return err
	}
	if len(c.QueryParam("endDate")) == len(dateLayout) {
		// A bare date includes the whole day.
		to = to.Add(24*time.Hour - time.Nanosecond)
	}

	items, err := h.service.ListByDateRange(c.Request().Context(), actor, from, to)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toReportResponses(items))
}

// Get handles GET /reports/:id.
//
// @Summary      Get a report
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Report ID"
// @Success      200  {object}  reportResponse
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /reports/{id} [get]
func (h *ReportHandler) Get(c echo.Context) error {
	actor, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	rep, err := h.service.Get(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toReportResponse(rep))
}

// Update handles PATCH /reports/:id.
//
// @Summary      Update a report
// @Tags         reports
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Report ID"
// @Param        body  body      updateReportRequest  true  "Fields to change"
// @Success      200   {object}  reportResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /reports/{id} [patch]
func (h *ReportHandler) Update(c echo.Context) error {
	actor, err := currentPrincipal(c)
	if err != nil {
		return err
	}

	var req updateReportRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	if err := checkCoordinates(req.Latitude, req.Longitude); err != nil {
		return err
	}

	rep, err := h.service.Update(c.Request().Context(), actor, c.Param("id"), toReportUpdate(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toReportResponse(rep))
}

// Delete handles DELETE /reports/:id.
//
// @Summary      Delete a report
// @Tags         reports
// @Security     BearerAuth
// @Param        id   path  string  true  "Report ID"
// @Success      204
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /reports/{id} [delete]
func (h *ReportHandler) Delete(c echo.Context) error {
	actor, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func checkCoordinates(lat, lng *float64) error {
	if (lat == nil) != (lng == nil) {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "latitude and longitude must be provided together")
	}
	return nil
}

// parseDateParam accepts YYYY-MM-DD or RFC3339. A missing optional value
// yields the zero time.
func parseDateParam(c echo.Context, name string, required bool) (time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		if required {
			return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, name+" is required")
		}
		return time.Time{}, nil
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, name+" must be YYYY-MM-DD or RFC3339")
	}
	return t.UTC(), nil
}
