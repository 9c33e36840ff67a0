package api

import (
	"net/http"
	"time"

	models "HemoWatch/internal/domain/models"
	"HemoWatch/internal/usecase"
	xhttp "HemoWatch/pkg/http"
	xlogger "HemoWatch/pkg/logger"
	"HemoWatch/pkg/util"

	"github.com/labstack/echo/v4"
)

// MonitorEchoHandler implements Echo-based HTTP handlers following Clean Architecture.
type MonitorEchoHandler struct {
	logger  *xlogger.Logger
	monitor *usecase.MonitorUseCase
	series  *usecase.SeriesUseCase
}

func NewMonitorEchoHandler(logger *xlogger.Logger, monitor *usecase.MonitorUseCase, series *usecase.SeriesUseCase) *MonitorEchoHandler {
	return &MonitorEchoHandler{logger: logger, monitor: monitor, series: series}
}

func (h *MonitorEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/sessions", h.IngestSession)
	g.POST("/screen", h.Screen)
	g.POST("/waveform/reduce", h.Reduce)
	g.GET("/series", h.Series)
}

// IngestSession runs one transmission through the full monitor path.
func (h *MonitorEchoHandler) IngestSession(c echo.Context) error {
	req := &models.IngestSessionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ts := req.Timestamp
	if ts == 0 {
		ts = time.Now().Unix()
	}
	sess := &models.Session{
		PatientID: req.PatientID,
		Timestamp: ts,
		Waveform:  req.Waveform,
	}

	res, err := h.monitor.IngestSession(c.Request().Context(), sess)
	if err != nil {
		h.logger.Error("ingest session usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.CreatedResponse(c, res)
}

// Screen tests one candidate against an explicit baseline.
func (h *MonitorEchoHandler) Screen(c echo.Context) error {
	req := &models.ScreenRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	r, err := h.monitor.Screen(req.Baseline, req.Candidate, req.Alpha)
	if err != nil {
		h.logger.Error("screen usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	res := models.ScreenResult{
		PatientID: req.PatientID,
		Timestamp: time.Now(),
		Lower:     r.Lower,
		Upper:     r.Upper,
		PValue:    r.PValue,
		Outlier:   r.Outlier,
		Baseline:  r.N,
	}
	return xhttp.SuccessResponse(c, res)
}

// Reduce quantizes a raw waveform into the histogram and representative.
func (h *MonitorEchoHandler) Reduce(c echo.Context) error {
	req := &models.ReduceRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.monitor.Reduce(req.Waveform, req.Blanking, req.Quantize)
	if err != nil {
		h.logger.Error("reduce usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Series returns a patient's stored samples for a time range.
func (h *MonitorEchoHandler) Series(c echo.Context) error {
	req := &models.SeriesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	now := time.Now()
	from := xhttp.ParseTimeDefault(req.From, now.Add(-24*time.Hour))
	to := xhttp.ParseTimeDefault(req.To, now)
	from, to = util.AlignRange(from, to, time.Second)

	res, err := h.series.GetSeries(c.Request().Context(), usecase.GetSeriesParams{
		PatientID: req.PatientID,
		From:      from,
		To:        to,
		Limit:     req.Limit,
	})
	if err != nil {
		h.logger.Error("series usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, res)
}

// Ensure HTTP status is OK on DataResponse
func init() { _ = http.StatusOK }
