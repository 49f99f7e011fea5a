// Package api serves the permutation service over HTTP with gin.
package api

import (
	"math"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gopermute/app"
	"gopermute/internal"
	"gopermute/internal/errors"
)

// RunIDHeader carries an optional client-chosen run ID (a UUID)
const RunIDHeader = "X-Run-ID"

var registerOnce sync.Once

// registerValidators adds the custom binding tags to gin's validator
func registerValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("finite", validateFinite)
		}
	})
}

// validateFinite rejects NaN and infinite floats
func validateFinite(fl validator.FieldLevel) bool {
	f := fl.Field().Float()
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// TwoSampleRequest is the body of POST /v1/two-sample
type TwoSampleRequest struct {
	X           []float64 `json:"x" binding:"required,min=1,dive,finite"`
	Y           []float64 `json:"y" binding:"required,min=1,dive,finite"`
	Reps        int       `json:"reps" binding:"gte=0"`
	Stat        string    `json:"stat" binding:"omitempty,oneof=mean t"`
	Alternative string    `json:"alternative" binding:"omitempty,oneof=greater less two-sided"`
	Seed        *int64    `json:"seed"`
	Shift       *float64  `json:"shift" binding:"omitempty,finite"`
	KeepDist    bool      `json:"keep_dist"`
	Workers     int       `json:"workers" binding:"gte=0"`
}

// OneSampleRequest is the body of POST /v1/one-sample. Y is optional; when
// present the test is on the paired differences.
type OneSampleRequest struct {
	X           []float64 `json:"x" binding:"required,min=1,dive,finite"`
	Y           []float64 `json:"y" binding:"omitempty,dive,finite"`
	Reps        int       `json:"reps" binding:"gte=0"`
	Stat        string    `json:"stat" binding:"omitempty,oneof=mean t"`
	Alternative string    `json:"alternative" binding:"omitempty,oneof=greater less two-sided"`
	Seed        *int64    `json:"seed"`
	KeepDist    bool      `json:"keep_dist"`
	Workers     int       `json:"workers" binding:"gte=0"`
}

// ConfIntRequest is the body of POST /v1/conf-int
type ConfIntRequest struct {
	X       []float64 `json:"x" binding:"required,min=1,dive,finite"`
	Y       []float64 `json:"y" binding:"required,min=1,dive,finite"`
	Level   float64   `json:"level" binding:"omitempty,gt=0,lt=1"`
	Side    string    `json:"side" binding:"omitempty,oneof=two-sided lower upper"`
	Reps    int       `json:"reps" binding:"gte=0"`
	Stat    string    `json:"stat" binding:"omitempty,oneof=mean t"`
	Seed    *int64    `json:"seed"`
	Workers int       `json:"workers" binding:"gte=0"`
}

// CorrRequest is the body of POST /v1/corr
type CorrRequest struct {
	X       []float64 `json:"x" binding:"required,min=2,dive,finite"`
	Y       []float64 `json:"y" binding:"required,min=2,dive,finite"`
	Reps    int       `json:"reps" binding:"gte=0"`
	Seed    *int64    `json:"seed"`
	Workers int       `json:"workers" binding:"gte=0"`
}

// BinomRequest is the body of POST /v1/binom-conf-int
type BinomRequest struct {
	N     int     `json:"n" binding:"required,gt=0"`
	K     int     `json:"k" binding:"gte=0,ltefield=N"`
	Level float64 `json:"level" binding:"omitempty,gt=0,lt=1"`
	Side  string  `json:"side" binding:"omitempty,oneof=two-sided lower upper"`
}

// PermuteHandler handles permutation test requests
type PermuteHandler struct {
	service *app.PermutationService
	logger  *internal.Logger
}

// NewPermuteHandler creates a new permutation handler
func NewPermuteHandler(service *app.PermutationService, logger *internal.Logger) *PermuteHandler {
	registerValidators()
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &PermuteHandler{service: service, logger: logger.With("api")}
}

// RegisterRoutes mounts the handler on r
func (h *PermuteHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/healthz", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	v1.POST("/two-sample", h.TwoSample)
	v1.POST("/one-sample", h.OneSample)
	v1.POST("/conf-int", h.ConfInt)
	v1.POST("/corr", h.Corr)
	v1.POST("/binom-conf-int", h.BinomConfInt)
}

// Health reports liveness
func (h *PermuteHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// TwoSample runs a two-sample permutation test
func (h *PermuteHandler) TwoSample(c *gin.Context) {
	var req TwoSampleRequest
	if !h.bind(c, &req) {
		return
	}
	res, err := h.service.TwoSample(c.Request.Context(), app.TwoSampleRequest{
		RunID:       c.GetHeader(RunIDHeader),
		X:           req.X,
		Y:           req.Y,
		Reps:        req.Reps,
		Stat:        req.Stat,
		Alternative: req.Alternative,
		Seed:        req.Seed,
		Shift:       req.Shift,
		KeepDist:    req.KeepDist,
		Workers:     req.Workers,
	})
	h.respond(c, res, err)
}

// OneSample runs a one-sample or paired permutation test
func (h *PermuteHandler) OneSample(c *gin.Context) {
	var req OneSampleRequest
	if !h.bind(c, &req) {
		return
	}
	res, err := h.service.OneSample(c.Request.Context(), app.OneSampleRequest{
		RunID:       c.GetHeader(RunIDHeader),
		X:           req.X,
		Y:           req.Y,
		Reps:        req.Reps,
		Stat:        req.Stat,
		Alternative: req.Alternative,
		Seed:        req.Seed,
		KeepDist:    req.KeepDist,
		Workers:     req.Workers,
	})
	h.respond(c, res, err)
}

// ConfInt computes a confidence interval for a constant shift
func (h *PermuteHandler) ConfInt(c *gin.Context) {
	var req ConfIntRequest
	if !h.bind(c, &req) {
		return
	}
	res, err := h.service.ConfInt(c.Request.Context(), app.ConfIntRequest{
		RunID:   c.GetHeader(RunIDHeader),
		X:       req.X,
		Y:       req.Y,
		Level:   req.Level,
		Side:    req.Side,
		Reps:    req.Reps,
		Stat:    req.Stat,
		Seed:    req.Seed,
		Workers: req.Workers,
	})
	h.respond(c, res, err)
}

// Corr runs a correlation permutation test
func (h *PermuteHandler) Corr(c *gin.Context) {
	var req CorrRequest
	if !h.bind(c, &req) {
		return
	}
	res, err := h.service.Corr(c.Request.Context(), app.CorrRequest{
		RunID:   c.GetHeader(RunIDHeader),
		X:       req.X,
		Y:       req.Y,
		Reps:    req.Reps,
		Seed:    req.Seed,
		Workers: req.Workers,
	})
	h.respond(c, res, err)
}

// BinomConfInt computes a Clopper-Pearson interval
func (h *PermuteHandler) BinomConfInt(c *gin.Context) {
	var req BinomRequest
	if !h.bind(c, &req) {
		return
	}
	res, err := h.service.BinomConfInt(c.Request.Context(), app.BinomRequest{
		RunID: c.GetHeader(RunIDHeader),
		N:     req.N,
		K:     req.K,
		Level: req.Level,
		Side:  req.Side,
	})
	h.respond(c, res, err)
}

func (h *PermuteHandler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
			"code":  errors.CodeValidationError,
		})
		return false
	}
	return true
}

func (h *PermuteHandler) respond(c *gin.Context, res interface{}, err error) {
	if err != nil {
		code := errors.GetCode(err)
		status := statusFor(code)
		if status >= http.StatusInternalServerError {
			h.logger.Error("%s %s: %v", c.Request.Method, c.FullPath(), err)
		}
		c.JSON(status, gin.H{"error": err.Error(), "code": code})
		return
	}
	c.JSON(http.StatusOK, res)
}

// statusFor maps application error codes to HTTP status
func statusFor(code string) int {
	switch code {
	case errors.CodeInvalidInput, errors.CodeValidationError, errors.CodeLimitExceeded:
		return http.StatusBadRequest
	case errors.CodeSolverFailure:
		return http.StatusUnprocessableEntity
	case errors.CodeBusy:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
