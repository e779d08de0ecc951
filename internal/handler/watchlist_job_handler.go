package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/ncastellan/pricewatch-backend-go/internal/models"
	"github.com/ncastellan/pricewatch-backend-go/internal/repository"
	"github.com/ncastellan/pricewatch-backend-go/internal/service"
	"github.com/ncastellan/pricewatch-backend-go/pkg/response"
)

// WatchlistJobHandler handles HTTP requests for watchlist jobs.
type WatchlistJobHandler struct {
	service *service.WatchlistService
}

// NewWatchlistJobHandler creates a new watchlist job handler.
func NewWatchlistJobHandler(service *service.WatchlistService) *WatchlistJobHandler {
	return &WatchlistJobHandler{service: service}
}

// StartJobRequest is the request body for starting a watchlist run.
type StartJobRequest struct {
	CategoryIDs []int64 `json:"categoria_ids"`
	BrandIDs    []int64 `json:"marca_ids"`
	GenderIDs   []int64 `json:"genero_ids"`
	StoreIDs    []int64 `json:"tienda_ids"`
	Search      string  `json:"search"`

	RitmoVentanaDias int `json:"ritmo_ventana_dias"`
	CycleDays        int `json:"cycle_days"`
}

// StartJob submits a new watchlist run.
// POST /api/v1/watchlist/jobs
func (h *WatchlistJobHandler) StartJob(c *gin.Context) {
	var req StartJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	filter := models.CandidateFilter{
		CategoryIDs: req.CategoryIDs,
		BrandIDs:    req.BrandIDs,
		GenderIDs:   req.GenderIDs,
		StoreIDs:    req.StoreIDs,
		Search:      req.Search,
	}
	params := models.JobParams{
		RitmoVentanaDias: req.RitmoVentanaDias,
		CycleDays:        req.CycleDays,
	}

	job, err := h.service.StartJob(c.Request.Context(), filter, params)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, gin.H{"job_id": job.ID, "status": job.Status})
}

// GetJob reports a job's status and progress.
// GET /api/v1/watchlist/jobs/:id
func (h *WatchlistJobHandler) GetJob(c *gin.Context) {
	job, err := h.service.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			response.NotFound(c, err.Error())
			return
		}
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, job)
}

// ListJobs lists jobs, newest first.
// GET /api/v1/watchlist/jobs
func (h *WatchlistJobHandler) ListJobs(c *gin.Context) {
	var q struct {
		Status string `form:"status"`
		Limit  int    `form:"limit,default=20"`
		Offset int    `form:"offset"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "invalid query parameters")
		return
	}

	jobs, err := h.service.ListJobs(c.Request.Context(), q.Status, q.Limit, q.Offset)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, gin.H{"jobs": jobs, "limit": q.Limit, "offset": q.Offset})
}

// CancelJob requests cooperative cancellation. Cancelling a job that is
// already terminal succeeds without effect and reports the actual status.
// DELETE /api/v1/watchlist/jobs/:id
func (h *WatchlistJobHandler) CancelJob(c *gin.Context) {
	status, err := h.service.CancelJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			response.NotFound(c, err.Error())
			return
		}
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, gin.H{"status": status})
}

// GetResult reads one sorted page of a completed job's items.
// GET /api/v1/watchlist/jobs/:id/result
func (h *WatchlistJobHandler) GetResult(c *gin.Context) {
	var q models.ResultQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "invalid query parameters")
		return
	}

	result, err := h.service.GetResult(c.Request.Context(), c.Param("id"), q)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrJobNotFound):
			response.NotFound(c, err.Error())
		case errors.Is(err, service.ErrResultNotReady):
			response.Conflict(c, err.Error())
		case errors.Is(err, service.ErrInvalidSort):
			response.BadRequest(c, err.Error())
		default:
			response.InternalError(c, err.Error())
		}
		return
	}

	response.Success(c, result)
}
