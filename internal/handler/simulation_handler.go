package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/ncastellan/pricewatch-backend-go/internal/models"
	"github.com/ncastellan/pricewatch-backend-go/internal/pricing"
	"github.com/ncastellan/pricewatch-backend-go/internal/repository"
	"github.com/ncastellan/pricewatch-backend-go/internal/service"
	"github.com/ncastellan/pricewatch-backend-go/pkg/response"
)

// SimulationHandler handles on-demand price-change simulations.
type SimulationHandler struct {
	service *service.SimulationService
}

// NewSimulationHandler creates a new simulation handler.
func NewSimulationHandler(service *service.SimulationService) *SimulationHandler {
	return &SimulationHandler{service: service}
}

// Simulate projects the effect of a price change on one product.
// POST /api/v1/simulations
func (h *SimulationHandler) Simulate(c *gin.Context) {
	var req models.SimulationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	result, err := h.service.Simulate(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			response.NotFound(c, err.Error())
		case errors.Is(err, pricing.ErrMissingInput):
			response.BadRequest(c, err.Error())
		default:
			response.InternalError(c, err.Error())
		}
		return
	}

	response.Success(c, result)
}
