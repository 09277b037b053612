package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	appCosting "github.com/turtacn/KeyIP-CostEngine/internal/application/costing"
	"github.com/turtacn/KeyIP-CostEngine/internal/domain/costing"
	"github.com/turtacn/KeyIP-CostEngine/internal/infrastructure/monitoring/logging"
)

// CalculateRequest is the body of POST /calculations and POST /previews.
// Email is only used by full calculations.
type CalculateRequest struct {
	costing.CalculationInput
	Email string `json:"email,omitempty"`
}

// CalculationHandler serves calculations and previews.
type CalculationHandler struct {
	svc    appCosting.Service
	logger logging.Logger
}

func NewCalculationHandler(svc appCosting.Service, logger logging.Logger) *CalculationHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &CalculationHandler{svc: svc, logger: logger.Named("http.calculations")}
}

// RegisterRoutes mounts the handler on an /api/v1 group.
func (h *CalculationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/calculations", h.Create)
	rg.GET("/calculations/:id", h.Get)
	rg.PATCH("/calculations/:id", h.Update)
	rg.POST("/previews", h.Preview)
}

// Create handles POST /calculations. The record is returned with 201 even
// when it could not be stored.
func (h *CalculationHandler) Create(c *gin.Context) {
	var req CalculateRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	rec, err := h.svc.Calculate(ctx, req.CalculationInput)
	if err != nil {
		respondError(c, err)
		return
	}

	if email := strings.TrimSpace(req.Email); email != "" {
		updated, err := h.svc.UpdateCalculation(ctx, rec.ID, costing.CalculationPatch{Email: &email})
		if err != nil {
			logging.FromContext(ctx, h.logger).Warn("email not recorded",
				logging.CalculationID(rec.ID), logging.Err(err))
		} else {
			rec = updated
		}
	}

	c.Header("Location", "/api/v1/calculations/"+rec.ID)
	c.JSON(http.StatusCreated, rec)
}

// Preview handles POST /previews.
func (h *CalculationHandler) Preview(c *gin.Context) {
	var req CalculateRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}
	p, err := h.svc.Preview(c.Request.Context(), req.CalculationInput)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Get handles GET /calculations/:id.
func (h *CalculationHandler) Get(c *gin.Context) {
	rec, err := h.svc.GetCalculation(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Update handles PATCH /calculations/:id.
func (h *CalculationHandler) Update(c *gin.Context) {
	var patch costing.CalculationPatch
	if err := bindJSON(c, &patch); err != nil {
		respondError(c, err)
		return
	}
	rec, err := h.svc.UpdateCalculation(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

//Personal.AI order the ending
