package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	appCosting "github.com/turtacn/KeyIP-CostEngine/internal/application/costing"
	"github.com/turtacn/KeyIP-CostEngine/internal/domain/costing"
	"github.com/turtacn/KeyIP-CostEngine/pkg/errors"
)

// FeeListResponse is the body of GET /fees.
type FeeListResponse struct {
	IPType costing.IPType      `json:"ip_type"`
	Count  int                 `json:"count"`
	Fees   []costing.FeeRecord `json:"fees"`
}

// JurisdictionListResponse is the body of GET /jurisdictions.
type JurisdictionListResponse struct {
	Jurisdictions []costing.JurisdictionPolicy `json:"jurisdictions"`
}

// FeeHandler exposes the reference fee schedule.
type FeeHandler struct {
	svc appCosting.Service
}

func NewFeeHandler(svc appCosting.Service) *FeeHandler {
	return &FeeHandler{svc: svc}
}

func (h *FeeHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/fees", h.List)
	rg.GET("/jurisdictions", h.Jurisdictions)
}

// List handles GET /fees?jurisdiction=&ip_type=. ip_type defaults to patent.
func (h *FeeHandler) List(c *gin.Context) {
	jurisdiction := strings.TrimSpace(c.Query("jurisdiction"))
	if jurisdiction == "" {
		respondError(c, errors.Validation("invalid fee query", "jurisdiction is required"))
		return
	}
	ipType := costing.IPType(strings.ToLower(strings.TrimSpace(c.DefaultQuery("ip_type", string(costing.IPTypePatent)))))
	switch ipType {
	case costing.IPTypePatent, costing.IPTypeTrademark, costing.IPTypeDesign:
	default:
		respondError(c, errors.Validation("invalid fee query", "unknown ip_type "+string(ipType)))
		return
	}

	fees, err := h.svc.ListFees(c.Request.Context(), jurisdiction, ipType)
	if err != nil {
		respondError(c, err)
		return
	}
	if fees == nil {
		fees = []costing.FeeRecord{}
	}
	c.JSON(http.StatusOK, FeeListResponse{IPType: ipType, Count: len(fees), Fees: fees})
}

// Jurisdictions handles GET /jurisdictions.
func (h *FeeHandler) Jurisdictions(c *gin.Context) {
	c.JSON(http.StatusOK, JurisdictionListResponse{Jurisdictions: h.svc.Jurisdictions()})
}

//Personal.AI order the ending
