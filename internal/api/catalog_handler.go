package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"scholarly/feedback-app/internal/domain"
	"scholarly/feedback-app/internal/pricing"
	"scholarly/feedback-app/internal/service"
)

type CatalogHandler struct {
	catalog service.CatalogService
}

func NewCatalogHandler(catalog service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

type ServiceResponse struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Description        string `json:"description,omitempty"`
	UnitPrice          int64  `json:"unitPrice"`
	UnitPriceFormatted string `json:"unitPriceFormatted"`
	WordsPerUnit       int    `json:"wordsPerUnit"`
	TurnaroundHours    int    `json:"turnaroundHours"`
	IsExpress          bool   `json:"isExpress"`
}

// ListServices godoc
// @Summary List pricing tiers
// @Tags Catalog
// @Produce json
// @Success 200 {array} ServiceResponse
// @Router /services [get]
func (h *CatalogHandler) ListServices(c *gin.Context) {
	services, err := h.catalog.ListServices(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]ServiceResponse, 0, len(services))
	for i := range services {
		resp = append(resp, MapServiceToResponse(&services[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// GetService godoc
// @Summary Get one pricing tier
// @Tags Catalog
// @Produce json
// @Param id path string true "Service ID"
// @Success 200 {object} ServiceResponse
// @Failure 404 {object} ErrorResponse
// @Router /services/{id} [get]
func (h *CatalogHandler) GetService(c *gin.Context) {
	svc, err := h.catalog.GetService(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapServiceToResponse(svc))
}

func MapServiceToResponse(s *domain.Service) ServiceResponse {
	return ServiceResponse{
		ID:                 s.ID,
		Name:               s.Name,
		Description:        s.Description,
		UnitPrice:          s.UnitPrice,
		UnitPriceFormatted: pricing.FormatPrice(s.UnitPrice),
		WordsPerUnit:       pricing.WordsPerUnit,
		TurnaroundHours:    s.TurnaroundHours,
		IsExpress:          s.IsExpress,
	}
}
