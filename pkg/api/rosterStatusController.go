package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/portsampling/sampling-rosters/pkg/core/services"
)

// RosterStatusController serves the status lifecycle endpoints
type RosterStatusController struct {
	service *services.RosterStatusService
	gateway *services.StatusUpdateGateway
	logger  *zap.Logger
}

func NewRosterStatusController(service *services.RosterStatusService, gateway *services.StatusUpdateGateway, logger *zap.Logger) *RosterStatusController {
	return &RosterStatusController{service: service, gateway: gateway, logger: logger}
}

type transitionRequest struct {
	NewStatus string `json:"newStatus" binding:"required"`
	Reason    string `json:"reason"`
}

type webhookUpdateRequest struct {
	RosterID   string                     `json:"rosterId" binding:"required"`
	RosterData services.WebhookRosterData `json:"rosterData"`
}

// GetStatistics handles GET /statistics
func (c *RosterStatusController) GetStatistics(ctx *gin.Context) {
	stats, err := c.service.Statistics(ctx.Request.Context())
	if err != nil {
		respondError(ctx, c.logger, err)
		return
	}
	respondOK(ctx, http.StatusOK, "Roster status statistics", stats)
}

// GetValidationReport handles GET /validation-report
func (c *RosterStatusController) GetValidationReport(ctx *gin.Context) {
	report, err := c.service.GenerateValidationReport(ctx.Request.Context())
	if err != nil {
		respondError(ctx, c.logger, err)
		return
	}
	respondOK(ctx, http.StatusOK, "Validation report generated", report)
}

// UpdateAutomatically handles POST /update-automatically
func (c *RosterStatusController) UpdateAutomatically(ctx *gin.Context) {
	result, err := c.service.UpdateAllAutomatically(ctx.Request.Context())
	if err != nil {
		respondError(ctx, c.logger, err)
		return
	}
	respondOK(ctx, http.StatusOK, "Automatic status update complete", result)
}

// ValidateRoster handles POST /validate-roster/:rosterId
func (c *RosterStatusController) ValidateRoster(ctx *gin.Context) {
	validation, err := c.service.ValidateRoster(ctx.Request.Context(), ctx.Param("rosterId"))
	if err != nil {
		respondError(ctx, c.logger, err)
		return
	}
	respondOK(ctx, http.StatusOK, "Roster validated", validation)
}

// Transition handles POST /transition/:rosterId
func (c *RosterStatusController) Transition(ctx *gin.Context) {
	var req transitionRequest
	if !bindJSON(ctx, c.logger, &req) {
		return
	}

	result, err := c.service.Transition(ctx.Request.Context(), ctx.Param("rosterId"), req.NewStatus, req.Reason)
	if err != nil {
		respondError(ctx, c.logger, err)
		return
	}
	respondOK(ctx, http.StatusOK, "Roster status updated", result)
}

// GetStatusInfo handles GET /status-info
func (c *RosterStatusController) GetStatusInfo(ctx *gin.Context) {
	respondOK(ctx, http.StatusOK, "Roster status information", c.service.StatusInfo())
}

// WebhookUpdate handles POST /webhook-update. A failed sync is still a 200;
// the gateway outcome is reported in the body.
func (c *RosterStatusController) WebhookUpdate(ctx *gin.Context) {
	var req webhookUpdateRequest
	if !bindJSON(ctx, c.logger, &req) {
		return
	}

	result := c.gateway.WebhookUpdate(ctx.Request.Context(), req.RosterID, req.RosterData)
	if result.Error != "" {
		ctx.JSON(http.StatusOK, Response{Message: "Status sync failed", Data: result, Error: result.Error})
		return
	}

	message := "Status unchanged"
	if result.Updated {
		message = "Status updated"
	}
	respondOK(ctx, http.StatusOK, message, result)
}
