package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/portsampling/sampling-rosters/pkg/core/model"
	"github.com/portsampling/sampling-rosters/pkg/core/services"
	"github.com/portsampling/sampling-rosters/pkg/db"
)

// RosterController serves roster creation and editing
type RosterController struct {
	service *services.RosterService
	logger  *zap.Logger
}

func NewRosterController(service *services.RosterService, logger *zap.Logger) *RosterController {
	return &RosterController{service: service, logger: logger}
}

// CreateRoster handles POST /api/rosters
func (c *RosterController) CreateRoster(ctx *gin.Context) {
	var input services.CreateRosterInput
	if !bindJSON(ctx, c.logger, &input) {
		return
	}

	roster, err := c.service.CreateRoster(ctx.Request.Context(), input)
	if err != nil {
		respondError(ctx, c.logger, err)
		return
	}
	respondOK(ctx, http.StatusCreated, "Roster created", roster)
}

// ListRosters handles GET /api/rosters?nominationId=&status=a,b
func (c *RosterController) ListRosters(ctx *gin.Context) {
	filter, err := rosterFilterFromQuery(ctx)
	if err != nil {
		respondError(ctx, c.logger, err)
		return
	}

	rosters, err := c.service.ListRosters(ctx.Request.Context(), filter)
	if err != nil {
		respondError(ctx, c.logger, err)
		return
	}
	if rosters == nil {
		rosters = []model.SamplingRoster{}
	}
	respondOK(ctx, http.StatusOK, "Rosters", rosters)
}

// GetRoster handles GET /api/rosters/:rosterId
func (c *RosterController) GetRoster(ctx *gin.Context) {
	roster, err := c.service.GetRoster(ctx.Request.Context(), ctx.Param("rosterId"))
	if err != nil {
		respondError(ctx, c.logger, err)
		return
	}
	respondOK(ctx, http.StatusOK, "Roster", roster)
}

// AutoSaveRoster handles PATCH /api/rosters/:rosterId/auto-save
func (c *RosterController) AutoSaveRoster(ctx *gin.Context) {
	var change services.AutoSaveChange
	if !bindJSON(ctx, c.logger, &change) {
		return
	}

	result, err := c.service.AutoSaveRoster(ctx.Request.Context(), ctx.Param("rosterId"), change)
	if err != nil {
		respondError(ctx, c.logger, err)
		return
	}
	respondOK(ctx, http.StatusOK, "Roster saved", result)
}

// DeleteRoster handles DELETE /api/rosters/:rosterId
func (c *RosterController) DeleteRoster(ctx *gin.Context) {
	if err := c.service.DeleteRoster(ctx.Request.Context(), ctx.Param("rosterId")); err != nil {
		respondError(ctx, c.logger, err)
		return
	}
	respondOK(ctx, http.StatusOK, "Roster deleted", nil)
}

func rosterFilterFromQuery(ctx *gin.Context) (db.RosterFilter, error) {
	filter := db.RosterFilter{NominationID: ctx.Query("nominationId")}

	raw := strings.TrimSpace(ctx.Query("status"))
	if raw == "" {
		return filter, nil
	}
	for _, part := range strings.Split(raw, ",") {
		st, err := model.ParseStatus(strings.TrimSpace(part))
		if err != nil {
			verr := &model.ValidationError{Message: "invalid roster filter"}
			verr.Add("status", err.Error())
			return filter, verr
		}
		filter.Statuses = append(filter.Statuses, st)
	}
	return filter, nil
}
