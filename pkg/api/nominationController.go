package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/portsampling/sampling-rosters/pkg/core/model"
	"github.com/portsampling/sampling-rosters/pkg/core/services"
	"github.com/portsampling/sampling-rosters/pkg/db"
)

// NominationController serves ship nominations
type NominationController struct {
	store  db.NominationStore
	logger *zap.Logger
	now    func() time.Time
}

func NewNominationController(store db.NominationStore, logger *zap.Logger, now func() time.Time) *NominationController {
	if now == nil {
		now = time.Now
	}
	return &NominationController{store: store, logger: logger, now: now}
}

// ListNominations handles GET /api/nominations
func (c *NominationController) ListNominations(ctx *gin.Context) {
	nominations, err := c.store.FindAllNominations(ctx.Request.Context())
	if err != nil {
		respondError(ctx, c.logger, fmt.Errorf("failed to fetch nominations: %w", err))
		return
	}
	if nominations == nil {
		nominations = []model.ShipNomination{}
	}
	respondOK(ctx, http.StatusOK, "Nominations", nominations)
}

// CreateNomination handles POST /api/nominations
func (c *NominationController) CreateNomination(ctx *gin.Context) {
	var nomination model.ShipNomination
	if !bindJSON(ctx, c.logger, &nomination) {
		return
	}

	created, err := services.CreateNomination(ctx.Request.Context(), c.store, c.logger, nomination)
	if err != nil {
		respondError(ctx, c.logger, err)
		return
	}
	respondOK(ctx, http.StatusCreated, "Nomination created", created)
}

// UpdateStatuses handles POST /api/nominations/update-statuses
func (c *NominationController) UpdateStatuses(ctx *gin.Context) {
	result, err := services.UpdateNominationStatuses(ctx.Request.Context(), c.store, c.logger, c.now())
	if err != nil {
		respondError(ctx, c.logger, err)
		return
	}
	respondOK(ctx, http.StatusOK, "Nomination status update complete", result)
}
