package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/portsampling/sampling-rosters/pkg/core/services"
	"github.com/portsampling/sampling-rosters/pkg/db"
)

// Dependencies are the services the router exposes
type Dependencies struct {
	Status         *services.RosterStatusService
	Gateway        *services.StatusUpdateGateway
	Rosters        *services.RosterService
	Nominations    db.NominationStore
	AllowedOrigins []string
	Logger         *zap.Logger
	// Now defaults to time.Now
	Now func() time.Time
}

// NewRouter builds the gin engine with every route group, /health and /metrics
func NewRouter(deps Dependencies) *gin.Engine {
	useJSONFieldNames()

	router := gin.New()
	router.Use(Recovery(deps.Logger), RequestLogger(deps.Logger), SetupCORS(deps.AllowedOrigins))

	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	SetupRosterStatusRoutes(router, deps.Status, deps.Gateway, deps.Logger)
	SetupRosterRoutes(router, deps.Rosters, deps.Logger)
	SetupNominationRoutes(router, deps.Nominations, deps.Logger, deps.Now)

	return router
}

func SetupRosterStatusRoutes(router *gin.Engine, service *services.RosterStatusService, gateway *services.StatusUpdateGateway, logger *zap.Logger) {
	controller := NewRosterStatusController(service, gateway, logger)

	group := router.Group("/api/roster-status")
	{
		group.GET("/statistics", controller.GetStatistics)
		group.GET("/validation-report", controller.GetValidationReport)
		group.POST("/update-automatically", controller.UpdateAutomatically)
		group.POST("/validate-roster/:rosterId", controller.ValidateRoster)
		group.POST("/transition/:rosterId", controller.Transition)
		group.GET("/status-info", controller.GetStatusInfo)
		group.POST("/webhook-update", controller.WebhookUpdate)
	}
}

func SetupRosterRoutes(router *gin.Engine, service *services.RosterService, logger *zap.Logger) {
	controller := NewRosterController(service, logger)

	group := router.Group("/api/rosters")
	{
		group.POST("", controller.CreateRoster)
		group.GET("", controller.ListRosters)
		group.GET("/:rosterId", controller.GetRoster)
		group.PATCH("/:rosterId/auto-save", controller.AutoSaveRoster)
		group.DELETE("/:rosterId", controller.DeleteRoster)
	}
}

func SetupNominationRoutes(router *gin.Engine, store db.NominationStore, logger *zap.Logger, now func() time.Time) {
	controller := NewNominationController(store, logger, now)

	group := router.Group("/api/nominations")
	{
		group.GET("", controller.ListNominations)
		group.POST("", controller.CreateNomination)
		group.POST("/update-statuses", controller.UpdateStatuses)
	}
}
