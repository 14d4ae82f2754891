package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/salonloop/notifier/internal/model"
	"github.com/salonloop/notifier/internal/repository"
	"github.com/salonloop/notifier/pkg/httputil"
	"github.com/salonloop/notifier/pkg/logger"
)

const statsWindowDays = 7

// StatusHandler serves the daemon's operational surface: liveness,
// readiness, run history and metrics. It reads audit state only and
// never touches the ledger.
type StatusHandler struct {
	db     *sqlx.DB
	runs   repository.RunLogRepository
	logger *logger.Logger
}

func NewStatusHandler(db *sqlx.DB, runs repository.RunLogRepository, logger *logger.Logger) *StatusHandler {
	return &StatusHandler{
		db:     db,
		runs:   runs,
		logger: logger,
	}
}

func (h *StatusHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health/live", h.LivenessCheck)
	r.GET("/health/ready", h.ReadinessCheck)
	r.GET("/status", h.Status)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (h *StatusHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}

func (h *StatusHandler) ReadinessCheck(c *gin.Context) {
	if err := h.db.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "DOWN",
			"reason": "Database connection failed",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}

func (h *StatusHandler) Status(c *gin.Context) {
	ctx := c.Request.Context()
	since := time.Now().AddDate(0, 0, -statsWindowDays)

	recent, err := h.runs.ListRecent(ctx, 20)
	if err != nil {
		h.logger.Error(err, "failed to list recent runs")
		httputil.RespondWithError(c, err)
		return
	}

	stats := make(map[string]*model.RunStats, 2)
	for _, trigger := range []model.TriggerType{model.TriggerSameDay, model.TriggerFollowUp} {
		s, err := h.runs.Stats(ctx, trigger, since)
		if err != nil {
			h.logger.Error(err, "failed to compute run stats", "trigger", string(trigger))
			continue
		}
		stats[string(trigger)] = s
	}

	httputil.RespondWithSuccess(c, gin.H{
		"window_days": statsWindowDays,
		"stats":       stats,
		"recent_runs": recent,
	})
}
