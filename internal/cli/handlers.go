package cli

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/verdict-ml/verdict/internal/report"
	"github.com/verdict-ml/verdict/internal/store"
)

// handler serves stored runs: the rendered report for browsers, JSON for
// everything else.
type handler struct {
	store  *store.Store
	logger *zap.Logger
}

func newHandler(s *store.Store, logger *zap.Logger) *handler {
	return &handler{store: s, logger: logger}
}

func (h *handler) register(r *gin.Engine) {
	r.GET("/", h.home)

	api := r.Group("/api")
	{
		api.GET("/runs", h.listRuns)
		api.GET("/runs/:id", h.getRun)
	}

	r.GET("/healthz", h.healthz)
}

// home renders the HTML report for the latest run, or for ?run=<id>.
func (h *handler) home(c *gin.Context) {
	run, err := loadRun(h.store, c.Query("run"))
	if err != nil {
		h.logger.Warn("no run to render", zap.Error(err))
		c.String(http.StatusNotFound, "%v", err)
		return
	}

	set, err := h.store.GetResults(run.ID)
	if err != nil {
		h.logger.Error("failed to load results", zap.Error(err))
		c.String(http.StatusInternalServerError, "failed to load results")
		return
	}

	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := report.WriteHTML(c.Writer, set, runMeta(run)); err != nil {
		h.logger.Error("failed to render report", zap.Error(err))
	}
}

func (h *handler) listRuns(c *gin.Context) {
	runs, err := h.store.ListRuns()
	if err != nil {
		h.logger.Error("failed to list runs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list runs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"runs":  runs,
		"total": len(runs),
	})
}

func (h *handler) getRun(c *gin.Context) {
	id := c.Param("id")

	run, err := h.store.GetRun(id)
	if err != nil {
		h.logger.Error("failed to load run", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load run"})
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}

	set, err := h.store.GetResults(id)
	if err != nil {
		h.logger.Error("failed to load results", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load results"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run":     run,
		"results": set.Records(),
	})
}

func (h *handler) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "verdict",
		"version": version,
	})
}
