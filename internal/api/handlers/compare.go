package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"charging-robots/internal/api/models"
	"charging-robots/internal/compare"
	"charging-robots/internal/config"
)

// CompareHandler runs policy comparisons synchronously.
type CompareHandler struct {
	base *config.Config
	log  logrus.FieldLogger
}

func NewCompareHandler(base *config.Config, log logrus.FieldLogger) *CompareHandler {
	return &CompareHandler{base: base, log: log}
}

// Run handles POST /api/v1/compare.
func (h *CompareHandler) Run(c *gin.Context) {
	var req models.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	cfg := *h.base
	if req.Seed != nil {
		cfg.Seed = *req.Seed
	}
	if req.HorizonMinutes > 0 {
		cfg.HorizonMinutes = req.HorizonMinutes
	}
	// Comparisons block the request, so they get the same one-day cap as
	// interactive sessions.
	if cfg.HorizonMinutes > sessionHorizonCap {
		cfg.HorizonMinutes = sessionHorizonCap
	}

	results, err := compare.Run(&cfg, req.Scales, req.Policies, h.log)
	if err != nil {
		badRequest(c, "COMPARE_ERROR", err.Error())
		return
	}

	c.JSON(http.StatusOK, models.CompareResponse{
		Results: compare.RankByCompletion(results),
		Best:    compare.BestByScale(results),
	})
}
