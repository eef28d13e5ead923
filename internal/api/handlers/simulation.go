package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"charging-robots/internal/api/models"
	"charging-robots/internal/api/sessions"
	"charging-robots/internal/config"
	"charging-robots/internal/sim"
)

const (
	// sessionHorizonCap truncates interactive sessions to one simulated
	// day; batch runs use the CLI.
	sessionHorizonCap = 24 * 60

	// maxStepBatch bounds one step request.
	maxStepBatch = 10000
)

// SimulationHandler manages interactive simulation sessions.
type SimulationHandler struct {
	store *sessions.Store
	base  *config.Config
	log   logrus.FieldLogger
}

func NewSimulationHandler(store *sessions.Store, base *config.Config, log logrus.FieldLogger) *SimulationHandler {
	return &SimulationHandler{store: store, base: base, log: log}
}

// Create handles POST /api/v1/simulations.
func (h *SimulationHandler) Create(c *gin.Context) {
	var req models.CreateSimulationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	cfg := *h.base
	if req.Scale != "" {
		cfg.Scale = req.Scale
		cfg.Fleet = config.FleetConfig{}
	}
	if req.Policy != "" {
		cfg.Policy = req.Policy
	}
	if req.Seed != nil {
		cfg.Seed = *req.Seed
	}
	if req.HorizonMinutes > 0 {
		cfg.HorizonMinutes = req.HorizonMinutes
	}
	if cfg.HorizonMinutes > sessionHorizonCap {
		cfg.HorizonMinutes = sessionHorizonCap
	}

	s, err := sim.New(&cfg)
	if err != nil {
		badRequest(c, "INVALID_CONFIG", err.Error())
		return
	}
	s.SetLogger(h.log)
	if err := s.Setup(); err != nil {
		badRequest(c, "SETUP_ERROR", err.Error())
		return
	}

	sess := h.store.Create(s)
	sess.Scale = cfg.Scale
	sess.Seed = cfg.Seed
	h.log.WithFields(logrus.Fields{
		"session": sess.ID,
		"scale":   cfg.Scale,
		"policy":  cfg.Policy,
	}).Info("session created")
	c.JSON(http.StatusCreated, h.describe(sess))
}

// Step handles POST /api/v1/simulations/:id/step?count=n.
func (h *SimulationHandler) Step(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	count := 1
	if raw := c.Query("count"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			badRequest(c, "INVALID_COUNT", "count must be a positive integer")
			return
		}
		count = parsed
	}
	if count > maxStepBatch {
		count = maxStepBatch
	}

	sess.Mu.Lock()
	var stepErr error
	for i := 0; i < count && !sess.Done; i++ {
		done, err := sess.Sim.Step()
		if err != nil {
			stepErr = err
			break
		}
		sess.Done = done
	}
	sess.Mu.Unlock()

	if stepErr != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "SIMULATION_ABORTED", Message: stepErr.Error()},
		})
		return
	}
	c.JSON(http.StatusOK, h.describe(sess))
}

// Snapshot handles GET /api/v1/simulations/:id/snapshot.
func (h *SimulationHandler) Snapshot(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	sess.Mu.Lock()
	resp := models.SnapshotResponse{
		ID:          sess.ID,
		CurrentTime: sess.Sim.CurrentTime(),
		Horizon:     sess.Sim.Horizon(),
		Done:        sess.Done,
		Vehicles:    sess.Sim.Vehicles(),
		Robots:      sess.Sim.Robots(),
		Batteries:   sess.Sim.Batteries(),
		Stats:       sess.Sim.CurrentStats(),
	}
	sess.Mu.Unlock()
	c.JSON(http.StatusOK, resp)
}

// Stats handles GET /api/v1/simulations/:id/stats.
func (h *SimulationHandler) Stats(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	sess.Mu.Lock()
	resp := models.StatsResponse{
		ID:          sess.ID,
		CurrentTime: sess.Sim.CurrentTime(),
		Done:        sess.Done,
		Stats:       sess.Sim.CurrentStats(),
	}
	sess.Mu.Unlock()
	c.JSON(http.StatusOK, resp)
}

// Log handles GET /api/v1/simulations/:id/log?n=100.
func (h *SimulationHandler) Log(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	n := 100
	if raw := c.Query("n"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			n = parsed
		}
	}
	sess.Mu.Lock()
	lines := sess.Sim.EventLog(n)
	sess.Mu.Unlock()
	c.JSON(http.StatusOK, models.LogResponse{ID: sess.ID, Lines: lines})
}

// Delete handles DELETE /api/v1/simulations/:id.
func (h *SimulationHandler) Delete(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	h.store.Delete(sess.ID)
	c.Status(http.StatusNoContent)
}

func (h *SimulationHandler) session(c *gin.Context) (*sessions.Session, bool) {
	sess, ok := h.store.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "SESSION_NOT_FOUND", Message: "unknown or expired session id"},
		})
		return nil, false
	}
	return sess, true
}

func (h *SimulationHandler) describe(sess *sessions.Session) models.SimulationResponse {
	sess.Mu.Lock()
	defer sess.Mu.Unlock()
	return models.SimulationResponse{
		ID:          sess.ID,
		Scale:       sess.Scale,
		Policy:      sess.Sim.PolicyName(),
		Seed:        sess.Seed,
		CurrentTime: sess.Sim.CurrentTime(),
		Horizon:     sess.Sim.Horizon(),
		Done:        sess.Done,
	}
}

func badRequest(c *gin.Context, code, message string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error: models.ErrorDetail{Code: code, Message: message},
	})
}
