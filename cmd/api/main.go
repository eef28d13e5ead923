package main

import (
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"charging-robots/internal/api/handlers"
	"charging-robots/internal/api/middleware"
	"charging-robots/internal/api/sessions"
	"charging-robots/internal/config"
	"charging-robots/internal/sim"
	"charging-robots/internal/ws"
)

func main() {
	log := logrus.New()
	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}

	base := config.Default()
	if path := os.Getenv("SIM_CONFIG"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			log.WithError(err).Fatal("loading config")
		}
		base = loaded
		log.WithField("path", path).Info("loaded config")
	}

	router := gin.New()
	router.Use(middleware.CORS())
	router.Use(middleware.Logger(log))
	router.Use(middleware.ErrorHandler())

	store := sessions.NewStore(time.Hour)
	simHandler := handlers.NewSimulationHandler(store, base, log)
	compareHandler := handlers.NewCompareHandler(base, log)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "sessions": store.Len()})
	})

	api := router.Group("/api/v1")
	{
		api.POST("/simulations", simHandler.Create)
		api.POST("/simulations/:id/step", simHandler.Step)
		api.GET("/simulations/:id/snapshot", simHandler.Snapshot)
		api.GET("/simulations/:id/stats", simHandler.Stats)
		api.GET("/simulations/:id/log", simHandler.Log)
		api.DELETE("/simulations/:id", simHandler.Delete)

		api.POST("/compare", compareHandler.Run)

		api.GET("/policies", handlers.ListPolicies)
		api.GET("/scales", handlers.ListScales)
	}

	// One shared live simulation streamed to every websocket viewer,
	// capped at a simulated day like the REST sessions.
	liveCfg := *base
	if liveCfg.HorizonMinutes > 24*60 {
		liveCfg.HorizonMinutes = 24 * 60
	}
	live, err := sim.New(&liveCfg)
	if err != nil {
		log.WithError(err).Fatal("building live simulation")
	}
	live.SetLogger(log)
	if err := live.Setup(); err != nil {
		log.WithError(err).Fatal("live simulation setup")
	}
	hub := ws.NewHub(log)
	router.GET("/ws", gin.WrapH(ws.NewHandler(hub, live, log)))

	addr := fmt.Sprintf(":%s", port)
	log.WithField("addr", addr).Info("starting API server")
	if err := router.Run(addr); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
