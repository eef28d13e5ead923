package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"charging-robots/internal/api/models"
	"charging-robots/internal/config"
)

var policyDescriptions = map[string]string{
	config.PolicyNearestFirst:       "each robot takes the closest feasible waiting vehicle",
	config.PolicyMaxChargeNeedFirst: "vehicles with the largest outstanding energy are served first",
	config.PolicyEarliestDeadline:   "vehicles are served in departure order",
	config.PolicyMostUrgentFirst:    "vehicles are served in descending priority order",
	config.PolicyHybrid:             "score-based matching with urgency, waiting and zone-balance terms",
	config.PolicyRL:                 "tabular Q-learning over robot state and waiting vehicles",
}

// ListPolicies handles GET /api/v1/policies.
func ListPolicies(c *gin.Context) {
	out := make([]models.PolicyInfo, 0, len(config.Policies))
	for _, name := range config.Policies {
		out = append(out, models.PolicyInfo{
			Name:        name,
			Description: policyDescriptions[name],
		})
	}
	c.JSON(http.StatusOK, gin.H{"policies": out})
}

// ListScales handles GET /api/v1/scales.
func ListScales(c *gin.Context) {
	out := make([]models.ScaleInfo, 0, len(config.Scales))
	for _, name := range config.Scales {
		preset, ok := config.Preset(name)
		if !ok {
			continue
		}
		out = append(out, models.ScaleInfo{
			Name:            name,
			Robots:          preset.Robots,
			Batteries:       preset.Batteries,
			VehiclesPerHour: preset.VehiclesPerHour,
		})
	}
	c.JSON(http.StatusOK, gin.H{"scales": out})
}
