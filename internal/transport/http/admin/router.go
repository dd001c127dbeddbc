package adminhttp

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"solhelm/internal/engine"
	"solhelm/internal/store"
	"solhelm/internal/types"
)

const defaultListLimit = 50

// StatusSource is the engine view the admin API reads from.
type StatusSource interface {
	Status() engine.Status
}

// DecisionSource serves the audit trail.
type DecisionSource interface {
	RecentDecisions(limit int) ([]store.DecisionEntry, error)
}

// TradeSource serves the execution history.
type TradeSource interface {
	RecentTrades(limit int) ([]types.TradeRecord, error)
}

func registerAPIRoutes(group *gin.RouterGroup, eng StatusSource, audit DecisionSource, trades TradeSource) {
	group.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, eng.Status())
	})
	group.GET("/positions", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"positions": eng.Status().Positions})
	})
	if audit != nil {
		group.GET("/decisions", func(c *gin.Context) {
			entries, err := audit.RecentDecisions(queryLimit(c))
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"decisions": entries})
		})
	}
	if trades != nil {
		group.GET("/trades", func(c *gin.Context) {
			records, err := trades.RecentTrades(queryLimit(c))
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"trades": records})
		})
	}
}

func queryLimit(c *gin.Context) int {
	raw := c.Query("limit")
	if raw == "" {
		return defaultListLimit
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return defaultListLimit
	}
	return n
}
