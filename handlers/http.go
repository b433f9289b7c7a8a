package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wavebot/controller"
)

type sessionLister interface {
	Sessions() []controller.SessionInfo
	Session(guildID string) (controller.SessionInfo, bool)
}

// NewOpsRouter serves read-only session state for operators.
func NewOpsRouter(sessions sessionLister, middleware ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware...)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ok":       true,
			"sessions": len(sessions.Sessions()),
		})
	})

	router.GET("/sessions", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"sessions": sessions.Sessions(),
		})
	})

	router.GET("/sessions/:guildId", func(c *gin.Context) {
		info, ok := sessions.Session(c.Param("guildId"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "no active session"})
			return
		}
		c.JSON(http.StatusOK, info)
	})

	return router
}
