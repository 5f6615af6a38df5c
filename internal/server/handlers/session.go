package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/hamma/internal/service/procurement"
)

const sessionKey = "procurement.session"

// RequireSession resolves the :sid path parameter and stores the session on the context.
func RequireSession(sessions *procurement.SessionManager, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		session, err := sessions.Get(c.Param("sid"))
		if err != nil {
			respondError(c, logger, err)
			c.Abort()
			return
		}
		c.Set(sessionKey, session)
		c.Next()
	}
}

func sessionFrom(c *gin.Context) *procurement.Session {
	return c.MustGet(sessionKey).(*procurement.Session)
}
