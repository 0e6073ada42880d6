package logger

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var skipPaths = map[string]bool{
	"/health": true,
	"/ready":  true,
}

type LoggerMiddleware struct {
	logg *logrus.Logger
}

func NewMiddleware(logg *logrus.Logger) *LoggerMiddleware {
	return &LoggerMiddleware{logg: logg}
}

// GinLogger trace chaque requête, hors sondes de santé.
// En JSON chaque requête devient une entrée logrus, sinon format texte Gin.
func (lm *LoggerMiddleware) GinLogger() gin.HandlerFunc {
	if _, isJSON := lm.logg.Formatter.(*logrus.JSONFormatter); isJSON {
		return lm.structuredLogger()
	}

	return gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: lm.customFormatter,
		Output:    lm.logg.Out,
		SkipPaths: []string{"/health", "/ready"},
	})
}

func (lm *LoggerMiddleware) structuredLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		if skipPaths[path] {
			return
		}

		entry := lm.logg.WithFields(logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
			"request_id": c.GetString("request_id"),
			"user_id":    c.GetString("user_id"),
		})

		switch {
		case len(c.Errors) > 0:
			entry.Error(c.Errors.String())
		case c.Writer.Status() >= 500:
			entry.Error("request failed")
		case c.Writer.Status() >= 400:
			entry.Warn("request rejected")
		default:
			entry.Info("request handled")
		}
	}
}

func (lm *LoggerMiddleware) customFormatter(param gin.LogFormatterParams) string {
	var statusColor, methodColor, resetColor string
	if param.IsOutputColor() {
		statusColor = param.StatusCodeColor()
		methodColor = param.MethodColor()
		resetColor = param.ResetColor()
	}

	if param.Latency > time.Minute {
		param.Latency = param.Latency.Truncate(time.Second)
	}

	return fmt.Sprintf("[GIN] %v |%s %3d %s| %13v | %15s |%s %-7s %s %#v\n%s",
		param.TimeStamp.Format("2006/01/02 - 15:04:05"),
		statusColor, param.StatusCode, resetColor,
		param.Latency,
		param.ClientIP,
		methodColor, param.Method, resetColor,
		param.Path,
		param.ErrorMessage,
	)
}
