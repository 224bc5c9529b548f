package restapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tagprompt/tagprompt/internal/i18n"
	debuglog "github.com/tagprompt/tagprompt/internal/log"
	"github.com/tagprompt/tagprompt/internal/prompt"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "requestID"
)

// NewRouter builds the engine with every handler registered. parser is
// shared by all requests.
func NewRouter(parser *prompt.Parser) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())

	r.GET("/health", Health)
	NewPromptHandler(r, parser)
	return r
}

// Serve runs the REST API on address until the server fails.
func Serve(parser *prompt.Parser, address string) (err error) {
	if debuglog.GetLevel() < debuglog.Detailed {
		gin.SetMode(gin.ReleaseMode)
	}
	r := NewRouter(parser)

	debuglog.Log(i18n.T("server_starting")+"\n", address)
	err = r.Run(address)
	return
}

// RequestIDMiddleware tags every request with an ID, reusing a valid
// incoming X-Request-ID, and logs the request when it completes.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)

		start := time.Now()
		c.Next()
		debuglog.Debug(debuglog.Detailed, "[%s] %s %s -> %d (%s)\n",
			id, c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
