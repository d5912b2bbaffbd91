package requestid

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	// Header is honored when the console forwards its own correlation id.
	Header = "X-Request-ID"

	contextKey = "request_id"
	idBytes    = 16
)

// Middleware tags every request with a correlation id and echoes it back in
// the response header so console traces line up with server logs.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(Header)
		if id == "" {
			id = newID()
		}

		c.Set(contextKey, id)
		c.Writer.Header().Set(Header, id)

		c.Next()
	}
}

// Value returns the correlation id for the current request, or "" when the
// middleware did not run.
func Value(c *gin.Context) string {
	if v, ok := c.Get(contextKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

func newID() string {
	buf := make([]byte, idBytes)
	if _, err := rand.Read(buf); err != nil {
		// Entropy exhaustion is effectively theoretical; fall back to a
		// timestamp rather than failing the request.
		return "req-" + strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return hex.EncodeToString(buf)
}
