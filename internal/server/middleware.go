package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// UploadLimit caps the request body at the configured upload size.
func (s *Server) UploadLimit() gin.HandlerFunc {
	limit := s.cfg.MaxUploadBytes
	return func(c *gin.Context) {
		if limit > 0 {
			if c.Request.ContentLength > limit {
				AbortWithError(c, ErrPayloadTooLarge)
				return
			}
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
