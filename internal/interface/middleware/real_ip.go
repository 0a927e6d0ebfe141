package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// clientIPHeaders are consulted in order; X-Forwarded-For uses its left-most entry.
var clientIPHeaders = []string{"CF-Connecting-IP", "X-Real-IP", "X-Forwarded-For"}

// RealIP stores the caller's address under "real_ip", falling back to c.ClientIP().
func RealIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		for _, h := range clientIPHeaders {
			v := c.GetHeader(h)
			if v == "" {
				continue
			}
			first, _, _ := strings.Cut(v, ",")
			if parsed := net.ParseIP(strings.TrimSpace(first)); parsed != nil {
				ip = parsed.String()
				break
			}
		}
		c.Set("real_ip", ip)
		c.Next()
	}
}
