package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	tenantCookie = "tenant_id"
	tenantHeader = "X-Tenant-ID"
	tenantKey    = "tenantID"
	// tenantCookieMaxAge keeps a browser on the same game for a day.
	tenantCookieMaxAge = 24 * 60 * 60
)

// TenantMiddleware identifies the caller's game. It reads the tenant id from
// the X-Tenant-ID header or the tenant cookie, and assigns a new one when
// neither carries a valid UUID.
func (h *HTTPHandler) TenantMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetHeader(tenantHeader)
		if tenantID == "" {
			tenantID, _ = c.Cookie(tenantCookie)
		}
		if _, err := uuid.Parse(tenantID); err != nil {
			tenantID = uuid.NewString()
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(tenantCookie, tenantID, tenantCookieMaxAge, "/", "", false, true)
		c.Set(tenantKey, tenantID)
		c.Next()
	}
}
