package middleware

import (
	"github.com/labstack/echo/v4"
)

// contentSecurityPolicy allows the question form's own inline styles and
// same-origin form posts; scripts and framing are refused.
const contentSecurityPolicy = "default-src 'none'; style-src 'self' 'unsafe-inline'; form-action 'self'; base-uri 'none'; frame-ancestors 'none'"

// SecurityHeaders sets response headers for pages and JSON that may carry
// patient data.
func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Content-Security-Policy", contentSecurityPolicy)
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			// Answers contain clinical data.
			h.Set("Cache-Control", "no-store")
			return next(c)
		}
	}
}
