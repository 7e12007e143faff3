package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	AllowCredentials bool
}

// CORS returns CORS middleware. A "*" header entry mirrors whatever the
// preflight asks for.
func CORS(cfg CORSConfig) echo.MiddlewareFunc {
	wildcardHeaders := false
	for _, h := range cfg.AllowHeaders {
		if h == "*" {
			wildcardHeaders = true
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			header := c.Response().Header()
			origin := req.Header.Get(echo.HeaderOrigin)
			header.Add(echo.HeaderVary, echo.HeaderOrigin)

			if origin == "" || !originAllowed(cfg.AllowOrigins, origin) {
				return next(c)
			}

			header.Set(echo.HeaderAccessControlAllowOrigin, origin)
			if cfg.AllowCredentials {
				header.Set(echo.HeaderAccessControlAllowCredentials, "true")
			}

			if req.Method != http.MethodOptions || req.Header.Get(echo.HeaderAccessControlRequestMethod) == "" {
				return next(c)
			}

			// Preflight
			if len(cfg.AllowMethods) > 0 {
				header.Set(echo.HeaderAccessControlAllowMethods, strings.Join(cfg.AllowMethods, ", "))
			}
			if wildcardHeaders {
				if h := req.Header.Get(echo.HeaderAccessControlRequestHeaders); h != "" {
					header.Set(echo.HeaderAccessControlAllowHeaders, h)
				}
			} else if len(cfg.AllowHeaders) > 0 {
				header.Set(echo.HeaderAccessControlAllowHeaders, strings.Join(cfg.AllowHeaders, ", "))
			}
			return c.NoContent(http.StatusNoContent)
		}
	}
}

func originAllowed(allowed []string, origin string) bool {
	for _, o := range allowed {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}
