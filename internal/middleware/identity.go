package middleware

// identity.go holds the helper shared across middleware files: resolving the
// authenticated operator from the request context for rate-limit keys.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// userID returns the authenticated operator's ID as a string, or "anon" for
// unauthenticated requests.  JWTAuth stores the raw "sub" claim, which the
// JWT library decodes as a float64; tokens minted elsewhere may carry a
// string.
func userID(c echo.Context) string {
	switch v := c.Get("user_id").(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	}
	return "anon"
}
