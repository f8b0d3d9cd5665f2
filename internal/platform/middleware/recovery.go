package middleware

import (
	"fmt"
	"net/http"
	"runtime"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinrec/clinrec/internal/platform/fhir"
)

// Recovery converts a handler panic into the same OperationOutcome error
// surface the resource provider renders, so clients never see a bare 500.
func Recovery(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					var stack [4096]byte
					n := runtime.Stack(stack[:], false)
					rid, _ := c.Get("request_id").(string)

					logger.Error().
						Str("request_id", rid).
						Str("panic", fmt.Sprintf("%v", r)).
						Str("stack", string(stack[:n])).
						Msg("panic recovered")

					err = c.JSON(http.StatusInternalServerError,
						fhir.NewOperationOutcome(fhir.IssueSeverityFatal, fhir.IssueTypeException, "internal server error"))
				}
			}()
			return next(c)
		}
	}
}
