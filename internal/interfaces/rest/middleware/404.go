package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pot-code/brain-trails/internal/interfaces/rest/handler"
)

// NoRouteMatched no matched route handler
func NoRouteMatched() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if v, ok := err.(*echo.HTTPError); ok && v.Code == http.StatusNotFound {
				return c.JSON(v.Code, handler.NewRESTStandardError(v.Code, "No route matched").
					SetDetail(c.Request().Method+" "+c.Request().URL.Path).
					SetTraceID(c.Response().Header().Get(echo.HeaderXRequestID)))
			}
			return err
		}
	}
}
