package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/cors"
)

// CORS handle preflight requests for the allowed origins, "*" allows any origin
func CORS(origins []string) echo.MiddlewareFunc {
	return echo.WrapMiddleware(cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", echo.HeaderXRequestID},
		ExposedHeaders:   []string{echo.HeaderXRequestID},
		AllowCredentials: true,
		MaxAge:           600,
	}).Handler)
}
