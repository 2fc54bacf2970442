package rest

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEndpoint(t *testing.T) {
	app := echo.New()
	ok := func(c echo.Context) error { return c.String(http.StatusOK, c.Request().Method+" "+c.Path()) }
	tagged := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set("X-Group", "decks")
			return next(c)
		}
	}

	routes := createEndpoint(app, &endpoint{
		apiVersion: "api",
		groups: []*apiGroup{
			{
				prefix:      "/decks",
				middlewares: []echo.MiddlewareFunc{tagged},
				routes: []*route{
					{"GET", "", ok, nil},
					{"PATCH", "/:id", ok, nil},
				},
			},
		},
	})
	require.Len(t, routes, 2)
	assert.Equal(t, "/api/decks/:id", routes[1].Path)

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/api/decks/d1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "PATCH /api/decks/:id", rec.Body.String())
	assert.Equal(t, "decks", rec.Header().Get("X-Group"))
}

func TestCreateEndpointRejectsBadRoutes(t *testing.T) {
	ok := func(c echo.Context) error { return nil }

	assert.Panics(t, func() {
		createEndpoint(echo.New(), &endpoint{
			apiVersion: "api",
			groups:     []*apiGroup{{prefix: "/notes", routes: []*route{{"FETCH", "", ok, nil}}}},
		})
	})
	assert.Panics(t, func() {
		createEndpoint(echo.New(), &endpoint{
			apiVersion: "/api",
			groups: []*apiGroup{{prefix: "/notes", routes: []*route{
				{"GET", "/:id", ok, nil},
				{"GET", "/:id", ok, nil},
			}}},
		})
	})
}
