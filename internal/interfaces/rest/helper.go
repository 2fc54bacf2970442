package rest

import (
	"fmt"
	"net/http"
	"path"

	"github.com/labstack/echo/v4"
)

type endpoint struct {
	apiVersion  string
	middlewares []echo.MiddlewareFunc
	groups      []*apiGroup
}

type apiGroup struct {
	prefix      string
	middlewares []echo.MiddlewareFunc
	routes      []*route
}

type route struct {
	method      string
	path        string
	handler     echo.HandlerFunc
	middlewares []echo.MiddlewareFunc
}

var allowedMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodHead:    true,
	http.MethodConnect: true,
}

// createEndpoint mounts every group of def under /<apiVersion>, it panics on unknown methods
// and on a method/path pair declared twice
func createEndpoint(app *echo.Echo, def *endpoint) []*echo.Route {
	root := app.Group(path.Join("/", def.apiVersion), def.middlewares...)

	var mounted []*echo.Route
	seen := make(map[string]bool)
	for _, group := range def.groups {
		echoGroup := root.Group(group.prefix, group.middlewares...)
		for _, api := range group.routes {
			if !allowedMethods[api.method] {
				panic(fmt.Errorf("createEndpoint: unknown method %s", api.method))
			}
			key := api.method + " " + path.Join("/", def.apiVersion, group.prefix, api.path)
			if seen[key] {
				panic(fmt.Errorf("createEndpoint: duplicated route %s", key))
			}
			seen[key] = true
			mounted = append(mounted, echoGroup.Add(api.method, api.path, api.handler, api.middlewares...))
		}
	}
	return mounted
}
