package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/noah-isme/account-api/internal/models"
)

const (
	accessDenialPath = "access-denial"
	maxRedirects     = 10
)

// ErrRedirectLoop is returned when redirects do not settle on a route.
var ErrRedirectLoop = errors.New("client route redirect loop")

// DefaultClientRoutes is the route table served to the SPA shell.
func DefaultClientRoutes() []models.ClientRoute {
	return []models.ClientRoute{
		{Path: "", PathMatch: models.PathMatchFull, RedirectTo: "home"},
		{
			Path:         "home",
			Guards:       []models.RouteGuard{models.GuardAuth},
			Component:    "HomeLayoutComponent",
			LoadChildren: "HomeModule",
		},
		{Path: accessDenialPath, Component: "AccessDenialComponent"},
		{Path: "not-found", Component: "NotFoundComponent"},
		{Path: "server-error", Component: "ServerErrorComponent"},
		{Path: models.WildcardPath, PathMatch: models.PathMatchFull, RedirectTo: "not-found"},
	}
}

// ClientRouteService resolves client URLs against a static route table.
type ClientRouteService struct {
	routes []models.ClientRoute
}

// NewClientRouteService constructs a resolver over routes, or the default table when none are given.
func NewClientRouteService(routes ...models.ClientRoute) *ClientRouteService {
	if len(routes) == 0 {
		routes = DefaultClientRoutes()
	}
	return &ClientRouteService{routes: routes}
}

// Routes returns a copy of the table.
func (s *ClientRouteService) Routes() []models.ClientRoute {
	out := make([]models.ClientRoute, len(s.routes))
	copy(out, s.routes)
	return out
}

// Resolve matches path in table order, following redirects, then applies the
// matched route's guards for principal. A nil principal is anonymous.
func (s *ClientRouteService) Resolve(path string, principal *models.JWTClaims) (*models.RouteResolution, error) {
	requested := normalizeClientPath(path)
	res := &models.RouteResolution{RequestedPath: requested, Path: requested}

	current := requested
	for hops := 0; ; hops++ {
		route := s.match(current)
		if route == nil {
			return nil, fmt.Errorf("no client route matches %q", current)
		}
		if route.RedirectTo == "" {
			res.Path = current
			res.Route = route
			break
		}
		if hops >= maxRedirects {
			return nil, ErrRedirectLoop
		}
		current = normalizeClientPath(route.RedirectTo)
		res.Redirects = append(res.Redirects, current)
	}

	for _, guard := range res.Route.Guards {
		switch guard {
		case models.GuardAuth:
			if principal == nil {
				res.Denied = true
				res.DeniedBy = models.GuardAuth
				return res, nil
			}
		case models.GuardRole:
			if len(res.Route.AllowedRoles) > 0 && !principal.HasRole(res.Route.AllowedRoles...) {
				res.Denied = true
				res.DeniedBy = models.GuardRole
				if denial := s.match(accessDenialPath); denial != nil {
					res.Redirects = append(res.Redirects, accessDenialPath)
					res.Path = accessDenialPath
					res.Route = denial
				}
				return res, nil
			}
		}
	}

	return res, nil
}

func (s *ClientRouteService) match(path string) *models.ClientRoute {
	for i := range s.routes {
		route := &s.routes[i]
		if route.Path == models.WildcardPath {
			return route
		}
		if route.PathMatch == models.PathMatchFull {
			if path == route.Path {
				return route
			}
			continue
		}
		if route.Path == "" || path == route.Path || strings.HasPrefix(path, route.Path+"/") {
			return route
		}
	}
	return nil
}

func normalizeClientPath(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	return strings.Trim(strings.TrimSpace(path), "/")
}
