package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/account-api/internal/models"
)

func TestClientRouteHandlerList(t *testing.T) {
	s := newTestServer(t)

	w := performRequest(s.router, httptest.NewRequest(http.MethodGet, "/api/client/routes", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var routes []models.ClientRoute
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &routes))
	require.Len(t, routes, 6)
	assert.Equal(t, "home", routes[0].RedirectTo)
	assert.Equal(t, []models.RouteGuard{models.GuardAuth}, routes[1].Guards)
	assert.Equal(t, models.WildcardPath, routes[5].Path)
}

func TestClientRouteHandlerResolve(t *testing.T) {
	s := newTestServer(t)

	w := performRequest(s.router, httptest.NewRequest(http.MethodGet, "/api/client/routes/resolve?path=/home", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var res models.RouteResolution
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.Denied)
	assert.Equal(t, models.GuardAuth, res.DeniedBy)

	require.Equal(t, http.StatusCreated, s.post(t, "/api/account/register", alice, nil).Code)
	login := decodeUser(t, s.post(t, "/api/account/login", map[string]string{"username": "alice", "password": "Pa$$w0rd"}, nil))

	req := httptest.NewRequest(http.MethodGet, "/api/client/routes/resolve?path=/", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	w = performRequest(s.router, req)
	require.Equal(t, http.StatusOK, w.Code)
	res = models.RouteResolution{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.False(t, res.Denied)
	assert.Equal(t, "home", res.Path)
	assert.Equal(t, "HomeLayoutComponent", res.Route.Component)

	// A bad bearer on an optional route is treated as anonymous.
	req = httptest.NewRequest(http.MethodGet, "/api/client/routes/resolve?path=missing", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w = performRequest(s.router, req)
	require.Equal(t, http.StatusOK, w.Code)
	res = models.RouteResolution{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "not-found", res.Path)
}
