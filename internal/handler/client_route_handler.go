package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/account-api/internal/service"
	appErrors "github.com/noah-isme/account-api/pkg/errors"
	"github.com/noah-isme/account-api/pkg/response"
)

// ClientRouteHandler exposes the SPA route table.
type ClientRouteHandler struct {
	service *service.ClientRouteService
}

// NewClientRouteHandler creates a new handler.
func NewClientRouteHandler(svc *service.ClientRouteService) *ClientRouteHandler {
	return &ClientRouteHandler{service: svc}
}

// List godoc
// @Summary List client routes
// @Tags Client
// @Produce json
// @Success 200 {array} models.ClientRoute
// @Router /client/routes [get]
func (h *ClientRouteHandler) List(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Routes())
}

// Resolve godoc
// @Summary Resolve a client URL
// @Description Matches the path against the route table for the optional bearer principal
// @Tags Client
// @Produce json
// @Param path query string false "Client URL path"
// @Success 200 {object} models.RouteResolution
// @Failure 404 {object} response.Problem
// @Router /client/routes/resolve [get]
func (h *ClientRouteHandler) Resolve(c *gin.Context) {
	res, err := h.service.Resolve(c.Query("path"), claimsFromContext(c))
	if err != nil {
		response.Error(c, appErrors.WithCause(appErrors.ErrNotFound, err))
		return
	}
	response.JSON(c, http.StatusOK, res)
}
