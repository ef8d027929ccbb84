package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/account-api/internal/models"
	"github.com/noah-isme/account-api/internal/service"
	appErrors "github.com/noah-isme/account-api/pkg/errors"
	"github.com/noah-isme/account-api/pkg/response"
)

// AccountHandler wires HTTP endpoints to the account service.
type AccountHandler struct {
	service *service.AccountService
}

// NewAccountHandler creates a new handler.
func NewAccountHandler(svc *service.AccountService) *AccountHandler {
	return &AccountHandler{service: svc}
}

// Login godoc
// @Summary Authenticate user
// @Description Authenticate user by username and password
// @Tags Account
// @Accept json
// @Produce json
// @Param Accept-Language header string false "Message locale (en, id)"
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} models.UserDto
// @Failure 400 {object} response.Problem
// @Failure 401 {object} response.Problem
// @Router /account/login [post]
func (h *AccountHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.WithCause(appErrors.ErrValidation, err))
		return
	}
	req.IP = clientAddress(c)
	req.UserAgent = c.GetHeader("User-Agent")

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res)
}

// Refresh godoc
// @Summary Refresh tokens
// @Description Exchange an access token (expired or not) and its refresh token for a new pair
// @Tags Account
// @Accept json
// @Produce json
// @Param payload body models.RefreshTokenRequest true "Refresh payload"
// @Success 200 {object} models.UserDto
// @Failure 400 {object} response.Problem
// @Failure 401 {object} response.Problem
// @Router /account/refresh [post]
func (h *AccountHandler) Refresh(c *gin.Context) {
	var req models.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.WithCause(appErrors.ErrValidation, err))
		return
	}
	req.IP = clientAddress(c)
	req.UserAgent = c.GetHeader("User-Agent")

	res, err := h.service.Refresh(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res)
}

// Register godoc
// @Summary Register account
// @Description Create a user with the Member role
// @Tags Account
// @Accept json
// @Produce json
// @Param payload body models.RegisterRequest true "Register payload"
// @Success 201
// @Failure 400 {object} response.Problem
// @Router /account/register [post]
func (h *AccountHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.WithCause(appErrors.ErrValidation, err))
		return
	}
	req.IP = clientAddress(c)
	req.UserAgent = c.GetHeader("User-Agent")

	if err := h.service.Register(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c)
}

// Me godoc
// @Summary Get current user
// @Description Returns the authenticated principal
// @Tags Account
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.UserInfo
// @Failure 401 {object} response.Problem
// @Router /account/me [get]
func (h *AccountHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	response.JSON(c, http.StatusOK, models.UserInfo{
		UserID:   claims.Subject,
		UserName: claims.Name,
		Email:    claims.Email,
		Roles:    claims.Roles,
	})
}
