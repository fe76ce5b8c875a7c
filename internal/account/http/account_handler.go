// Package http provides the HTTP handlers of the auth service.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	accountDomain "github.com/allisson/credentials/internal/account/domain"
	"github.com/allisson/credentials/internal/account/http/dto"
	accountUseCase "github.com/allisson/credentials/internal/account/usecase"
	"github.com/allisson/credentials/internal/httputil"
	customValidation "github.com/allisson/credentials/internal/validation"
)

// AccountHandler serves key retrieval, heartbeat, registration and login.
type AccountHandler struct {
	useCase accountUseCase.UseCase
	logger  *slog.Logger
}

// NewAccountHandler creates a new account handler with required dependencies.
func NewAccountHandler(useCase accountUseCase.UseCase, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		useCase: useCase,
		logger:  logger,
	}
}

// RegisterRoutes mounts the handlers under dto.BasePath.
func (h *AccountHandler) RegisterRoutes(router gin.IRouter) {
	group := router.Group(dto.BasePath)
	group.GET(dto.KeyPath, h.GetKeyHandler)
	group.HEAD(dto.HeartbeatPath, h.HeartbeatHandler)
	group.POST(dto.UsersPath, h.CreateUserHandler)
	group.POST(dto.LoginPath, h.LoginHandler)
}

// GetKeyHandler returns the server public key.
// GET /v1/auth/key
func (h *AccountHandler) GetKeyHandler(c *gin.Context) {
	c.JSON(http.StatusOK, dto.KeyAnnouncement{
		Key: h.useCase.PublicKey(c.Request.Context()),
	})
}

// HeartbeatHandler answers liveness probes with an empty body.
// HEAD /v1/auth/heartbeat
func (h *AccountHandler) HeartbeatHandler(c *gin.Context) {
	c.Status(http.StatusOK)
}

// CreateUserHandler registers a new identity.
// POST /v1/auth/users - Returns 200 with "Created new user", or 409 when the email is taken.
func (h *AccountHandler) CreateUserHandler(c *gin.Context) {
	var req dto.RegistrationRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	if err := h.useCase.CreateUser(c.Request.Context(), req.ToDomain()); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.GenericReply{Message: accountDomain.MessageUserCreated})
}

// LoginHandler verifies credentials and returns the profile sealed for the requester.
// POST /v1/auth/login - Returns 200 with ProfileResponse, 400 on an empty store,
// 401 on bad credentials.
func (h *AccountHandler) LoginHandler(c *gin.Context) {
	var req dto.LoginRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	profile, err := h.useCase.Login(c.Request.Context(), req.ToDomain())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapProfileToResponse(profile))
}
