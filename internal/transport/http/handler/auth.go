package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"identity-service/internal/app"
	"identity-service/internal/transport/http/request"
	"identity-service/internal/transport/http/response"
)

// AuthHandler verifies credentials. It shares validation and error
// rendering with UserHandler.
type AuthHandler struct {
	*UserHandler
}

func NewAuthHandler(users *UserHandler) *AuthHandler {
	return &AuthHandler{UserHandler: users}
}

func (h *AuthHandler) Login(c *gin.Context) {
	cred, err := request.DecodeCredential(c)
	if err != nil {
		h.invalid(c, err)
		return
	}

	user, err := h.userService.Login(c.Request.Context(), cred)
	if errors.Is(err, app.ErrInvalidCredentials) {
		response.Error(c, http.StatusBadRequest, response.MsgInvalidCredentials)
		return
	}
	if err != nil {
		h.storeError(c, err, response.MsgInternal)
		return
	}
	response.OK(c, user)
}
