package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"identity-service/internal/app"
	"identity-service/internal/repository"
	"identity-service/internal/transport/http/middleware"
	"identity-service/internal/transport/http/request"
	"identity-service/internal/transport/http/response"
)

const (
	msgUpdateFailed = "error updating user"
	msgDeleteFailed = "error deleting user"
)

type UserHandler struct {
	userService *app.UserService
	logger      *slog.Logger
}

func NewUserHandler(userService *app.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{userService: userService, logger: logger}
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.userService.List(c.Request.Context())
	if err != nil {
		h.storeError(c, err, response.MsgInternal)
		return
	}
	response.OK(c, users)
}

func (h *UserHandler) Create(c *gin.Context) {
	cred, err := request.DecodeCredential(c)
	if err != nil {
		h.invalid(c, err)
		return
	}

	// Conflicts and storage failures share one body so callers cannot
	// probe which uids exist.
	user, err := h.userService.Create(c.Request.Context(), cred)
	if err != nil {
		h.storeError(c, err, response.MsgCreateFailed)
		return
	}
	response.OK(c, user)
}

func (h *UserHandler) Get(c *gin.Context) {
	id, err := request.ParseID(c)
	if err != nil {
		h.invalid(c, err)
		return
	}

	user, err := h.userService.Get(c.Request.Context(), id)
	if err != nil {
		h.storeError(c, err, response.MsgInternal)
		return
	}
	response.OK(c, user)
}

// Update serves both PUT and PATCH; uid is the only mutable field, so a
// full replace and a merge are the same operation.
func (h *UserHandler) Update(c *gin.Context) {
	id, err := request.ParseID(c)
	if err != nil {
		h.invalid(c, err)
		return
	}
	patch, err := request.DecodeUserPatch(c)
	if err != nil {
		h.invalid(c, err)
		return
	}

	user, err := h.userService.Update(c.Request.Context(), id, patch)
	if err != nil {
		h.storeError(c, err, msgUpdateFailed)
		return
	}
	response.OK(c, user)
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, err := request.ParseID(c)
	if err != nil {
		h.invalid(c, err)
		return
	}

	if err := h.userService.Delete(c.Request.Context(), id); err != nil {
		h.storeError(c, err, msgDeleteFailed)
		return
	}
	response.Empty(c, http.StatusOK)
}

func (h *UserHandler) invalid(c *gin.Context, err error) {
	var verr *request.ValidationError
	if !errors.As(err, &verr) {
		h.storeError(c, err, response.MsgInternal)
		return
	}
	h.logger.DebugContext(c.Request.Context(), "request rejected",
		"request_id", c.GetString(middleware.ContextRequestIDKey),
		"reason", verr.Message,
		"fields", verr.Fields,
	)
	response.Error(c, http.StatusBadRequest, verr.Message)
}

func (h *UserHandler) storeError(c *gin.Context, err error, message string) {
	if errors.Is(err, repository.ErrNotFound) {
		response.Empty(c, http.StatusNotFound)
		return
	}

	level := slog.LevelError
	if errors.Is(err, repository.ErrConflict) {
		level = slog.LevelWarn
	}
	h.logger.Log(c.Request.Context(), level, "user operation failed",
		"request_id", c.GetString(middleware.ContextRequestIDKey),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"error", err,
	)
	response.Error(c, http.StatusInternalServerError, message)
}
