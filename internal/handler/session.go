package handler

import (
	"net/http"

	"github.com/PrecedenceMarkets/lexgate/internal/model"
	"github.com/PrecedenceMarkets/lexgate/internal/pkg/apperrors"
	"github.com/PrecedenceMarkets/lexgate/internal/service"
	"github.com/gin-gonic/gin"
)

// SessionHandler exposes the key-bearing lifecycle stages. The private key
// lives only inside the request scope; responses never echo it.
type SessionHandler struct {
	svc *service.SessionService
}

func NewSessionHandler(svc *service.SessionService) *SessionHandler {
	return &SessionHandler{svc: svc}
}

func (h *SessionHandler) bindKey(c *gin.Context) (string, bool) {
	var req model.SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.NewValidation("invalid request body"))
		return "", false
	}
	if req.UserPrivateKey == "" {
		_ = c.Error(apperrors.NewValidation("Missing required parameters: userPrivateKey"))
		return "", false
	}
	return req.UserPrivateKey, true
}

func (h *SessionHandler) InitSession(c *gin.Context) {
	key, ok := h.bindKey(c)
	if !ok {
		return
	}
	resp, err := h.svc.InitSession(c.Request.Context(), key)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SessionHandler) DeploySafe(c *gin.Context) {
	key, ok := h.bindKey(c)
	if !ok {
		return
	}
	resp, err := h.svc.DeploySafe(c.Request.Context(), key)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SessionHandler) DeriveCredentials(c *gin.Context) {
	key, ok := h.bindKey(c)
	if !ok {
		return
	}
	resp, err := h.svc.DeriveCredentials(c.Request.Context(), key)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SessionHandler) SetApprovals(c *gin.Context) {
	key, ok := h.bindKey(c)
	if !ok {
		return
	}
	resp, err := h.svc.SetApprovals(c.Request.Context(), key)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
