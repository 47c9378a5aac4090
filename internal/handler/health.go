package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ClientStatus reports which upstream clients came up during wiring.
type ClientStatus struct {
	Clob  bool `json:"clob"`
	Relay bool `json:"relay"`
	Chain bool `json:"chain"`
}

type HealthHandler struct {
	service string
	clients ClientStatus
}

func NewHealthHandler(serviceName string, clients ClientStatus) *HealthHandler {
	return &HealthHandler{service: serviceName, clients: clients}
}

func (h *HealthHandler) Health(c *gin.Context) {
	status := "ok"
	if !h.clients.Clob || !h.clients.Relay || !h.clients.Chain {
		status = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  status,
		"service": h.service,
		"clients": h.clients,
	})
}
