package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"identity-service/internal/bootstrap"
	"identity-service/internal/transport/http/response"
)

const (
	statusUp       = "up"
	statusDown     = "down"
	statusDisabled = "disabled"
)

type HealthHandler struct {
	app *bootstrap.App
}

type dependencyStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type dependencyCheck struct {
	name  string
	check func(ctx context.Context) dependencyStatus
}

func NewHealthHandler(app *bootstrap.App) *HealthHandler {
	return &HealthHandler{app: app}
}

func (h *HealthHandler) Ping(c *gin.Context) {
	response.Text(c, "pong")
}

// Check reports 503 when any configured dependency is down. Unconfigured
// ones are listed as disabled and never fail the probe.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := []dependencyCheck{
		{name: "database", check: h.checkDatabase},
		{name: "redis", check: h.checkRedis},
		{name: "rabbitmq", check: h.checkRabbitMQ},
	}

	statusCode := http.StatusOK
	deps := make(map[string]dependencyStatus, len(checks))
	for _, dc := range checks {
		st := dc.check(ctx)
		if st.Status == statusDown {
			statusCode = http.StatusServiceUnavailable
		}
		deps[dc.name] = st
	}

	c.JSON(statusCode, gin.H{
		"app":          h.app.Config.App.Name,
		"env":          h.app.Config.App.Env,
		"uptime_sec":   int(time.Since(h.app.StartedAt).Seconds()),
		"dependencies": deps,
	})
}

func (h *HealthHandler) checkDatabase(ctx context.Context) dependencyStatus {
	sqlDB, err := h.app.DB.DB()
	if err != nil {
		return down(err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return down(err)
	}
	return dependencyStatus{Status: statusUp}
}

func (h *HealthHandler) checkRedis(ctx context.Context) dependencyStatus {
	if h.app.Redis == nil {
		return dependencyStatus{Status: statusDisabled}
	}
	if err := h.app.Redis.Ping(ctx).Err(); err != nil {
		return down(err)
	}
	return dependencyStatus{Status: statusUp}
}

func (h *HealthHandler) checkRabbitMQ(context.Context) dependencyStatus {
	switch {
	case h.app.MQConn == nil:
		return dependencyStatus{Status: statusDisabled}
	case h.app.MQConn.IsClosed():
		return dependencyStatus{Status: statusDown, Message: "connection closed"}
	default:
		return dependencyStatus{Status: statusUp}
	}
}

func down(err error) dependencyStatus {
	return dependencyStatus{Status: statusDown, Message: err.Error()}
}
