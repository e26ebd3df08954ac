package handlers

import (
	"context"
	"net/http"

	"github.com/dnsx2k/hmsbase/app/pkg/heartbeat"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Messenger - client operations exposed over http
type Messenger interface {
	Connected() bool
	Publish(ctx context.Context, routingKey string, dct map[string]any) error
	Ping(ctx context.Context) (string, error)
}

type HandlerCtx struct {
	messenger Messenger
	heartbeat heartbeat.HeartBeater
	logger    *zap.Logger
}

func New(messenger Messenger, heartbeat heartbeat.HeartBeater, logger *zap.Logger) *HandlerCtx {
	return &HandlerCtx{
		messenger: messenger,
		heartbeat: heartbeat,
		logger:    logger,
	}
}

func (c *HandlerCtx) RegisterRoute(router gin.IRouter) {
	router.GET("health", c.health)
	router.POST("publish/:routingKey", c.publish)
	router.POST("ping", c.ping)
	router.GET("clients", c.clients)
}

func (c *HandlerCtx) health(cGin *gin.Context) {
	if !c.messenger.Connected() {
		cGin.Status(http.StatusServiceUnavailable)
		return
	}
	cGin.Status(http.StatusOK)
}

func (c *HandlerCtx) publish(cGin *gin.Context) {
	routingKey := cGin.Param("routingKey")

	var dct map[string]any
	if err := cGin.ShouldBindJSON(&dct); err != nil {
		cGin.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if dct == nil {
		cGin.JSON(http.StatusBadRequest, gin.H{"error": "body must be a json object"})
		return
	}

	if err := c.messenger.Publish(cGin.Request.Context(), routingKey, dct); err != nil {
		c.logger.Error("publish failed", zap.String("routing_key", routingKey), zap.Error(err))
		cGin.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	cGin.Status(http.StatusAccepted)
}

func (c *HandlerCtx) ping(cGin *gin.Context) {
	id, err := c.messenger.Ping(cGin.Request.Context())
	if err != nil {
		c.logger.Error("ping failed", zap.Error(err))
		cGin.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	cGin.JSON(http.StatusAccepted, gin.H{"id": id})
}

func (c *HandlerCtx) clients(cGin *gin.Context) {
	cGin.JSON(http.StatusOK, gin.H{"clients": c.heartbeat.Alive()})
}
