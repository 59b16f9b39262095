package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/swipeapp-studio/sleep-server/internal/push"
	"github.com/swipeapp-studio/sleep-server/internal/subscription"
)

// SleepHandler 命令面处理器：start / stop / 实时事件流
type SleepHandler struct {
	ctrl   *subscription.Controller
	hub    *push.Hub
	logger *zap.Logger
}

// NewSleepHandler 创建命令面处理器
func NewSleepHandler(ctrl *subscription.Controller, hub *push.Hub, logger *zap.Logger) *SleepHandler {
	return &SleepHandler{ctrl: ctrl, hub: hub, logger: logger}
}

// errorBody 命令面错误结果：{code, message}
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Start 开启睡眠订阅
// 每次调用恰好一个终态；只有权限拒绝与提供方订阅失败会走到这里，
// 落盘/上报类错误在组件边界已被吞掉。
func (h *SleepHandler) Start(c *gin.Context) {
	err := h.ctrl.Start(c.Request.Context())
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"result": CodeInitSuccess})
		return
	}

	status := http.StatusBadGateway
	switch {
	case errors.Is(err, subscription.ErrPermissionDenied):
		status = http.StatusForbidden
	case errors.Is(err, subscription.ErrTransitionInFlight):
		status = http.StatusConflict
	}
	c.JSON(status, errorBody{Code: CodeInitError, Message: err.Error()})
}

// Stop 关闭睡眠订阅。从未订阅时幂等成功。
func (h *SleepHandler) Stop(c *gin.Context) {
	err := h.ctrl.Stop(c.Request.Context())
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"result": CodeStopSuccess})
		return
	}

	status := http.StatusBadGateway
	if errors.Is(err, subscription.ErrTransitionInFlight) {
		status = http.StatusConflict
	}
	c.JSON(status, errorBody{Code: CodeStopError, Message: err.Error()})
}

// Events SSE 实时事件流。按到达顺序推送每条规范化记录的分号行
// 与生命周期结果代码；不回放历史，晚接入的订阅方看不到此前事件。
func (h *SleepHandler) Events(c *gin.Context) {
	id, ch := h.hub.Subscribe()
	defer h.hub.Unsubscribe(id)

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case line, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("message", line)
			return true
		}
	})
}
