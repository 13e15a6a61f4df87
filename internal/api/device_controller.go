package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/septivank/environment-monitor/internal/model"
	"github.com/septivank/environment-monitor/internal/registry"
	"go.uber.org/zap"
)

// DeviceController handles device management requests
type DeviceController struct {
	registry *registry.Registry
	timeout  time.Duration
	logger   *zap.Logger
}

// NewDeviceController creates a new device controller
func NewDeviceController(reg *registry.Registry, timeout time.Duration, logger *zap.Logger) *DeviceController {
	return &DeviceController{
		registry: reg,
		timeout:  timeout,
		logger:   logger,
	}
}

// RegisterRoutes registers the device routes with Gin
func (dc *DeviceController) RegisterRoutes(router gin.IRouter) {
	devices := router.Group("/devices")
	{
		devices.POST("", dc.CreateDevice)
		devices.GET("", dc.ListDevices)
		devices.GET("/:id", dc.GetDevice)
		devices.PUT("/:id", dc.UpdateDevice)
		devices.DELETE("/:id", dc.DeleteDevice)
	}
}

// DeviceRequest is the body of create and update requests. ID is ignored on
// update.
type DeviceRequest struct {
	ID         string `json:"id"`
	Protocol   string `json:"protocol"`
	Room       string `json:"room"`
	Department string `json:"department"`
	Floor      string `json:"floor"`
	Building   string `json:"building"`
	Status     string `json:"status"`
}

func (r DeviceRequest) fields() model.DeviceFields {
	return model.DeviceFields{
		Protocol: model.Protocol(r.Protocol),
		Location: model.Location{
			Room:       r.Room,
			Department: r.Department,
			Floor:      r.Floor,
			Building:   r.Building,
		},
		Status: model.DeviceStatus(r.Status),
	}
}

func (dc *DeviceController) CreateDevice(c *gin.Context) {
	var req DeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, model.KindInvalidDevice, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), dc.timeout)
	defer cancel()

	f := req.fields()
	device, err := dc.registry.Register(ctx, model.Device{
		ID:       req.ID,
		Protocol: f.Protocol,
		Location: f.Location,
		Status:   f.Status,
	})
	if err != nil {
		respondError(c, dc.logger, err)
		return
	}

	c.JSON(http.StatusCreated, device)
}

func (dc *DeviceController) ListDevices(c *gin.Context) {
	filter := model.DeviceFilter{
		Location: model.Location{
			Room:       c.Query("room"),
			Department: c.Query("department"),
			Floor:      c.Query("floor"),
			Building:   c.Query("building"),
		},
	}
	if p := c.Query("protocol"); p != "" {
		protocol, err := model.ParseProtocol(p)
		if err != nil {
			respondBadRequest(c, model.KindInvalidDevice, err)
			return
		}
		filter.Protocol = protocol
	}
	if s := c.Query("status"); s != "" {
		status, err := model.ParseDeviceStatus(s)
		if err != nil {
			respondBadRequest(c, model.KindInvalidDevice, err)
			return
		}
		filter.Status = status
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), dc.timeout)
	defer cancel()

	devices, err := dc.registry.List(ctx, filter)
	if err != nil {
		respondError(c, dc.logger, err)
		return
	}

	c.JSON(http.StatusOK, devices)
}

func (dc *DeviceController) GetDevice(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), dc.timeout)
	defer cancel()

	device, err := dc.registry.Get(ctx, c.Param("id"))
	if err != nil {
		respondError(c, dc.logger, err)
		return
	}

	c.JSON(http.StatusOK, device)
}

func (dc *DeviceController) UpdateDevice(c *gin.Context) {
	var req DeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, model.KindInvalidDevice, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), dc.timeout)
	defer cancel()

	device, err := dc.registry.Update(ctx, c.Param("id"), req.fields())
	if err != nil {
		respondError(c, dc.logger, err)
		return
	}

	c.JSON(http.StatusOK, device)
}

func (dc *DeviceController) DeleteDevice(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), dc.timeout)
	defer cancel()

	if err := dc.registry.Delete(ctx, c.Param("id")); err != nil {
		respondError(c, dc.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}
