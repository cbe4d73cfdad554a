package controllers

import (
	"context"
	"log"
	"time"

	"tunilearn/backend/config"
	"tunilearn/backend/services"
	"tunilearn/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type DashboardController struct {
	DB         *gorm.DB
	Cfg        *config.Config
	Logger     *log.Logger
	Dashboards *services.DashboardService
}

func NewDashboardController(db *gorm.DB, cfg *config.Config, logger *log.Logger) *DashboardController {
	return &DashboardController{DB: db, Cfg: cfg, Logger: logger, Dashboards: services.NewDashboardService(db)}
}

// GetAdminDashboard godoc
// @Summary Pending courses and platform counts
// @Tags dashboard
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /dashboard/admin [get]
func (dc *DashboardController) GetAdminDashboard(c *fiber.Ctx) error {
	overview, err := dc.Dashboards.Admin()
	if err != nil {
		return utils.HandleError(c, dc.Logger, err)
	}
	return utils.OK(c, overview)
}

// GetTeacherDashboard godoc
// @Summary Own courses with approval state and enrollment counts
// @Tags dashboard
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /dashboard/teacher [get]
func (dc *DashboardController) GetTeacherDashboard(c *fiber.Ctx) error {
	overview, err := dc.Dashboards.Teacher(actorOf(c).UserID)
	if err != nil {
		return utils.HandleError(c, dc.Logger, err)
	}
	return utils.OK(c, overview)
}

// GetStudentDashboard godoc
// @Summary Enrollments with course content
// @Tags dashboard
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /dashboard/student [get]
func (dc *DashboardController) GetStudentDashboard(c *fiber.Ctx) error {
	overview, err := dc.Dashboards.Student(actorOf(c).UserID)
	if err != nil {
		return utils.HandleError(c, dc.Logger, err)
	}
	return utils.OK(c, overview)
}

// Health godoc
// @Summary Liveness with a database ping
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} utils.ErrorResponse
// @Router /health [get]
func (dc *DashboardController) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()
	if err := utils.Ping(ctx, dc.DB); err != nil {
		dc.Logger.Printf("health: %v", err)
		return utils.Error(c, fiber.StatusServiceUnavailable, fiber.NewError(fiber.StatusServiceUnavailable, "database unavailable"))
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
