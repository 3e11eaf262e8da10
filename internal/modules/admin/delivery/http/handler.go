package handler

import (
	"errors"
	"net/http"

	"anoa.com/gemcert/internal/modules/admin/dto"
	adminService "anoa.com/gemcert/internal/modules/admin/service"
	"anoa.com/gemcert/pkg/apperror"
	"anoa.com/gemcert/pkg/logger"
	"anoa.com/gemcert/pkg/response"
	"anoa.com/gemcert/pkg/validator"
	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	adminService adminService.AdminService
	log          *logger.Logger
}

func NewAdminHandler(adminService adminService.AdminService, log *logger.Logger) *AdminHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &AdminHandler{
		adminService: adminService,
		log:          log,
	}
}

func (h *AdminHandler) Login(c *gin.Context) {
	var input dto.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": validator.FormatValidationError(err)})
		return
	}

	if err := h.adminService.Login(c.Request.Context(), input); err != nil {
		if errors.Is(err, apperror.ErrUnauthorized) {
			c.JSON(http.StatusUnauthorized, dto.LoginResponse{Success: false, Message: "invalid credentials"})
			return
		}
		response.ResponseError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.LoginResponse{Success: true})
}

func (h *AdminHandler) RegisterRoutes(rg *gin.RouterGroup) {
	admin := rg.Group("/admin")
	{
		admin.POST("/login", h.Login)
	}
}
