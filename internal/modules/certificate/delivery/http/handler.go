package handler

import (
	"errors"
	"fmt"
	"net/http"

	"anoa.com/gemcert/internal/modules/certificate/dto"
	certificate "anoa.com/gemcert/internal/modules/certificate/service"
	"anoa.com/gemcert/pkg/apperror"
	"anoa.com/gemcert/pkg/logger"
	"anoa.com/gemcert/pkg/response"
	"anoa.com/gemcert/pkg/validator"
	"github.com/gin-gonic/gin"
)

type CertificateHandler struct {
	service certificate.Service
	log     *logger.Logger
}

func NewCertificateHandler(service certificate.Service, log *logger.Logger) *CertificateHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &CertificateHandler{service: service, log: log}
}

// bindError turns a gin binding failure into a 400.
func bindError(err error) error {
	var verr *validator.ValidationError
	if converted := validator.FromError(err); errors.As(converted, &verr) {
		return verr
	}
	return fmt.Errorf("%s: %w", err.Error(), apperror.ErrBadRequest)
}

func (h *CertificateHandler) Verify(c *gin.Context) {
	result, err := h.service.Verify(c.Request.Context(), c.Param("reportNumber"), c.ClientIP())
	if err != nil {
		response.ResponseError(c, h.log, err)
		return
	}

	if !result.IsValid {
		c.JSON(http.StatusNotFound, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *CertificateHandler) CreateCertificate(c *gin.Context) {
	var req dto.CertificatePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, h.log, bindError(err))
		return
	}

	cert, err := h.service.CreateCertificate(c.Request.Context(), req)
	if err != nil {
		response.ResponseError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, cert)
}

func (h *CertificateHandler) UploadCertificate(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			response.ResponseError(c, h.log, apperror.New(http.StatusBadRequest, "file is required", apperror.ErrFileRejected))
			return
		}
		response.ResponseError(c, h.log, bindError(err))
		return
	}

	var req dto.CertificatePayload
	if err := c.ShouldBind(&req); err != nil {
		response.ResponseError(c, h.log, bindError(err))
		return
	}

	cert, err := h.service.CreateFromUpload(c.Request.Context(), req, file)
	if err != nil {
		response.ResponseError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, cert)
}

func (h *CertificateHandler) GetAllCertificates(c *gin.Context) {
	res, err := h.service.GetAllCertificates(c.Request.Context())
	if err != nil {
		response.ResponseError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *CertificateHandler) GetCertificate(c *gin.Context) {
	var req dto.ReportNumberRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.ResponseError(c, h.log, bindError(err))
		return
	}

	cert, err := h.service.GetByReportNumber(c.Request.Context(), req.ReportNumber)
	if err != nil {
		response.ResponseError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, cert)
}

func (h *CertificateHandler) GenerateReportNumber(c *gin.Context) {
	rn, err := h.service.GenerateReportNumber(c.Request.Context())
	if err != nil {
		response.ResponseError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ReportNumberResponse{ReportNumber: rn})
}

func (h *CertificateHandler) DeleteCertificate(c *gin.Context) {
	var req dto.CertificateIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.ResponseError(c, h.log, bindError(err))
		return
	}

	deleted, err := h.service.DeleteCertificate(c.Request.Context(), req.ID)
	if err != nil {
		response.ResponseError(c, h.log, err)
		return
	}

	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"success": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *CertificateHandler) SetStatus(c *gin.Context) {
	var uri dto.CertificateIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.ResponseError(c, h.log, bindError(err))
		return
	}

	var req dto.SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, h.log, bindError(err))
		return
	}

	if _, err := h.service.SetStatus(c.Request.Context(), uri.ID, *req.IsActive); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false})
			return
		}
		response.ResponseError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RegisterRoutes mounts the certificate endpoints on rg. uploadMiddleware runs
// before the upload handler only.
func (h *CertificateHandler) RegisterRoutes(rg *gin.RouterGroup, uploadMiddleware ...gin.HandlerFunc) {
	certificates := rg.Group("/certificates")
	{
		certificates.GET("/verify/:reportNumber", h.Verify)
		certificates.GET("/report-number", h.GenerateReportNumber)
		certificates.GET("", h.GetAllCertificates)
		certificates.GET("/:reportNumber", h.GetCertificate)
		certificates.POST("", h.CreateCertificate)
		certificates.POST("/upload", append(uploadMiddleware, h.UploadCertificate)...)
		certificates.DELETE("/:id", h.DeleteCertificate)
		certificates.PATCH("/:id/status", h.SetStatus)
	}
}
