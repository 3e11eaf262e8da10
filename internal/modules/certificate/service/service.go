package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"anoa.com/gemcert/internal/entity"
	"anoa.com/gemcert/internal/modules/certificate/dto"
	"anoa.com/gemcert/internal/modules/certificate/repository"
	"anoa.com/gemcert/pkg/apperror"
	"anoa.com/gemcert/pkg/cache"
	"anoa.com/gemcert/pkg/logger"
	"anoa.com/gemcert/pkg/storage"
)

type Service interface {
	CreateCertificate(ctx context.Context, req dto.CertificatePayload) (*entity.Certificate, error)
	CreateFromUpload(ctx context.Context, req dto.CertificatePayload, file *multipart.FileHeader) (*entity.Certificate, error)
	GetAllCertificates(ctx context.Context) (*dto.CertificateListResponse, error)
	GetByReportNumber(ctx context.Context, reportNumber string) (*entity.Certificate, error)
	DeleteCertificate(ctx context.Context, id uint) (bool, error)
	SetStatus(ctx context.Context, id uint, active bool) (bool, error)
	Verify(ctx context.Context, reportNumber, clientIP string) (*dto.VerificationResult, error)
	GenerateReportNumber(ctx context.Context) (string, error)
}

type Config struct {
	Upload       storage.UploadPolicy
	UploadFolder string
}

type service struct {
	repo        repository.CertificateRepository
	counters    cache.Store
	fileStorage storage.FileStorage
	cfg         Config
	metrics     *Metrics
	log         *logger.Logger
	now         func() time.Time

	randomNumber func() (string, error)
}

// NewService wires the certificate use cases. counters keeps verification
// counts and may be the same store that backs the repository cache.
// fileStorage may be nil, in which case uploads are refused.
func NewService(repo repository.CertificateRepository, counters cache.Store, fileStorage storage.FileStorage, cfg Config, metrics *Metrics, log *logger.Logger) Service {
	if counters == nil {
		counters = cache.NewMemoryStore()
	}
	if log == nil {
		log = logger.Nop()
	}
	if cfg.UploadFolder == "" {
		cfg.UploadFolder = "certificates"
	}
	return &service{
		repo:         repo,
		counters:     counters,
		fileStorage:  fileStorage,
		cfg:          cfg,
		metrics:      metrics,
		log:          log.With("component", "certificate_service"),
		now:          time.Now,
		randomNumber: randomReportNumber,
	}
}

func (s *service) CreateCertificate(ctx context.Context, req dto.CertificatePayload) (*entity.Certificate, error) {
	contract, cert, err := s.prepare(req)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, cert); err != nil {
		return nil, err
	}

	s.metrics.incCreated(contract)
	s.log.Info("certificate created", "report_number", cert.ReportNumber, "contract", string(contract))
	return cert, nil
}

// CreateFromUpload stores the attached file and records the certificate
// that describes it. The stored file is removed again if the record cannot
// be created.
func (s *service) CreateFromUpload(ctx context.Context, req dto.CertificatePayload, file *multipart.FileHeader) (*entity.Certificate, error) {
	if s.fileStorage == nil {
		return nil, fmt.Errorf("file storage is not configured: %w", apperror.ErrInternal)
	}

	contract, cert, err := s.prepare(req)
	if err != nil {
		return nil, err
	}

	spooled, err := s.cfg.Upload.Spool(file)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := spooled.Remove(); err != nil {
			s.log.Warn("failed to remove spooled upload", "error", err)
		}
	}()

	f, err := spooled.Open()
	if err != nil {
		return nil, fmt.Errorf("open spooled upload: %w", err)
	}
	fileURL, err := s.fileStorage.Upload(ctx, f, s.cfg.UploadFolder, spooled.Name)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("store certificate file: %w", err)
	}

	cert.FileURL = fileURL
	cert.FileType = spooled.ContentType
	cert.FileName = spooled.Name

	if err := s.repo.Create(ctx, cert); err != nil {
		if delErr := s.fileStorage.Delete(context.WithoutCancel(ctx), fileURL); delErr != nil {
			s.log.Error("failed to remove orphaned certificate file", "url", fileURL, "error", delErr)
		}
		return nil, err
	}

	s.metrics.incCreated(contract)
	s.log.Info("certificate uploaded",
		"report_number", cert.ReportNumber,
		"contract", string(contract),
		"file_type", cert.FileType,
		"size", spooled.Size,
	)
	return cert, nil
}

func (s *service) prepare(req dto.CertificatePayload) (dto.Contract, *entity.Certificate, error) {
	contract, err := req.Validate()
	if err != nil {
		return "", nil, err
	}

	cert, err := req.Normalize(s.now().UTC())
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", err.Error(), apperror.ErrInvalidInput)
	}
	return contract, cert, nil
}

func (s *service) GetAllCertificates(ctx context.Context) (*dto.CertificateListResponse, error) {
	certificates, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.CertificateListResponse{Data: certificates, Total: len(certificates)}, nil
}

func (s *service) GetByReportNumber(ctx context.Context, reportNumber string) (*entity.Certificate, error) {
	if !dto.ValidReportNumber(reportNumber) {
		return nil, fmt.Errorf("malformed report number: %w", apperror.ErrBadRequest)
	}
	return s.repo.FindByReportNumber(ctx, dto.CanonicalReportNumber(reportNumber))
}

func (s *service) DeleteCertificate(ctx context.Context, id uint) (bool, error) {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if deleted {
		s.log.Info("certificate deleted", "id", id)
	}
	return deleted, nil
}

func (s *service) SetStatus(ctx context.Context, id uint, active bool) (bool, error) {
	updated, err := s.repo.SetActive(ctx, id, active)
	if err != nil {
		return false, err
	}
	if !updated {
		return false, fmt.Errorf("certificate #%d: %w", id, apperror.ErrNotFound)
	}
	s.log.Info("certificate status changed", "id", id, "active", active)
	return true, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, apperror.ErrNotFound)
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
