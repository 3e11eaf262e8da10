package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"anoa.com/gemcert/internal/entity"
	"anoa.com/gemcert/pkg/apperror"
	"anoa.com/gemcert/pkg/cache"
	"anoa.com/gemcert/pkg/logger"
	"gorm.io/gorm"
)

const (
	// ListLimit caps FindAll; there is no pagination.
	ListLimit = 1000

	DefaultCertificateTTL = 30 * time.Minute
	DefaultListTTL        = 5 * time.Minute

	listCacheKey = "certificates:all"
)

func certificateCacheKey(reportNumber string) string {
	return "certificate:" + reportNumber
}

type CertificateRepository interface {
	Create(ctx context.Context, cert *entity.Certificate) error
	FindByReportNumber(ctx context.Context, reportNumber string) (*entity.Certificate, error)
	FindByID(ctx context.Context, id uint) (*entity.Certificate, error)
	FindAll(ctx context.Context) ([]entity.Certificate, error)
	Delete(ctx context.Context, id uint) (bool, error)
	SetActive(ctx context.Context, id uint, active bool) (bool, error)
}

type Options struct {
	Cache          cache.Store
	CertificateTTL time.Duration
	ListTTL        time.Duration
	// QueryTimeout bounds each database call, including waiting for a pooled connection.
	QueryTimeout time.Duration
	Metrics      *cache.Metrics
	Logger       *logger.Logger
}

type certificateRepository struct {
	db             *gorm.DB
	cache          cache.Store
	certificateTTL time.Duration
	listTTL        time.Duration
	queryTimeout   time.Duration
	metrics        *cache.Metrics
	log            *logger.Logger
}

func NewCertificateRepository(db *gorm.DB, opts Options) CertificateRepository {
	r := &certificateRepository{
		db:             db,
		cache:          opts.Cache,
		certificateTTL: opts.CertificateTTL,
		listTTL:        opts.ListTTL,
		queryTimeout:   opts.QueryTimeout,
		metrics:        opts.Metrics,
		log:            opts.Logger,
	}
	if r.cache == nil {
		r.cache = cache.NewMemoryStore()
	}
	if r.certificateTTL <= 0 {
		r.certificateTTL = DefaultCertificateTTL
	}
	if r.listTTL <= 0 {
		r.listTTL = DefaultListTTL
	}
	if r.log == nil {
		r.log = logger.Nop()
	}
	r.log = r.log.With("component", "certificate_repository")
	return r
}

func (r *certificateRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.queryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.queryTimeout)
}

// Create inserts cert unless its report number is already taken. The
// pre-check answers the common case; the unique index settles races.
func (r *certificateRepository) Create(ctx context.Context, cert *entity.Certificate) error {
	existing, err := r.FindByReportNumber(ctx, cert.ReportNumber)
	if err == nil && existing != nil {
		return fmt.Errorf("certificate %s: %w", cert.ReportNumber, apperror.ErrConflict)
	}
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return err
	}

	dbCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	if err := r.db.WithContext(dbCtx).Create(cert).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("certificate %s: %w", cert.ReportNumber, apperror.ErrConflict)
		}
		return fmt.Errorf("insert certificate: %w", err)
	}

	r.invalidate(ctx, cert.ReportNumber)
	return nil
}

func (r *certificateRepository) FindByReportNumber(ctx context.Context, reportNumber string) (*entity.Certificate, error) {
	key := certificateCacheKey(reportNumber)

	var cached entity.Certificate
	if r.readCache(ctx, "certificate", key, &cached) {
		return &cached, nil
	}

	dbCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var cert entity.Certificate
	if err := r.db.WithContext(dbCtx).Where("report_number = ?", reportNumber).First(&cert).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("certificate %s: %w", reportNumber, apperror.ErrNotFound)
		}
		return nil, fmt.Errorf("find certificate %s: %w", reportNumber, err)
	}

	r.writeCache(ctx, "certificate", key, &cert, r.certificateTTL)
	return &cert, nil
}

func (r *certificateRepository) FindByID(ctx context.Context, id uint) (*entity.Certificate, error) {
	dbCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var cert entity.Certificate
	if err := r.db.WithContext(dbCtx).First(&cert, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("certificate #%d: %w", id, apperror.ErrNotFound)
		}
		return nil, fmt.Errorf("find certificate #%d: %w", id, err)
	}
	return &cert, nil
}

// FindAll returns the most recent ListLimit certificates, newest report first.
func (r *certificateRepository) FindAll(ctx context.Context) ([]entity.Certificate, error) {
	var cached []entity.Certificate
	if r.readCache(ctx, "certificate_list", listCacheKey, &cached) {
		return cached, nil
	}

	dbCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	certificates := make([]entity.Certificate, 0)
	err := r.db.WithContext(dbCtx).
		Order("report_date DESC").
		Order("id DESC").
		Limit(ListLimit).
		Find(&certificates).Error
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}

	r.writeCache(ctx, "certificate_list", listCacheKey, certificates, r.listTTL)
	return certificates, nil
}

func (r *certificateRepository) Delete(ctx context.Context, id uint) (bool, error) {
	cert, err := r.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	dbCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	result := r.db.WithContext(dbCtx).Delete(&entity.Certificate{}, id)
	if result.Error != nil {
		return false, fmt.Errorf("delete certificate #%d: %w", id, result.Error)
	}

	r.invalidate(ctx, cert.ReportNumber)
	return result.RowsAffected > 0, nil
}

func (r *certificateRepository) SetActive(ctx context.Context, id uint, active bool) (bool, error) {
	cert, err := r.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	dbCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	err = r.db.WithContext(dbCtx).
		Model(&entity.Certificate{}).
		Where("id = ?", id).
		Update("is_active", active).Error
	if err != nil {
		return false, fmt.Errorf("update certificate #%d status: %w", id, err)
	}

	r.invalidate(ctx, cert.ReportNumber)
	return true, nil
}

// invalidate drops the aggregate list and the per-report entry touched by a write.
func (r *certificateRepository) invalidate(ctx context.Context, reportNumber string) {
	if err := r.cache.Delete(ctx, listCacheKey, certificateCacheKey(reportNumber)); err != nil {
		r.metrics.Error("invalidate")
		r.log.Error("cache invalidation failed", "report_number", reportNumber, "error", err)
	}
}

func (r *certificateRepository) readCache(ctx context.Context, name, key string, dest any) bool {
	raw, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		r.metrics.Error(name)
		r.log.Warn("cache read failed", "key", key, "error", err)
		return false
	}
	if !ok {
		r.metrics.Miss(name)
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		r.metrics.Error(name)
		r.log.Warn("discarding undecodable cache entry", "key", key, "error", err)
		_ = r.cache.Delete(ctx, key)
		return false
	}
	r.metrics.Hit(name)
	return true
}

func (r *certificateRepository) writeCache(ctx context.Context, name, key string, value any, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		r.log.Warn("cache encode failed", "key", key, "error", err)
		return
	}
	if err := r.cache.Set(ctx, key, raw, ttl); err != nil {
		r.metrics.Error(name)
		r.log.Warn("cache write failed", "key", key, "error", err)
	}
}
