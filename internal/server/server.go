package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"anoa.com/gemcert/internal/config"
	"anoa.com/gemcert/internal/middleware"
	"anoa.com/gemcert/pkg/cache"
	"anoa.com/gemcert/pkg/logger"
	"anoa.com/gemcert/pkg/storage"

	adminHttp "anoa.com/gemcert/internal/modules/admin/delivery/http"
	adminRepo "anoa.com/gemcert/internal/modules/admin/repository"
	adminService "anoa.com/gemcert/internal/modules/admin/service"

	certificateHttp "anoa.com/gemcert/internal/modules/certificate/delivery/http"
	certificateRepo "anoa.com/gemcert/internal/modules/certificate/repository"
	certificateService "anoa.com/gemcert/internal/modules/certificate/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	uploadsURLPrefix = "/uploads"
	shutdownTimeout  = 10 * time.Second
	// multipart overhead allowed on top of the file size limit
	uploadBodySlack = 1 << 20
)

type Server struct {
	engine *gin.Engine
	db     *gorm.DB
	cfg    *config.Config
	log    *logger.Logger
}

// NewServer wires repositories, services and handlers onto a gin engine.
// store backs both the certificate cache and the verification counters.
func NewServer(cfg *config.Config, db *gorm.DB, store cache.Store, registry *prometheus.Registry, log *logger.Logger) (*Server, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	fileStorage, err := newFileStorage(cfg)
	if err != nil {
		return nil, err
	}

	certificateRepository := certificateRepo.NewCertificateRepository(db, certificateRepo.Options{
		Cache:          store,
		CertificateTTL: cfg.CertificateCacheTTL,
		ListTTL:        cfg.CertificateListCacheTTL,
		QueryTimeout:   cfg.DBAcquireTimeout,
		Metrics:        cache.NewMetrics(registry),
		Logger:         log,
	})
	certificateSvc := certificateService.NewService(
		certificateRepository,
		store,
		fileStorage,
		certificateService.Config{
			Upload:       storage.DefaultUploadPolicy(cfg.UploadMaxBytes),
			UploadFolder: cfg.CloudinaryUploadFolder,
		},
		certificateService.NewMetrics(registry),
		log,
	)
	certificateHandler := certificateHttp.NewCertificateHandler(certificateSvc, log)

	adminSvc := adminService.NewAdminService(adminRepo.NewAdminRepository(db), log)
	adminHandler := adminHttp.NewAdminHandler(adminSvc, log)

	router := gin.New()
	router.MaxMultipartMemory = 8 << 20

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(log))
	router.Use(middleware.AccessLog(log, "/health", "/metrics"))

	s := &Server{engine: router, db: db, cfg: cfg, log: log}

	router.GET("/health", s.health)
	if registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}
	if !cfg.CloudinaryEnabled() {
		router.Static(uploadsURLPrefix, cfg.UploadDir)
	}

	api := router.Group("/api")
	certificateHandler.RegisterRoutes(api, middleware.LimitBody(cfg.UploadMaxBytes+uploadBodySlack))
	adminHandler.RegisterRoutes(api)

	return s, nil
}

// Handler exposes the engine for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func newFileStorage(cfg *config.Config) (storage.FileStorage, error) {
	if cfg.CloudinaryEnabled() {
		fs, err := storage.NewCloudinaryStorage(cfg.CloudinaryURL, cfg.CloudinaryCloudName)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize cloudinary storage: %w", err)
		}
		return fs, nil
	}
	return storage.NewLocalStorage(cfg.UploadDir, uploadsURLPrefix)
}

func (s *Server) health(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err == nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		s.log.Warn("health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Run serves HTTP on cfg.Port, plus HTTPS on cfg.HTTPSPort when the
// certificate and key files exist, until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	servers := []*http.Server{{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}}

	tlsEnabled := fileExists(s.cfg.TLSCertFile) && fileExists(s.cfg.TLSKeyFile)
	if tlsEnabled {
		servers = append(servers, &http.Server{
			Addr:              ":" + s.cfg.HTTPSPort,
			Handler:           s.engine,
			ReadHeaderTimeout: 10 * time.Second,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, srv := range servers {
		srv := srv
		secure := i > 0
		g.Go(func() error {
			var err error
			if secure {
				s.log.Info("https server listening", "addr", srv.Addr)
				err = srv.ListenAndServeTLS(s.cfg.TLSCertFile, s.cfg.TLSKeyFile)
			} else {
				s.log.Info("http server listening", "addr", srv.Addr)
				err = srv.ListenAndServe()
			}
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
		}
		s.log.Info("servers stopped")
		return errors.Join(errs...)
	})

	return g.Wait()
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func setupCORS(router *gin.Engine, allowedOrigins string) {
	var origins []string
	for _, o := range strings.Split(allowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
