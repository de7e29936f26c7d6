package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"AriaVault/cache"
	"AriaVault/config"
	"AriaVault/core/catalog"
	"AriaVault/core/gate"
	"AriaVault/core/identity"
	"AriaVault/core/signer"
	"AriaVault/logger"
	"AriaVault/secret"
	"AriaVault/storage"

	"github.com/gorilla/mux"
)

// Start initializes and starts the HTTP server.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAgeDays,
		Compress:   true,
	})

	// 初始化 MinIO 目录存储
	store, err := storage.NewMinioStore(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize catalog store", logger.ErrorField(err))
	}

	// Connect to Redis. The listing cache degrades to direct store listings
	// when Redis is down, so this is a warning rather than fatal.
	if err := cache.ConnectRedis(cfg); err != nil {
		logger.Warn("Redis unavailable, playlist listing cache disabled", logger.ErrorField(err))
	} else {
		defer cache.CloseRedis()
		logger.Info("Connected to Redis")
	}
	listings := cache.NewListingCache(cache.RedisClient)

	// URL signer with key-rotation watch
	secrets := secret.NewFileStore(cfg.SecretStoreDir)
	cdnSigner := signer.NewCDNSigner(secrets, cfg.CDNDomain, cfg.SigningKeyPairID)
	stopWatch, err := signer.WatchRotation(cdnSigner, secrets.Path(signer.SigningKeyName))
	if err != nil {
		// The time-boxed cache revalidation still picks rotations up, just slower.
		logger.Warn("Signing key rotation watch unavailable", logger.ErrorField(err))
	} else {
		defer stopWatch()
	}

	ids := identity.NewResolver(cfg.AdminGroup)
	uploadGate := gate.New(store)
	resolver := catalog.NewResolver(store, cdnSigner, listings)

	apiHandler := NewAPIHandler(cfg, store, uploadGate, resolver, ids, listings)

	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      apiHandler.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 创建一个通道来接收操作系统信号
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// 在goroutine中启动服务器
	go func() {
		logger.Info("Server starting",
			logger.String("addr", cfg.ServerAddr),
			logger.String("bucket", cfg.MinioBucket),
			logger.String("cdnDomain", cfg.CDNDomain),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", logger.ErrorField(err))
		}
	}()

	// 等待中断信号
	<-stop
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 优雅关闭服务器
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("Server stopped")
}

// Routes 使用 gorilla/mux 创建路由器
func (h *APIHandler) Routes() *mux.Router {
	router := mux.NewRouter()

	// 添加 CORS 中间件
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// API Endpoints
	router.HandleFunc("/upload", h.AuthMiddleware(h.UploadHandler)).Methods(http.MethodPost)
	router.HandleFunc("/playlists", h.AuthMiddleware(h.PlaylistsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/healthz", h.HealthHandler).Methods(http.MethodGet)

	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondClientError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return router
}
