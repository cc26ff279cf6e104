package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/gymdesk/internal/access"
	"github.com/hitoshi/gymdesk/internal/account"
	"github.com/hitoshi/gymdesk/internal/billing"
	"github.com/hitoshi/gymdesk/internal/chat"
	"github.com/hitoshi/gymdesk/internal/config"
	"github.com/hitoshi/gymdesk/internal/dashboard"
	"github.com/hitoshi/gymdesk/internal/database"
	"github.com/hitoshi/gymdesk/internal/handler"
	"github.com/hitoshi/gymdesk/internal/identity"
	"github.com/hitoshi/gymdesk/internal/logger"
	"github.com/hitoshi/gymdesk/internal/member"
	"github.com/hitoshi/gymdesk/internal/metrics"
	"github.com/hitoshi/gymdesk/internal/middleware"
	"github.com/hitoshi/gymdesk/internal/plan"
	"github.com/hitoshi/gymdesk/internal/progress"
	"github.com/hitoshi/gymdesk/internal/repository"
	"github.com/hitoshi/gymdesk/internal/security"
	"github.com/hitoshi/gymdesk/internal/session"
	"github.com/hitoshi/gymdesk/internal/viewcache"
	"github.com/hitoshi/gymdesk/internal/worker/cleanup"
	"github.com/hitoshi/gymdesk/internal/worker/reconcile"
)

// connectTimeout は起動時のDB接続確認の上限時間。
const connectTimeout = 10 * time.Second

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// connect はDB接続を開き、Pingで疎通を確認する。
func connect(cfg *config.Config) (*sql.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := connect(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	accountRepo := repository.NewPostgresAccountRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	profileRepo := repository.NewPostgresProfileRepo(db)
	outboxRepo := repository.NewPostgresOutboxRepo(db)
	trainerRepo := repository.NewPostgresTrainerRepo(db)
	clientRepo := repository.NewPostgresClientRepo(db)
	workoutRepo := repository.NewPostgresWorkoutPlanRepo(db)
	dietRepo := repository.NewPostgresDietPlanRepo(db)
	paymentRepo := repository.NewPostgresPaymentRepo(db)
	salaryRepo := repository.NewPostgresSalaryRepo(db)
	progressRepo := repository.NewPostgresProgressRepo(db)

	// 3. 横断的関心事
	collector := metrics.NewCollector(prometheus.DefaultRegisterer)
	sanitizer := security.NewContentSanitizer()
	cache := viewcache.New(cfg.ViewCacheTTL)

	// 4. 認証とロール検証
	identityService := identity.NewService(accountRepo, sessionRepo, identity.ServiceConfig{
		Secret:        []byte(cfg.JWTSecret),
		SessionMaxAge: cfg.SessionMaxAge,
	})
	resolver := session.NewResolver(identityService, profileRepo)
	guard := access.NewGuard(resolver, trainerRepo, clientRepo)
	accountService := account.NewService(identityService, profileRepo, outboxRepo, collector, slog.Default())

	// 5. ドメインサービスの初期化
	memberService := member.NewService(clientRepo, trainerRepo, cache, collector)
	planService := plan.NewService(workoutRepo, dietRepo, clientRepo, cache, collector)
	progressService := progress.NewService(progressRepo, sanitizer, cache, collector)
	billingService := billing.NewService(paymentRepo, salaryRepo, cache, collector, cfg.RecentPaymentsWindow)
	overviewService := dashboard.NewService(clientRepo, trainerRepo, workoutRepo, dietRepo, progressRepo, billingService)

	// 6. チャットアシスタント（外部APIはOutboundGuard経由でのみ呼び出す）
	outbound := security.NewOutboundGuard()
	if err := outbound.ValidateEndpoint(cfg.GeminiEndpoint); err != nil {
		return fmt.Errorf("invalid GEMINI_ENDPOINT: %w", err)
	}
	chatClient := chat.NewClient(
		outbound.NewSafeClient(cfg.ChatTimeout),
		slog.Default(),
		chat.ClientConfig{
			APIKey:   cfg.GeminiAPIKey,
			Model:    cfg.GeminiModel,
			Endpoint: cfg.GeminiEndpoint,
		},
	)
	if !chatClient.Configured() {
		slog.Warn("GEMINI_API_KEY is not set; chatbot requests will fail")
	}
	assistant := chat.NewAssistant(chatClient, sanitizer, collector)

	// 7. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(
		middleware.RateLimiterConfigPerMinute(cfg.RateLimitGeneral, cfg.RateLimitChat),
	)
	defer rateLimiter.Stop()

	deps := &handler.RouterDeps{
		Logger:            slog.Default(),
		Authenticator:     resolver,
		Metrics:           collector,
		MetricsHandler:    metrics.Handler(prometheus.DefaultGatherer),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		CSRF:              middleware.DefaultCSRFConfig(cfg.CookieSecure, cfg.CookieDomain),

		Guard: guard,
		Cache: cache,

		AccountService: accountService,
		Cookie: identity.CookieConfig{
			Domain: cfg.CookieDomain,
			Secure: cfg.CookieSecure,
			MaxAge: cfg.SessionMaxAge,
		},

		MemberService:   memberService,
		PlanService:     planService,
		ProgressService: progressService,
		BillingService:  billingService,
		OverviewService: overviewService,
		Assistant:       assistant,
	}

	router := handler.NewRouter(deps)

	// 8. HTTPサーバーの起動
	// チャット生成を待つため、WriteTimeoutはチャットのタイムアウトより長くする。
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.ChatTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-stop:
	case err := <-serverErr:
		return fmt.Errorf("server listen error: %w", err)
	}
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// サインアップアウトボックスの再処理と期限切れセッションの削除を定期実行する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := connect(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established (worker)")

	// 2. リポジトリの初期化
	outboxRepo := repository.NewPostgresOutboxRepo(db)
	profileRepo := repository.NewPostgresProfileRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)

	collector := metrics.NewCollector(prometheus.DefaultRegisterer)

	// 3. ジョブの初期化
	reconciler := reconcile.NewReconciler(outboxRepo, profileRepo, collector, slog.Default(), reconcile.Config{
		MaxAttempts: cfg.ReconcileMaxAttempts,
	})
	cleanupJob := cleanup.NewSessionCleanupJob(sessionRepo, slog.Default())

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.Duration("reconcile_interval", cfg.ReconcileInterval),
		slog.Int("reconcile_max_attempts", cfg.ReconcileMaxAttempts),
		slog.Duration("session_cleanup_interval", cfg.SessionCleanupInterval),
	)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		reconciler.Start(ctx, cfg.ReconcileInterval)
	}()
	go func() {
		defer wg.Done()
		cleanupJob.Start(ctx, cfg.SessionCleanupInterval)
	}()
	wg.Wait()

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	version, dirty, err := database.SchemaVersion(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration check failed: %w", err)
	}

	slog.Info("database migrations completed successfully",
		slog.Uint64("version", uint64(version)),
		slog.Bool("dirty", dirty),
	)
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
func runHealthcheck(port string) error {
	return checkHealth(&http.Client{Timeout: 5 * time.Second}, fmt.Sprintf("http://localhost:%s/api/health", port))
}

func checkHealth(client *http.Client, url string) error {
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
