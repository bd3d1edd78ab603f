package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fulfillment/internal/config"
	"fulfillment/internal/handler"
	"fulfillment/internal/infra/db"
	infraRepo "fulfillment/internal/infra/repository"
	"fulfillment/internal/infra/token"
	"fulfillment/internal/jobs"
	"fulfillment/internal/server"
	"fulfillment/internal/usecase"
	"fulfillment/internal/validator"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	cfg, err := config.Load(".env", "../.env")
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//DB接続
	gormDB, err := db.Connect(cfg.DSN())
	if err != nil {
		return err
	}
	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	roleRepo := infraRepo.NewRoleGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	//usecaseに渡す部品
	clock := usecase.SystemClock{}
	hasher := usecase.NewBcryptPasswordHasher(bcrypt.DefaultCost)
	issuer, err := token.NewIssuer(cfg.JWTSecret, cfg.JWTExpiration, time.Now)
	if err != nil {
		return err
	}

	//Usecase生成
	guard := usecase.NewGuard(issuer, userRepo, roleRepo)
	authUC := usecase.NewAuthUsecase(txm, userRepo, roleRepo, validator.NewAuthValidator(), hasher, issuer, clock)
	cartUC := usecase.NewCartUsecase(txm, cfg.StockThreshold)
	orderUC := usecase.NewOrderUsecase(txm, cfg.StockThreshold, logger.With("component", "orders"))
	roleUC := usecase.NewRoleUsecase(txm)
	adminUserUC := usecase.NewAdminUserUsecase(txm)
	productUC := usecase.NewProductUsecase(productRepo, cfg.StockThreshold)
	auditUC := usecase.NewAuditUsecase(auditRepo)

	//ロールと管理者の初期データ
	if cfg.AdminPassword != "" {
		admin, err := authUC.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			return err
		}
		logger.Info("admin account ready", "user_id", admin.ID, "username", admin.Username)
	} else {
		logger.Warn("ADMIN_PASSWORD is empty; admin seed skipped")
	}

	//定期ジョブ
	lowStock := jobs.NewLowStockJob(productUC, cfg.LowStockSchedule, logger)
	if err := lowStock.Start(); err != nil {
		return err
	}
	defer lowStock.Stop()

	//Handler生成
	e := server.New(cfg, logger, guard, server.Handlers{
		Auth:         handler.NewAuthHandler(authUC),
		Cart:         handler.NewCartHandler(cartUC, orderUC),
		Order:        handler.NewOrderHandler(orderUC),
		AdminOrder:   handler.NewAdminOrderHandler(orderUC),
		Role:         handler.NewRoleHandler(roleUC),
		AdminUser:    handler.NewAdminUserHandler(adminUserUC, roleUC, auditUC),
		Product:      handler.NewProductHandler(productUC),
		AdminProduct: handler.NewAdminProductHandler(productUC),
	})

	//Server起動
	logger.Info("listening", "addr", cfg.Addr(), "env", cfg.GoEnv)
	return server.Start(ctx, e, cfg.Addr())
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
