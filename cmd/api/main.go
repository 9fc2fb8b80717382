package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/config"
	appHTTP "github.com/cmlabs-hris/hris-payroll-engine/internal/handler/http"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/keylock"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/hris-payroll-engine/internal/service/attendance"
	payrollService "github.com/cmlabs-hris/hris-payroll-engine/internal/service/payroll"
	"github.com/go-chi/httplog/v3"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "hris-payroll-engine"),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	db, err := database.NewPostgreSQLDB(context.Background(), cfg.DatabaseURL(), cfg.PoolOptions())
	if err != nil {
		slog.Error("Error connecting to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var locker keylock.Locker
	if addr := cfg.RedisAddr(); addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			slog.Error("Error connecting to redis", "addr", addr, "error", err)
			os.Exit(1)
		}
		locker = keylock.NewRedisLocker(rdb, "attendance:lock:", cfg.Engine.LockTTL)
		slog.Info("Using redis employee locks", "addr", addr)
	} else {
		locker = keylock.NewMemoryLocker()
		slog.Info("Using in-process employee locks")
	}

	attendanceRepo := postgresql.NewAttendanceRepository(db)
	configRepo := postgresql.NewAttendanceConfigRepository(db)
	holidayRepo := postgresql.NewHolidayRepository(db)
	leaveRequestRepo := postgresql.NewLeaveRequestRepository(db)
	payrollRepo := postgresql.NewPayrollRepository(db)
	slipRepo := postgresql.NewSalarySlipRepository(db)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	attendanceSvc := attendanceService.NewAttendanceService(
		attendanceRepo,
		configRepo,
		holidayRepo,
		locker,
		cfg.Engine.DependencyTimeout,
	)
	payrollSvc := payrollService.NewPayrollService(
		payrollRepo,
		slipRepo,
		attendanceRepo,
		leaveRequestRepo,
		attendanceSvc,
		cfg.Engine.DependencyTimeout,
		cfg.Engine.PayrollWorkers,
	)

	attendanceHandler := appHTTP.NewAttendanceHandler(attendanceSvc)
	payrollHandler := appHTTP.NewPayrollHandler(payrollSvc)

	router := appHTTP.NewRouter(
		appHTTP.RouterOptions{Logger: logger, AllowedOrigins: cfg.App.AllowedOrigins},
		JWTService,
		attendanceHandler,
		payrollHandler,
	)

	scheduler := cron.NewScheduler()
	cron.NewAttendanceJobs(attendanceSvc, cfg.Engine.AutoCheckoutInterval).RegisterJobs(scheduler)
	scheduler.Start()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server running", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	slog.Info("Shutting down")
	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
}
