package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/badursun/Roqua-sub000/internal/app"
	"github.com/badursun/Roqua-sub000/internal/config"
	"github.com/badursun/Roqua-sub000/internal/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		logger.Setup("info", "text").Error("config_load_failed", "err", err)
		os.Exit(1)
	}
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 初始化组件
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("startup_failed", "err", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 启动服务器
	errCh := make(chan error, 1)
	go func() {
		log.Info("server_starting", "addr", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown_signal_received")
	case err := <-errCh:
		if err != nil {
			log.Error("server_failed", "err", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server_shutdown_failed", "err", err)
	}
	if err := a.Close(shutdownCtx); err != nil {
		log.Error("app_close_failed", "err", err)
		os.Exit(1)
	}
	log.Info("server_stopped")
}
