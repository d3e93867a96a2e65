package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/stoik/mailview/internal/mock"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}
	owner := os.Getenv("MOCK_OWNER")
	if owner == "" {
		owner = "me@example.com"
	}
	count := 60
	if v, err := strconv.Atoi(os.Getenv("MOCK_MESSAGES")); err == nil && v >= 0 {
		count = v
	}

	store := mock.NewStore()
	mock.Seed(store, owner, count, time.Now())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go mock.GeneratePeriodically(ctx, store, owner, 30*time.Second)

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: mock.NewRouter(store),
	}

	go func() {
		log.Info("Starting mock Gmail API server", zap.String("addr", srv.Addr), zap.String("owner", owner), zap.Int("messages", count))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("mock server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
}
