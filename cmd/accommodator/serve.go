package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/rl1809/accommodator/internal/adapter/handler"
	"github.com/rl1809/accommodator/internal/config"
	"github.com/rl1809/accommodator/internal/core/service"
)

const (
	telegramPollTimeout = 60
	shutdownTimeout     = 5 * time.Second
)

func newServeCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot and the HTTP endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configFile)
			if err != nil {
				return err
			}
			log := cfg.NewLogger()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			b, err := openBackends(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer b.Close()

			bookings := service.NewReservationService(b.store, b.store, b.locker, log.WithField("component", "reservations"))
			engine := service.NewEngine(b.store, b.store, b.states, b.locker, bookings, log.WithField("component", "engine"))

			httpHandler := handler.NewHTTPHandler(engine, cfg.OperationTimeout)
			mux := http.NewServeMux()
			mux.HandleFunc("/health", httpHandler.HealthCheck)
			mux.HandleFunc("/api/message", httpHandler.Message)
			mux.Handle("/metrics", promhttp.Handler())

			httpServer := &http.Server{
				Addr:    cfg.HTTPAddr,
				Handler: mux,
			}

			go func() {
				log.WithField("addr", cfg.HTTPAddr).Info("HTTP server listening")
				if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					log.WithError(err).Error("HTTP server error")
					cancel()
				}
			}()

			var wg sync.WaitGroup
			var bot *tgbotapi.BotAPI
			if cfg.TelegramToken != "" {
				bot, err = tgbotapi.NewBotAPI(cfg.TelegramToken)
				if err != nil {
					return err
				}
				bot.Debug = cfg.TelegramDebug
				log.WithField("bot", bot.Self.UserName).Info("authorized on telegram")

				u := tgbotapi.NewUpdate(0)
				u.Timeout = telegramPollTimeout
				updates := bot.GetUpdatesChan(u)

				dispatcher := handler.NewTelegramDispatcher(bot, engine, cfg.WorkerCount, cfg.QueueSize, cfg.OperationTimeout, log.WithField("component", "telegram"))
				wg.Add(1)
				go func() {
					defer wg.Done()
					dispatcher.Run(ctx, updates)
				}()
			} else {
				log.Warn("TELEGRAM_TOKEN is empty, telegram transport disabled")
			}

			<-ctx.Done()
			log.Info("shutting down...")

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer shutdownCancel()
			httpServer.Shutdown(shutdownCtx)
			log.Info("HTTP server stopped")

			if bot != nil {
				bot.StopReceivingUpdates()
			}
			wg.Wait()
			log.Info("workers stopped")

			return nil
		},
	}
}
