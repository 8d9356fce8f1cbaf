package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/studyroom/server/internal/controller"
	"github.com/studyroom/server/internal/repository/connection/inmemory"
	"github.com/studyroom/server/internal/repository/room/redis"
	"github.com/studyroom/server/internal/service/room"
	"github.com/studyroom/server/pkg/ctxlogger"
	"github.com/studyroom/server/pkg/redisclient"
)

type AppConfig struct {
	Secret                string `json:"-"`
	Host                  string `json:"host"`
	Port                  int    `json:"port"`
	LogLevel              string `json:"log_level"`
	MembersLimit          int    `json:"members_limit"`
	ChatHistoryLimit      int    `json:"chat_history_limit"`
	RoomEmptyTTLSec       int    `json:"room_empty_ttl_sec"`
	FocusMin              int    `json:"focus_min"`
	ShortBreakMin         int    `json:"short_break_min"`
	LongBreakMin          int    `json:"long_break_min"`
	CyclesBeforeLongBreak int    `json:"cycles_before_long_break"`
	RedisPort             int    `json:"redis_port"`
	RedisHost             string `json:"redis_host"`
	RedisPassword         string `json:"-"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.Secret == "" {
		return fmt.Errorf("secret must be set")
	}
	if cfg.MembersLimit < 1 {
		return fmt.Errorf("members limit must be greater than 0")
	}
	if cfg.ChatHistoryLimit < 1 {
		return fmt.Errorf("chat history limit must be greater than 0")
	}
	if cfg.RoomEmptyTTLSec < 1 {
		return fmt.Errorf("room empty ttl must be greater than 0")
	}
	if cfg.FocusMin < 1 || cfg.ShortBreakMin < 1 || cfg.LongBreakMin < 1 {
		return fmt.Errorf("phase durations must be greater than 0")
	}
	if cfg.CyclesBeforeLongBreak < 1 {
		return fmt.Errorf("cycles before long break must be greater than 0")
	}
	return nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		log.Fatal(err)
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	logger := slog.New(&h)

	rc, err := redisclient.NewRedisClient(&redisclient.Config{
		Port:     cfg.RedisPort,
		Host:     cfg.RedisHost,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer rc.Close()

	roomRepo := redis.NewRepo(rc, logger)
	connectionRepo := inmemory.NewRepo()
	roomService := room.NewService(roomRepo, connectionRepo, &room.Config{
		Secret:                cfg.Secret,
		MembersLimit:          cfg.MembersLimit,
		ChatHistoryLimit:      cfg.ChatHistoryLimit,
		EmptyRoomTTL:          time.Duration(cfg.RoomEmptyTTLSec) * time.Second,
		FocusDuration:         time.Duration(cfg.FocusMin) * time.Minute,
		ShortBreakDuration:    time.Duration(cfg.ShortBreakMin) * time.Minute,
		LongBreakDuration:     time.Duration(cfg.LongBreakMin) * time.Minute,
		CyclesBeforeLongBreak: cfg.CyclesBeforeLongBreak,
	}, logger)
	controller := controller.NewController(roomService, logger)
	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: controller.GetMux()}

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		err := server.Shutdown(shutdownCtx)
		if err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	<-serverCtx.Done()

	return nil
}
