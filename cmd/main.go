package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"project_sheetbot/internal/config"
	"project_sheetbot/internal/entities"
	"project_sheetbot/internal/infrastructure"
	api "project_sheetbot/internal/interfaces/http"
	"project_sheetbot/internal/repository"
	"project_sheetbot/internal/usecases"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	waLog "go.mau.fi/whatsmeow/util/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	log := infrastructure.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, log)
	stop()

	if err != nil {
		if errors.Is(err, infrastructure.ErrLoggedOut) {
			log.Errorf("WhatsApp session was logged out. Delete the session and restart to pair again.")
		} else {
			log.Errorf("Fatal: %v", err)
		}
		os.Exit(1)
	}
	log.Infof("Shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, log waLog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Spreadsheet must be reachable before any transport starts.
	sheetRepo, err := repository.NewSheetRepository(ctx, cfg.SpreadsheetID, cfg.ServiceAccountJSON)
	if err != nil {
		return err
	}
	title, err := sheetRepo.Ping(ctx)
	if err != nil {
		return fmt.Errorf("spreadsheet check failed: %w", err)
	}
	log.Infof("Connected to spreadsheet %q", title)

	geminiClient, err := infrastructure.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return err
	}

	sheetContext := usecases.NewSheetContext(sheetRepo, log.Sub("Sheets"))
	composer := usecases.NewAnswerComposer(sheetContext, geminiClient, usecases.ComposerRanges{
		StockNames:      cfg.StockNamesRange,
		StockQuantities: cfg.StockQuantitiesRange,
		Context:         cfg.ContextRanges,
	}, log.Sub("Composer"))

	whatsappAllowed := usecases.NewAllowList(cfg.AllowedNumbers, usecases.WhatsAppUserSuffix)
	messageService := usecases.NewMessageService(map[string]usecases.AllowList{
		infrastructure.PlatformWhatsApp: whatsappAllowed,
		api.PlatformWeb:                 whatsappAllowed,
		infrastructure.PlatformTelegram: usecases.NewAllowList(cfg.Telegram.AllowedUserIDs, ""),
	}, composer, log.Sub("Dispatch"))
	log.Infof("Allow list loaded: %d WhatsApp numbers", whatsappAllowed.Len())

	sessions, err := infrastructure.OpenSessionStore(ctx, cfg.WhatsApp, log)
	if err != nil {
		return err
	}
	defer sessions.Close()

	waClient, err := infrastructure.NewWhatsAppClient(ctx, sessions, cfg.WhatsApp, log.Sub("WhatsApp"))
	if err != nil {
		return err
	}
	waClient.OnMessage(func(ctx context.Context, msg entities.IncomingMessage) {
		messageService.HandleMessage(ctx, msg, waClient)
	})

	var tgDone chan struct{}
	if cfg.Telegram.Enabled() {
		tgClient, err := infrastructure.NewTelegramClient(cfg.Telegram.BotToken, log.Sub("Telegram"))
		if err != nil {
			return err
		}
		tgDone = make(chan struct{})
		go func() {
			defer close(tgDone)
			tgClient.Run(ctx, func(ctx context.Context, msg entities.IncomingMessage) {
				messageService.HandleMessage(ctx, msg, tgClient)
			})
		}()
	} else {
		log.Infof("Telegram disabled (TELEGRAM_BOT_TOKEN not set)")
	}

	var srv *http.Server
	if cfg.HTTP.Enabled() {
		if cfg.LogLevel != "debug" {
			gin.SetMode(gin.ReleaseMode)
		}
		r := gin.Default()
		authUsecase := usecases.NewAuthUsecase(cfg.HTTP.AdminUsername, cfg.HTTP.AdminPasswordHash, cfg.HTTP.JWTSecret)
		api.SetupRoutes(r, messageService, authUsecase, waClient, api.NewMiddleware(cfg.HTTP.JWTSecret))

		srv = &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			log.Infof("Ops HTTP server listening on %s", cfg.HTTP.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorf("FAILED to start HTTP Server: %v", err)
				cancel()
			}
		}()
	}

	runErr := waClient.Run(ctx)
	cancel()

	if srv != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warnf("HTTP shutdown: %v", err)
		}
		done()
	}
	if tgDone != nil {
		<-tgDone
	}
	return runErr
}
