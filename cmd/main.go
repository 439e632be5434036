package main

import (
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"gopkg.in/telebot.v3"

	"groupwarden/internal/bot"
	"groupwarden/internal/config"
	"groupwarden/internal/database"
	"groupwarden/internal/moderation"
	"groupwarden/internal/polls"
	"groupwarden/internal/services"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg := config.Load()
	if cfg.TelegramToken == "" {
		log.Fatal().Msg("TELEGRAM_BOT_TOKEN is required")
	}

	store, err := database.Open(cfg.DatabasePath, cfg.WelcomeImage, log)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DatabasePath).Msg("failed to open database")
	}

	openaiConfig := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		openaiConfig.BaseURL = cfg.OpenAIBaseURL
	}
	openaiClient := openai.NewClientWithConfig(openaiConfig)

	aiSvc := services.NewAIService(openaiClient, cfg.OpenAIModel, cfg.MaxTokens, log)
	moderator := moderation.NewModerator(store, moderation.NewFloodDetector(), aiSvc, log)
	confirm := moderation.NewConfirmGateway()

	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
	}
	tgBot, err := telebot.NewBot(pref)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create telegram bot")
	}

	botApp := bot.New(cfg, tgBot, store, aiSvc, moderator, confirm, log)

	engine := polls.NewEngine(store, botApp, log)
	botApp.SetPollEngine(engine)
	if err := engine.Restore(); err != nil {
		log.Error().Err(err).Msg("failed to restore polls")
	}

	registerHandlers(tgBot, botApp)

	go startHealthServer(cfg.Port, log)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-stop
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		tgBot.Stop()
	}()

	log.Info().Str("username", cfg.BotUsername).Msg("bot started")
	tgBot.Start()

	engine.Shutdown()
	if err := store.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close database")
	}
	log.Info().Msg("bot stopped")
}

func registerHandlers(tgBot *telebot.Bot, botApp *bot.Bot) {
	tgBot.Handle("/start", botApp.HandleStart)
	tgBot.Handle("/help", botApp.HandleHelp)
	tgBot.Handle("/ask", botApp.HandleAsk)
	tgBot.Handle("/humanize", botApp.HandleHumanize)
	tgBot.Handle("/poll", botApp.HandlePoll)

	// member management
	tgBot.Handle("/ban", botApp.HandleBan)
	tgBot.Handle("/unban", botApp.HandleUnban)
	tgBot.Handle("/kick", botApp.HandleKick)
	tgBot.Handle("/mute", botApp.HandleMute)
	tgBot.Handle("/unmute", botApp.HandleUnmute)
	tgBot.Handle("/ro", botApp.HandleReadOnly)
	tgBot.Handle("/unro", botApp.HandleUnReadOnly)
	tgBot.Handle("/warn", botApp.HandleWarn)
	tgBot.Handle("/verify", botApp.HandleVerify)
	tgBot.Handle("/unverify", botApp.HandleUnverify)
	tgBot.Handle("/promote", botApp.HandlePromote)
	tgBot.Handle("/demote", botApp.HandleDemote)

	// message management
	tgBot.Handle("/pin", botApp.HandlePin)
	tgBot.Handle("/unpin", botApp.HandleUnpin)
	tgBot.Handle("/del", botApp.HandleDelete)
	tgBot.Handle("/purge", botApp.HandlePurge)
	tgBot.Handle("/clean", botApp.HandleClean)

	// greetings and settings
	tgBot.Handle("/setwelcome", botApp.HandleSetWelcome)
	tgBot.Handle("/delwelcome", botApp.HandleDelWelcome)
	tgBot.Handle("/setgoodbye", botApp.HandleSetGoodbye)
	tgBot.Handle("/delgoodbye", botApp.HandleDelGoodbye)
	tgBot.Handle("/welcome", botApp.HandleToggleWelcome)
	tgBot.Handle("/goodbye", botApp.HandleToggleGoodbye)
	tgBot.Handle("/setwelcomeimage", botApp.HandleSetWelcomeImage)
	tgBot.Handle("/toggleauto", botApp.HandleToggleAuto)

	// auto-replies
	tgBot.Handle("/filter", botApp.HandleAddFilter)
	tgBot.Handle("/stop", botApp.HandleRemoveFilter)
	tgBot.Handle("/filters", botApp.HandleListFilters)

	// information
	tgBot.Handle("/id", botApp.HandleID)
	tgBot.Handle("/userinfo", botApp.HandleUserInfo)
	tgBot.Handle("/chatinfo", botApp.HandleChatInfo)
	tgBot.Handle("/admins", botApp.HandleAdmins)
	tgBot.Handle("/stats", botApp.HandleStats)

	tgBot.Handle(telebot.OnUserJoined, botApp.HandleUserJoined)
	tgBot.Handle(telebot.OnUserLeft, botApp.HandleUserLeft)
	tgBot.Handle(telebot.OnText, botApp.HandleText)
	tgBot.Handle(telebot.OnCallback, botApp.HandleCallback)
}

func startHealthServer(port string, log zerolog.Logger) {
	http.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	log.Info().Str("port", port).Msg("health server started")
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Error().Err(err).Msg("health server stopped")
	}
}
