// Command chatty is the main entrypoint for the chat client service.
// It:
//   - Loads configuration and initializes structured logging.
//   - Connects to Postgres and runs idempotent migrations.
//   - Connects to chat, joins the configured channels and keeps the
//     connection alive with automatic reconnects.
//   - Persists channel messages and whispers into the chat_messages table.
//   - Exposes a minimal HTTP server with /healthz, /readyz, /status,
//     /chat/recent and /metrics.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/deadNightTiger/chatty/chatlog"
	"github.com/deadNightTiger/chatty/config"
	"github.com/deadNightTiger/chatty/db"
	"github.com/deadNightTiger/chatty/server"
	"github.com/deadNightTiger/chatty/session"
	"github.com/deadNightTiger/chatty/telemetry"
	"github.com/deadNightTiger/chatty/transport"
	"github.com/deadNightTiger/chatty/user"
)

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load(".env")

	// Configure logging (level + format). Defaults: level=info, format=text.
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	var handler slog.Handler
	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	// Metrics / telemetry init
	telemetry.Init()

	// Initialize OpenTelemetry tracing (optional; requires OTEL_EXPORTER_OTLP_ENDPOINT)
	shutdown, err := telemetry.InitTracing("chatty", "1.0.0")
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdown()

	database, err := db.Connect(cfg.DBDsn)
	if err != nil {
		slog.Error("failed to open db", slog.Any("err", err))
		os.Exit(1)
	}
	defer func() {
		if err := database.Close(); err != nil {
			slog.Error("failed to close database", slog.Any("err", err))
		}
	}()
	if err := db.Migrate(context.Background(), database); err != nil {
		slog.Error("failed to migrate db", slog.Any("err", err))
		os.Exit(1)
	}

	// Root context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := session.Options{
		Label:              "main",
		MembershipCap:      cfg.Membership,
		CapitalizedNames:   cfg.CapitalizedNames,
		UserlistConnection: cfg.UserlistConnection,
		UserlistBlacklist:  cfg.UserlistBlacklist,
		SecuredPorts:       cfg.ChatSecuredPorts,
		SpamLimit:          cfg.SpamLimit,
		AutoRequestMods:    cfg.AutoRequestMods,
		TwitchnotifyAsInfo: cfg.TwitchnotifyAsInfo,
	}
	listener := chatlog.NewRecorder(&logListener{debug: cfg.Debug}, chatlog.NewStore(database))
	sess := session.New(listener, opts, nil, func(label string, l transport.Listener) transport.Conn {
		return transport.NewIRC(label, cfg.Membership, l)
	})
	sess.Start(ctx)

	if err := cfg.ValidateChatReady(); err != nil {
		slog.Warn("chat connection disabled", slog.Any("err", err))
	} else {
		sess.Connect(cfg.ChatServer, cfg.ChatPorts, cfg.Username, cfg.OAuthToken, cfg.Autojoin)
	}

	go func() {
		if err := server.Start(ctx, database, sess, cfg.HTTPAddr); err != nil {
			slog.Error("http server exited with error", slog.Any("err", err))
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
}

// logListener surfaces session notifications through the default logger.
type logListener struct {
	session.NopListener
	debug bool
}

func (l *logListener) OnChannelMessage(u *user.User, text string, action bool, emotes string) {
	slog.Info("chat", slog.String("channel", u.Channel), slog.String("user", u.Name), slog.String("text", text))
}

func (l *logListener) OnWhisper(u *user.User, text string, emotes string) {
	slog.Info("whisper", slog.String("user", u.Name), slog.String("text", text))
}

func (l *logListener) OnGlobalInfo(message string) {
	slog.Info(message)
}

func (l *logListener) OnInfo(channel, message string) {
	slog.Info(message, slog.String("channel", channel))
}

func (l *logListener) OnNotice(message string) {
	slog.Info(message, slog.String("type", "notice"))
}

func (l *logListener) OnChannelJoined(channel string) {
	slog.Info("joined", slog.String("channel", channel))
}

func (l *logListener) OnChannelLeft(channel string) {
	slog.Info("left", slog.String("channel", channel))
}

func (l *logListener) OnJoinError(requested []string, channel string, kind session.JoinError) {
	slog.Warn("join refused", slog.String("channel", channel), slog.String("reason", kind.String()))
}

func (l *logListener) OnJoinTimeout(channel string) {
	slog.Warn("join timed out", slog.String("channel", channel))
}

func (l *logListener) OnConnectError(message string) {
	slog.Error(message)
}

func (l *logListener) OnRawReceived(line string) {
	if l.debug {
		slog.Debug("recv", slog.String("line", line))
	}
}

func (l *logListener) OnRawSent(line string) {
	if l.debug {
		slog.Debug("sent", slog.String("line", line))
	}
}
