package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"CHAT_SERVER", "CHAT_PORTS", "CHAT_SECURED_PORTS", "TWITCH_USERNAME",
		"TWITCH_OAUTH_TOKEN", "CHAT_AUTOJOIN", "CHAT_SPAM_LIMIT", "DB_DSN", "HTTP_ADDR",
	} {
		t.Setenv(key, "")
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ChatServer != "irc.chat.twitch.tv" {
		t.Errorf("ChatServer = %q", cfg.ChatServer)
	}
	if cfg.ChatPorts != "6697,6667" {
		t.Errorf("ChatPorts = %q", cfg.ChatPorts)
	}
	if len(cfg.ChatSecuredPorts) != 1 || cfg.ChatSecuredPorts[0] != 6697 {
		t.Errorf("ChatSecuredPorts = %v", cfg.ChatSecuredPorts)
	}
	if cfg.SpamLimit != "19/30" {
		t.Errorf("SpamLimit = %q", cfg.SpamLimit)
	}
	if !cfg.Membership || !cfg.CapitalizedNames || cfg.UserlistConnection {
		t.Errorf("toggle defaults wrong: %+v", cfg)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TWITCH_USERNAME", "BotUser")
	t.Setenv("TWITCH_OAUTH_TOKEN", "oauth:abc")
	t.Setenv("CHAT_AUTOJOIN", "#one, #two,")
	t.Setenv("CHAT_USERLIST_CONNECTION", "true")
	t.Setenv("CHAT_SECURED_PORTS", "6697,443")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Username != "botuser" {
		t.Errorf("Username not lowercased: %q", cfg.Username)
	}
	if len(cfg.Autojoin) != 2 || cfg.Autojoin[0] != "#one" || cfg.Autojoin[1] != "#two" {
		t.Errorf("Autojoin = %v", cfg.Autojoin)
	}
	if !cfg.UserlistConnection {
		t.Error("UserlistConnection not enabled")
	}
	if len(cfg.ChatSecuredPorts) != 2 {
		t.Errorf("ChatSecuredPorts = %v", cfg.ChatSecuredPorts)
	}
	if err := cfg.ValidateChatReady(); err != nil {
		t.Errorf("ValidateChatReady: %v", err)
	}
}

func TestValidateChatReady(t *testing.T) {
	t.Setenv("TWITCH_USERNAME", "")
	t.Setenv("TWITCH_OAUTH_TOKEN", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.ValidateChatReady(); err == nil {
		t.Error("expected error for missing credentials")
	}
}

func TestInvalidSecuredPorts(t *testing.T) {
	t.Setenv("CHAT_SECURED_PORTS", "not-a-port")
	if _, err := Load(); err == nil {
		t.Error("expected error for invalid port list")
	}
}
