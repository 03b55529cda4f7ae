package shared

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", config.Server.Port)
	}
	if config.Sync.PageSize != 100 {
		t.Errorf("expected default page size 100, got %d", config.Sync.PageSize)
	}
	if config.Sync.BatchSize != 100 {
		t.Errorf("expected default batch size 100, got %d", config.Sync.BatchSize)
	}
	if config.Sync.MaxRateRetries != 0 {
		t.Errorf("expected unbounded rate retries by default, got %d", config.Sync.MaxRateRetries)
	}
	if config.Credentials.Spotify.RedirectURI == "" {
		t.Error("expected a default redirect URI")
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
[credentials.spotify]
client_id = "abc"
client_secret = "def"
redirect_uri = "http://localhost:9999/callback"

[database]
path = "test.db"

[sync]
page_size = 50
pace_ms = 100
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if config.Credentials.Spotify.ClientID != "abc" {
		t.Errorf("unexpected client_id: %s", config.Credentials.Spotify.ClientID)
	}
	if config.Sync.PageSize != 50 {
		t.Errorf("unexpected page size: %d", config.Sync.PageSize)
	}
	if config.Database.Path != "test.db" {
		t.Errorf("unexpected database path: %s", config.Database.Path)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	config := DefaultConfig()
	config.Credentials.Spotify.ClientID = "saved-id"
	config.Credentials.Spotify.AccessToken = "tok"

	if err := SaveConfig(path, config); err != nil {
		t.Fatalf("SaveConfig() error: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if loaded.Credentials.Spotify.ClientID != "saved-id" {
		t.Errorf("round trip lost client_id: %s", loaded.Credentials.Spotify.ClientID)
	}
	if loaded.Credentials.Spotify.AccessToken != "tok" {
		t.Errorf("round trip lost access token: %s", loaded.Credentials.Spotify.AccessToken)
	}
}

func TestSpotifyConfigUpdate(t *testing.T) {
	var c SpotifyConfig

	expiry := time.Now().Add(time.Hour)
	token := &oauth2.Token{AccessToken: "at", RefreshToken: "rt", Expiry: expiry}
	if err := c.Update(token); err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	if c.AccessToken != "at" || c.RefreshToken != "rt" {
		t.Errorf("token fields not stored: %+v", c)
	}

	// A refreshed token without a refresh_token keeps the old one.
	if err := c.Update(&oauth2.Token{AccessToken: "at2"}); err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if c.RefreshToken != "rt" {
		t.Errorf("refresh token should be preserved, got %q", c.RefreshToken)
	}

	if err := c.Update(nil); err == nil {
		t.Error("expected error for nil token")
	}
}

func TestSpotifyConfigToken(t *testing.T) {
	var c SpotifyConfig
	if c.Token() != nil {
		t.Error("expected nil token for empty config")
	}

	c.AccessToken = "at"
	tok := c.Token()
	if tok == nil || tok.AccessToken != "at" {
		t.Errorf("unexpected token: %+v", tok)
	}
}

func TestCreateConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	if err := CreateConfigFile(path); err != nil {
		t.Fatalf("CreateConfigFile() error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not created: %v", err)
	}
	if err := CreateConfigFile(path); err == nil {
		t.Error("expected error for existing config file")
	}
}
