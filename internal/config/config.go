// Package config loads process configuration from the environment once
// and caches it for a short TTL — read at startup, re-read lazily if
// stale, never mutated in place.
package config

import (
	"os"
	"path/filepath"
	"sync"
	"time"
)

type Config struct {
	TmuxSocket        string
	TmuxSession       string
	Port              int
	LegacyPort        int
	OpenCodeURL       string
	ProxyURL          string
	OpenCodeSessionID string
	UsageID           string
	LogLevel          string
	SandboxHost       string
	RegistryURL       string
	RecordsServiceURL string
	AutoCreateSession bool
	DBPath            string
	SSHHost           string
	SSHPort           int
	SSHKeyPath        string
	SSHRemoteCommand  string
}

var (
	cacheTTL   = 10 * time.Second
	nowFunc    = time.Now
	cacheMu    sync.RWMutex
	cachedCfg  Config
	cachedAt   time.Time
	cacheValid bool
)

func LoadConfig() Config {
	cfg := loadFromEnv()
	cacheMu.Lock()
	cachedCfg = cfg
	cachedAt = nowFunc()
	cacheValid = true
	cacheMu.Unlock()
	return cfg
}

func GetConfig() *Config {
	now := nowFunc()
	cacheMu.RLock()
	valid := cacheValid && now.Sub(cachedAt) < cacheTTL
	if valid {
		out := cachedCfg
		cacheMu.RUnlock()
		return &out
	}
	cacheMu.RUnlock()

	cfg := loadFromEnv()
	cacheMu.Lock()
	cachedCfg = cfg
	cachedAt = now
	cacheValid = true
	cacheMu.Unlock()

	out := cfg
	return &out
}

func loadFromEnv() Config {
	port := atoiOrDefault(os.Getenv("PORT"), 3001)
	legacyPort := atoiOrDefault(os.Getenv("POCKETCODER_LEGACY_PORT"), 9889)

	tmuxSocket := os.Getenv("TMUX_SOCKET")
	if tmuxSocket == "" {
		tmuxSocket = "/tmp/tmux/pocketcoder"
	}

	tmuxSession := os.Getenv("TMUX_SESSION")
	if tmuxSession == "" {
		tmuxSession = "main"
	}

	openCodeURL := os.Getenv("OPENCODE_URL")
	if openCodeURL == "" {
		openCodeURL = "http://127.0.0.1:4096"
	}

	logLevel := os.Getenv("POCKETCODER_LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	sandboxHost := os.Getenv("POCKETCODER_SANDBOX_HOST")
	if sandboxHost == "" {
		sandboxHost = "sandbox"
	}

	dbPath := os.Getenv("POCKETCODER_DB_PATH")
	if dbPath == "" {
		dbPath = defaultDBPath()
	}

	sshHost := os.Getenv("POCKETCODER_SSH_HOST")
	if sshHost == "" {
		sshHost = "worker@sandbox"
	}
	sshPort := atoiOrDefault(os.Getenv("POCKETCODER_SSH_PORT"), 2222)
	sshKeyPath := os.Getenv("POCKETCODER_SSH_KEY_PATH")
	if sshKeyPath == "" {
		sshKeyPath = "/ssh_keys/id_rsa"
	}
	sshRemoteCommand := os.Getenv("POCKETCODER_SSH_REMOTE_COMMAND")
	if sshRemoteCommand == "" {
		sshRemoteCommand = "cd /app/cao && /usr/local/bin/uv run cao-mcp-server"
	}

	return Config{
		TmuxSocket:        tmuxSocket,
		TmuxSession:       tmuxSession,
		Port:              port,
		LegacyPort:        legacyPort,
		OpenCodeURL:       openCodeURL,
		ProxyURL:          os.Getenv("PROXY_URL"),
		OpenCodeSessionID: os.Getenv("OPENCODE_SESSION_ID"),
		UsageID:           os.Getenv("POCKETCODER_USAGE_ID"),
		LogLevel:          logLevel,
		SandboxHost:       sandboxHost,
		RegistryURL:       os.Getenv("POCKETCODER_REGISTRY_URL"),
		RecordsServiceURL: os.Getenv("POCKETCODER_RECORDS_SERVICE_URL"),
		AutoCreateSession: os.Getenv("POCKETCODER_AUTO_CREATE_SESSION") == "1",
		DBPath:            dbPath,
		SSHHost:           sshHost,
		SSHPort:           sshPort,
		SSHKeyPath:        sshKeyPath,
		SSHRemoteCommand:  sshRemoteCommand,
	}
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Clean(".pocketcoder/records.db")
	}
	return filepath.Join(home, ".pocketcoder", "records.db")
}

func atoiOrDefault(v string, fallback int) int {
	n := 0
	for i := 0; i < len(v); i++ {
		if v[i] < '0' || v[i] > '9' {
			return fallback
		}
		n = n*10 + int(v[i]-'0')
	}
	if n == 0 {
		return fallback
	}
	return n
}
