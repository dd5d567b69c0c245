package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// setRequired sets the variables Load cannot do without.
func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("USERS_FILE_PATH", "/data/users.csv")
	t.Setenv("COLUMN_MAPPING_FILE", "/etc/scimfile/CSVColumnMapping.properties")
	t.Setenv(PropertiesEnv, "")
}

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080, ShutdownTimeout: time.Second, RequestTimeout: time.Minute},
		Directory: DirectoryConfig{
			UsersFilePath:    "/data/users.csv",
			MappingFile:      "mapping.properties",
			CustomSchemaName: "urn:okta:onprem_app:1.0:user:custom",
		},
		Rate:    RateLimitConfig{Enabled: true, RequestsPerMinute: 100, Burst: 20},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8080)
	}
	if cfg.Directory.InactiveValue != "inactive" {
		t.Errorf("Directory.InactiveValue = %q, want %q", cfg.Directory.InactiveValue, "inactive")
	}
	if cfg.Directory.CustomSchemaName != "urn:okta:onprem_app:1.0:user:custom" {
		t.Errorf("Directory.CustomSchemaName = %q", cfg.Directory.CustomSchemaName)
	}
	if cfg.Directory.ProcessedFolder != "" {
		t.Errorf("Directory.ProcessedFolder = %q, want empty", cfg.Directory.ProcessedFolder)
	}
	if cfg.Directory.RefreshInterval != 0 {
		t.Errorf("Directory.RefreshInterval = %v, want 0", cfg.Directory.RefreshInterval)
	}
	if cfg.Rate.RequestsPerMinute != 100 || cfg.Rate.Burst != 20 {
		t.Errorf("Rate = %+v, want 100/min burst 20", cfg.Rate)
	}
}

func TestLoad_OverrideDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("USER_INACTIVE_VALUE", "disabled")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9090)
	}
	if cfg.Directory.InactiveValue != "disabled" {
		t.Errorf("Directory.InactiveValue = %q, want %q", cfg.Directory.InactiveValue, "disabled")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoad_PropertiesFile(t *testing.T) {
	dir := t.TempDir()
	propsPath := filepath.Join(dir, "application.properties")
	content := strings.Join([]string{
		"usersFilePath=/srv/users/users.csv",
		"csvProcessedFolder=/srv/users/processed",
		"userInactiveValueInCSV=Terminated",
		"columnMappingFile=/srv/CSVColumnMapping.properties",
		"server.port=7070",
		"refreshInterval=5m",
	}, "\n")
	if err := os.WriteFile(propsPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv(PropertiesEnv, propsPath)
	t.Setenv("USERS_FILE_PATH", "")
	t.Setenv("COLUMN_MAPPING_FILE", "")
	t.Setenv("SERVER_PORT", "9191")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Directory.UsersFilePath != "/srv/users/users.csv" {
		t.Errorf("UsersFilePath = %q", cfg.Directory.UsersFilePath)
	}
	if cfg.Directory.ProcessedFolder != "/srv/users/processed" {
		t.Errorf("ProcessedFolder = %q", cfg.Directory.ProcessedFolder)
	}
	if cfg.Directory.InactiveValue != "Terminated" {
		t.Errorf("InactiveValue = %q", cfg.Directory.InactiveValue)
	}
	if cfg.Directory.RefreshInterval != 5*time.Minute {
		t.Errorf("RefreshInterval = %v, want 5m", cfg.Directory.RefreshInterval)
	}
	// Environment wins over the properties file.
	if cfg.Server.Port != 9191 {
		t.Errorf("Server.Port = %d, want 9191 from the environment", cfg.Server.Port)
	}
}

func TestLoad_MissingPropertiesFile(t *testing.T) {
	setRequired(t)
	t.Setenv(PropertiesEnv, filepath.Join(t.TempDir(), "missing.properties"))

	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error for a missing properties file")
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv(PropertiesEnv, "")
	t.Setenv("USERS_FILE_PATH", "")
	t.Setenv("COLUMN_MAPPING_FILE", "/etc/mapping.properties")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() expected error for missing USERS_FILE_PATH")
	}
	if !strings.Contains(err.Error(), "USERS_FILE_PATH") {
		t.Errorf("error should mention USERS_FILE_PATH: %v", err)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	setRequired(t)
	t.Setenv("REFRESH_INTERVAL", "often")

	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error for invalid REFRESH_INTERVAL")
	}
}

func TestLoad_CommaSeparatedSlice(t *testing.T) {
	setRequired(t)
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 172.16.0.0/12 , 192.168.0.0/16")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	expected := []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}
	if len(cfg.Security.TrustedProxies) != len(expected) {
		t.Fatalf("TrustedProxies length = %d, want %d", len(cfg.Security.TrustedProxies), len(expected))
	}
	for i, v := range expected {
		if cfg.Security.TrustedProxies[i] != v {
			t.Errorf("TrustedProxies[%d] = %q, want %q", i, cfg.Security.TrustedProxies[i], v)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "relative users path", mutate: func(c *Config) { c.Directory.UsersFilePath = "users.csv" }, wantErr: "USERS_FILE_PATH"},
		{name: "invalid port", mutate: func(c *Config) { c.Server.Port = 99999 }, wantErr: "SERVER_PORT"},
		{name: "negative refresh interval", mutate: func(c *Config) { c.Directory.RefreshInterval = -time.Second }, wantErr: "REFRESH_INTERVAL"},
		{name: "zero burst", mutate: func(c *Config) { c.Rate.Burst = 0 }, wantErr: "RATE_LIMIT_BURST"},
		{name: "zero burst when disabled", mutate: func(c *Config) { c.Rate.Enabled = false; c.Rate.Burst = 0 }},
		{name: "api key required without keys", mutate: func(c *Config) { c.Security.RequireAPIKey = true }, wantErr: "API_KEYS"},
		{name: "invalid log level", mutate: func(c *Config) { c.Logging.Level = "verbose" }, wantErr: "LOG_LEVEL"},
		{name: "invalid log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error mentioning %s", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error should mention %s: %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	cfg.Logging.Level = "loud"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error")
	}
	for _, want := range []string{"SERVER_PORT", "LOG_LEVEL"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s: %v", want, err)
		}
	}
}

func TestServerAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"", 8080, ":8080"},
		{"0.0.0.0", 8080, "0.0.0.0:8080"},
		{"127.0.0.1", 3000, "127.0.0.1:3000"},
	}

	for _, tt := range tests {
		cfg := &ServerConfig{Host: tt.host, Port: tt.port}
		if got := cfg.Addr(); got != tt.want {
			t.Errorf("Addr() with host=%q, port=%d = %q, want %q", tt.host, tt.port, got, tt.want)
		}
	}
}

func TestConfigString_MasksAPIKeys(t *testing.T) {
	cfg := validConfig()
	cfg.Security.APIKeys = []string{"super-secret-key"}

	str := cfg.String()
	if strings.Contains(str, "super-secret-key") {
		t.Error("String() should mask API keys")
	}
	if !strings.Contains(str, "MASKED") {
		t.Error("String() should contain MASKED placeholder")
	}
}
