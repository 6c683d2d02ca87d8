package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: https://api.example.com
  timeout: 10s
  success_code: 0
  show_global_message: false
  headers:
    X-Source: apikit
log:
  level: debug
  format: json
`)

	f, err := Load(LoaderConfig{ConfigFile: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.API.BaseURL != "https://api.example.com" {
		t.Errorf("base_url = %q", f.API.BaseURL)
	}
	if f.API.Timeout != 10*time.Second {
		t.Errorf("timeout = %s", f.API.Timeout)
	}
	if f.API.ShowGlobalMessage == nil || *f.API.ShowGlobalMessage {
		t.Errorf("show_global_message = %v, want false", f.API.ShowGlobalMessage)
	}
	if f.API.Headers["X-Source"] != "apikit" {
		t.Errorf("headers = %v", f.API.Headers)
	}
	if f.Log.Level != "debug" || f.Log.Format != "json" {
		t.Errorf("log = %+v", f.Log)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: https://api.example.com
`)

	f, err := Load(LoaderConfig{ConfigFile: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.API.Timeout != 30*time.Second {
		t.Errorf("timeout default = %s, want 30s", f.API.Timeout)
	}
	if f.API.SuccessCode != 10000 {
		t.Errorf("success_code default = %d, want 10000", f.API.SuccessCode)
	}
	if f.Log.Level != "info" {
		t.Errorf("log level default = %q", f.Log.Level)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: https://file.example.com
  success_code: 1
`)
	t.Setenv("APIKIT_API_BASE_URL", "https://env.example.com")
	t.Setenv("APIKIT_API_SUCCESS_CODE", "200")

	f, err := Load(LoaderConfig{ConfigFile: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.API.BaseURL != "https://env.example.com" {
		t.Errorf("base_url = %q, want env override", f.API.BaseURL)
	}
	if f.API.SuccessCode != 200 {
		t.Errorf("success_code = %d, want env override", f.API.SuccessCode)
	}
}

func TestLoad_CustomEnvPrefix(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: https://file.example.com
`)
	t.Setenv("MYAPP_API_BASE_URL", "https://prefixed.example.com")

	f, err := Load(LoaderConfig{ConfigFile: path, EnvPrefix: "MYAPP"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.API.BaseURL != "https://prefixed.example.com" {
		t.Errorf("base_url = %q", f.API.BaseURL)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("APIKIT_API_BASE_URL=https://dotenv.example.com\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	cfgPath := writeConfig(t, `
api:
  base_url: https://file.example.com
`)
	// godotenv mutates the process environment; undo it.
	t.Cleanup(func() { os.Unsetenv("APIKIT_API_BASE_URL") })

	f, err := Load(LoaderConfig{ConfigFile: cfgPath, EnvFile: envPath})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.API.BaseURL != "https://dotenv.example.com" {
		t.Errorf("base_url = %q, want .env override", f.API.BaseURL)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(LoaderConfig{ConfigFile: "/does/not/exist.yml"})
	if err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "api: [broken")
	if _, err := Load(LoaderConfig{ConfigFile: path}); err == nil {
		t.Fatal("expected error for invalid yaml")
	}
}
