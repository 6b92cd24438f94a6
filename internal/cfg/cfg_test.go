package cfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "MODELS_DIR", "MODEL_NAME", "LISTEN_PORT", "METRICS_PORT",
		"TRACKING_URL", "TRACKING_TIMEOUT", "DATA_PATH", "LOG_LEVEL", "HTTP_TIMEOUT",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_EnvDefaults(t *testing.T) {
	clearEnv(t)

	s, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if s.ModelsDir != "models" {
		t.Errorf("expected default models dir, got %s", s.ModelsDir)
	}
	if s.ModelName != "meps-utilization" {
		t.Errorf("expected default model name, got %s", s.ModelName)
	}
	if s.ListenPort != 8001 {
		t.Errorf("expected default listen port 8001, got %d", s.ListenPort)
	}
	if s.TrackingTimeout != 5*time.Second {
		t.Errorf("expected default tracking timeout, got %v", s.TrackingTimeout)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("MODELS_DIR", "/opt/models")
	t.Setenv("LISTEN_PORT", "8080")
	t.Setenv("LOG_LEVEL", "debug")

	s, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if s.ModelsDir != "/opt/models" {
		t.Errorf("env override ignored, got %s", s.ModelsDir)
	}
	if s.ListenPort != 8080 {
		t.Errorf("env override ignored, got %d", s.ListenPort)
	}
	if s.LogLevel != "debug" {
		t.Errorf("env override ignored, got %s", s.LogLevel)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	clearEnv(t)

	content := `
models:
  dir: /srv/meps/models
  name: meps-utilization-v2
registry:
  trackingURL: http://tracking:5000
  trackingTimeout: 3s
server:
  listenPort: 8002
  metricsPort: 9091
  httpTimeout: 15s
  logLevel: warn
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)

	s, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if s.ModelsDir != "/srv/meps/models" {
		t.Errorf("yaml models dir ignored, got %s", s.ModelsDir)
	}
	if s.ModelName != "meps-utilization-v2" {
		t.Errorf("yaml model name ignored, got %s", s.ModelName)
	}
	if s.TrackingURL != "http://tracking:5000" {
		t.Errorf("yaml tracking URL ignored, got %s", s.TrackingURL)
	}
	if s.TrackingTimeout != 3*time.Second {
		t.Errorf("yaml tracking timeout ignored, got %v", s.TrackingTimeout)
	}
	if s.ListenPort != 8002 || s.MetricsPort != 9091 {
		t.Errorf("yaml ports ignored, got %d/%d", s.ListenPort, s.MetricsPort)
	}
	if s.LogLevel != "warn" {
		t.Errorf("yaml log level ignored, got %s", s.LogLevel)
	}
}

func TestLoad_EnvBeatsYAML(t *testing.T) {
	clearEnv(t)

	content := `
models:
  dir: /srv/meps/models
server:
  listenPort: 8002
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("MODELS_DIR", "/env/models")

	s, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.ModelsDir != "/env/models" {
		t.Errorf("environment should override yaml, got %s", s.ModelsDir)
	}
}

func TestValidateSettings(t *testing.T) {
	base := func() Settings {
		return Settings{
			ModelsDir:       "models",
			ModelName:       "meps-utilization",
			ListenPort:      8001,
			MetricsPort:     9090,
			TrackingTimeout: 5 * time.Second,
			HTTPTimeout:     10 * time.Second,
			LogLevel:        "info",
		}
	}

	cases := []struct {
		name   string
		mutate func(*Settings)
		wantOK bool
	}{
		{"valid", func(s *Settings) {}, true},
		{"empty models dir", func(s *Settings) { s.ModelsDir = "" }, false},
		{"empty model name", func(s *Settings) { s.ModelName = "" }, false},
		{"privileged port", func(s *Settings) { s.ListenPort = 80 }, false},
		{"port clash", func(s *Settings) { s.MetricsPort = s.ListenPort }, false},
		{"timeout too small", func(s *Settings) { s.TrackingTimeout = time.Millisecond }, false},
		{"bad log level", func(s *Settings) { s.LogLevel = "verbose" }, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := base()
			tc.mutate(&s)
			err := validateSettings(&s)
			if tc.wantOK && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tc.wantOK && err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
