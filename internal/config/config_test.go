package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidate_InvalidPort(t *testing.T) {
	cfg := Config{
		HTTP:    HTTPConfig{Port: 0},
		Backend: BackendConfig{Driver: DriverMemory},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingRedisAddrs(t *testing.T) {
	for _, driver := range []string{DriverRedis, DriverValkey} {
		t.Run(driver, func(t *testing.T) {
			cfg := Config{
				HTTP:    HTTPConfig{Port: 8080},
				Backend: BackendConfig{Driver: driver},
			}
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected error for missing addrs")
			}
		})
	}
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := Config{
		HTTP:    HTTPConfig{Port: 8080},
		Backend: BackendConfig{Driver: "etcd"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
	want := `backend.driver must be one of memory, redis, valkey, got "etcd"`
	if err.Error() != want {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), want)
	}
}

func TestValidate_MemoryNeedsNoAddrs(t *testing.T) {
	cfg := Config{
		HTTP:    HTTPConfig{Port: 8080},
		Backend: BackendConfig{Driver: DriverMemory},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 30 {
		t.Errorf("expected WriteTimeoutSec=30, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Backend.Driver != DriverMemory {
		t.Errorf("expected Driver=memory, got %q", cfg.Backend.Driver)
	}
	if cfg.Backend.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Backend.ReadinessTimeout)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:    HTTPConfig{ReadTimeoutSec: 5, WriteTimeoutSec: 60, ShutdownSec: 3},
		Backend: BackendConfig{Driver: DriverValkey, ReadinessTimeout: 15},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 5 {
		t.Errorf("expected ReadTimeoutSec=5, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Backend.Driver != DriverValkey {
		t.Errorf("expected Driver=valkey, got %q", cfg.Backend.Driver)
	}
	if cfg.Backend.ReadinessTimeout != 15 {
		t.Errorf("expected ReadinessTimeout=15, got %d", cfg.Backend.ReadinessTimeout)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("VECSEARCH_TEST_PORT", "9000")
	t.Setenv("VECSEARCH_TEST_EMPTY", "")

	in := "a: ${VECSEARCH_TEST_PORT}\nb: ${VECSEARCH_TEST_EMPTY:-fallback}\nc: ${VECSEARCH_TEST_UNSET}\n"
	got := string(expandEnvVars([]byte(in)))
	want := "a: 9000\nb: fallback\nc: \n"
	if got != want {
		t.Errorf("expandEnvVars:\ngot:  %q\nwant: %q", got, want)
	}
}

func TestParse(t *testing.T) {
	t.Setenv("VECSEARCH_TEST_ADDR", "cache:6379")

	data := []byte(`
http:
  port: 19530
backend:
  driver: valkey
  addrs: ["${VECSEARCH_TEST_ADDR}"]
  password: "${VECSEARCH_TEST_PASSWORD:-secret}"
auth:
  api_keys: ["k1", "k2"]
logging:
  level: debug
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.HTTP.Port != 19530 || cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("http: got %+v", cfg.HTTP)
	}
	if cfg.Backend.Addrs[0] != "cache:6379" || cfg.Backend.Password != "secret" {
		t.Errorf("backend: got %+v", cfg.Backend)
	}
	if len(cfg.Auth.APIKeys) != 2 || cfg.Logging.Level != "debug" {
		t.Errorf("auth/logging: got %+v %+v", cfg.Auth, cfg.Logging)
	}
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("http:\n  port: 0\n"))
	if err == nil || !strings.HasPrefix(err.Error(), "invalid config:") {
		t.Fatalf("expected invalid config error, got %v", err)
	}

	_, err = Parse([]byte("http: [unclosed"))
	if err == nil || !strings.HasPrefix(err.Error(), "failed to parse config:") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	if err := os.WriteFile(path, []byte("http:\n  port: 8080\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Backend.Driver != DriverMemory {
		t.Errorf("driver: got %q", cfg.Backend.Driver)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_LocalConfig(t *testing.T) {
	cfg, err := Load("local")
	if err != nil {
		t.Fatalf("Load(local): %v", err)
	}
	if cfg.HTTP.Port != 19530 {
		t.Errorf("port: got %d", cfg.HTTP.Port)
	}
}
