package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestCheckConfigValidityValid(t *testing.T) {
	v := viper.New()
	v.Set("data_dir", "/tmp/inkpad")
	v.Set("http_addr", ":10101")
	v.Set("export.page_size", 100)
	v.Set("render.word_wrap", 80)
	v.Set("live.send_buffer", 64)
	v.Set("live.ping_interval", "30s")

	if err := CheckConfigValidity(v); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestCheckConfigValidityInvalid(t *testing.T) {
	v := viper.New()
	v.Set("data_dir", "")
	v.Set("http_addr", "")
	v.Set("export.page_size", 0)
	v.Set("live.send_buffer", 0)
	v.Set("live.ping_interval", "0s")

	err := CheckConfigValidity(v)
	if err == nil {
		t.Fatalf("expected error for invalid config")
	}

	msg := err.Error()
	expected := []string{
		"data_dir is required",
		"http_addr is required",
		"export.page_size must be greater than 0",
		"render.word_wrap must be greater than 0",
		"live.send_buffer must be greater than 0",
		"live.ping_interval must be greater than 0",
	}
	for _, want := range expected {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected error to contain %q, got %q", want, msg)
		}
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	content := "http_addr = \":7070\"\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Run("file overrides defaults", func(t *testing.T) {
		v := viper.New()
		v.SetConfigFile(cfgPath)
		if err := Load(context.Background(), v); err != nil {
			t.Fatal(err)
		}
		if got := v.GetString("http_addr"); got != ":7070" {
			t.Fatalf("http_addr = %q, want :7070", got)
		}
	})

	t.Run("env overrides file", func(t *testing.T) {
		t.Setenv("INKPAD_HTTP_ADDR", ":9090")
		v := viper.New()
		v.SetConfigFile(cfgPath)
		if err := Load(context.Background(), v); err != nil {
			t.Fatal(err)
		}
		if got := v.GetString("http_addr"); got != ":9090" {
			t.Fatalf("http_addr = %q, want :9090", got)
		}
	})

	t.Run("defaults fill the rest", func(t *testing.T) {
		v := viper.New()
		v.SetConfigFile(cfgPath)
		if err := Load(context.Background(), v); err != nil {
			t.Fatal(err)
		}
		if got := v.GetInt("live.send_buffer"); got != 64 {
			t.Fatalf("live.send_buffer = %d, want 64", got)
		}
		if v.GetString("data_dir") == "" {
			t.Fatal("data_dir should default to a non-empty path")
		}
	})
}

func TestRenderDefaultTOML(t *testing.T) {
	out := RenderDefaultTOML()
	for _, want := range []string{"http_addr", "[render]", "word_wrap", "[live]", "send_buffer", "[editor]", "delete_empty"} {
		if !strings.Contains(out, want) {
			t.Fatalf("rendered TOML missing %q:\n%s", want, out)
		}
	}
}

func TestUpdateTOML(t *testing.T) {
	in := "http_addr = \":8080\"\nbogus_key = 1\n"
	out, changed := UpdateTOML(in)
	if !changed {
		t.Fatal("expected changes")
	}
	if !strings.Contains(out, "# OUTDATED: option removed from config schema") {
		t.Fatalf("unknown key not commented out:\n%s", out)
	}
	if !strings.Contains(out, "# Added by config update") {
		t.Fatalf("missing defaults not appended:\n%s", out)
	}
	if !strings.Contains(out, "http_addr = \":8080\"") {
		t.Fatalf("existing key should be preserved:\n%s", out)
	}
}
