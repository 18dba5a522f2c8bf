package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()
	if cfg.Server.Port != "8080" {
		t.Errorf("port %q", cfg.Server.Port)
	}
	if cfg.Pipeline.DefaultQuality != 0.8 {
		t.Errorf("default quality %v", cfg.Pipeline.DefaultQuality)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("shutdown timeout %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Redis.URL != "" || cfg.S3.Bucket != "" {
		t.Error("redis and s3 must default to disabled")
	}
}

func TestFromEnvOverridesAndClamping(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DEFAULT_QUALITY", "1.7")
	t.Setenv("JPEG_GRAYSCALE", "true")
	t.Setenv("AXIOM_DATASET", "prod")

	cfg := FromEnv()
	if cfg.Server.Port != "9000" {
		t.Errorf("port %q", cfg.Server.Port)
	}
	if cfg.Pipeline.DefaultQuality != 1.0 {
		t.Errorf("quality must clamp to 1.0, got %v", cfg.Pipeline.DefaultQuality)
	}
	if !cfg.Pipeline.Grayscale {
		t.Error("grayscale override lost")
	}
	if cfg.Axiom.Dataset != "prod_pdfpress" {
		t.Errorf("dataset %q", cfg.Axiom.Dataset)
	}
}

func TestParseHelpers(t *testing.T) {
	if parseInt("abc", 7) != 7 {
		t.Error("bad int must fall back to default")
	}
	if !parseBool("YES") || parseBool("off") {
		t.Error("bool parsing")
	}
	if parseDuration("nope", time.Minute) != time.Minute {
		t.Error("bad duration must fall back to default")
	}
	if parseFloat("0.25", 1) != 0.25 {
		t.Error("float parsing")
	}
}
