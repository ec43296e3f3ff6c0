package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("STORAGE_PATH", "")
	t.Setenv("WORKER_COUNT", "")
	t.Setenv("MAX_UPLOAD_MB", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port mismatch: got %q want %q", cfg.Port, "8080")
	}
	if cfg.StoragePath != "./data" {
		t.Fatalf("StoragePath mismatch: got %q", cfg.StoragePath)
	}
	if cfg.WorkerCount != 4 {
		t.Fatalf("WorkerCount mismatch: got %d want 4", cfg.WorkerCount)
	}
	if cfg.MaxUploadBytes != 512<<20 {
		t.Fatalf("MaxUploadBytes mismatch: got %d", cfg.MaxUploadBytes)
	}
	if cfg.Retention != 24*time.Hour {
		t.Fatalf("Retention mismatch: got %s", cfg.Retention)
	}
}

func TestLoadConfigHonorsOverrides(t *testing.T) {
	t.Setenv("WORKER_COUNT", "2")
	t.Setenv("STAGE_TIMEOUT_SECONDS", "60")
	t.Setenv("LIVENESS_WINDOW_SECONDS", "120")
	t.Setenv("MAX_UPLOAD_MB", "64")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.WorkerCount != 2 {
		t.Fatalf("WorkerCount mismatch: got %d want 2", cfg.WorkerCount)
	}
	if cfg.StageTimeout != time.Minute {
		t.Fatalf("StageTimeout mismatch: got %s", cfg.StageTimeout)
	}
	if cfg.LivenessWindow != 2*time.Minute {
		t.Fatalf("LivenessWindow mismatch: got %s", cfg.LivenessWindow)
	}
	if cfg.MaxUploadBytes != 64<<20 {
		t.Fatalf("MaxUploadBytes mismatch: got %d", cfg.MaxUploadBytes)
	}
}

func TestLoadConfigRejectsLivenessShorterThanStage(t *testing.T) {
	t.Setenv("STAGE_TIMEOUT_SECONDS", "600")
	t.Setenv("LIVENESS_WINDOW_SECONDS", "60")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for liveness window shorter than stage timeout")
	}
}

func TestLoadConfigRejectsNonPositiveWorkers(t *testing.T) {
	t.Setenv("WORKER_COUNT", "-1")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for non-positive worker count")
	}
}
