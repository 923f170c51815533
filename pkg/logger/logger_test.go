package logger

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestInit(t *testing.T) {
	config := &Config{
		Level:  "debug",
		Debug:  true,
		Output: "stderr",
	}

	err := Init(config)
	if err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}

	logger := GetLogger()
	if logger.GetLevel() != zerolog.DebugLevel {
		t.Errorf("Expected debug level, got %v", logger.GetLevel())
	}
}

func TestInitFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wslusb.log")

	err := Init(&Config{Level: "info", Output: path})
	if err != nil {
		t.Fatalf("Failed to initialize file logger: %v", err)
	}

	Info().Msg("hello")

	t.Cleanup(func() {
		_ = Init(DefaultConfig())
	})
}

func TestInitWithDefaults(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")

	if err := InitWithDefaults(); err != nil {
		t.Fatalf("Failed to initialize logger from environment: %v", err)
	}

	logger := GetLogger()
	if logger.GetLevel() != zerolog.WarnLevel {
		t.Errorf("Expected warn level from LOG_LEVEL, got %v", logger.GetLevel())
	}

	t.Cleanup(func() {
		_ = Init(DefaultConfig())
	})
}

func TestInitBadLevel(t *testing.T) {
	if err := Init(&Config{Level: "nonsense"}); err == nil {
		t.Error("Expected error for invalid level")
	}
}

func TestSetDebug(t *testing.T) {
	SetDebug(true)

	logger := GetLogger()
	if logger.GetLevel() != zerolog.DebugLevel {
		t.Errorf("Expected debug level after SetDebug(true), got %v", logger.GetLevel())
	}

	SetDebug(false)

	logger = GetLogger()
	if logger.GetLevel() != zerolog.InfoLevel {
		t.Errorf("Expected info level after SetDebug(false), got %v", logger.GetLevel())
	}
}

func TestWithComponent(t *testing.T) {
	componentLogger := WithComponent("test-component")

	if componentLogger.GetLevel() == zerolog.Disabled {
		t.Error("Component logger should not be disabled")
	}
}
