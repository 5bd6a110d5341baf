package config

import (
	"testing"
	"time"
)

func TestNewFromEnv(t *testing.T) {
	// Helper function to set environment variables for a test
	setEnv := func(key, value string) {
		t.Helper()
		t.Setenv(key, value)
	}

	t.Run("Defaults", func(t *testing.T) {
		t.Chdir(t.TempDir())

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.GeminiModel != "gemini-2.5-flash" {
			t.Errorf("Expected GeminiModel 'gemini-2.5-flash', got '%s'", cfg.GeminiModel)
		}
		if cfg.GeminiTransport != TransportREST {
			t.Errorf("Expected transport '%s', got '%s'", TransportREST, cfg.GeminiTransport)
		}
		if cfg.Locator != LocatorChrome {
			t.Errorf("Expected locator '%s', got '%s'", LocatorChrome, cfg.Locator)
		}
		if cfg.LocatorTimeout != 20*time.Second {
			t.Errorf("Expected LocatorTimeout 20s, got %s", cfg.LocatorTimeout)
		}
		if cfg.RetryAttempts != 1 {
			t.Errorf("Expected RetryAttempts 1, got %d", cfg.RetryAttempts)
		}
		if cfg.MenuPath != "weekly_menu.json" {
			t.Errorf("Expected MenuPath 'weekly_menu.json', got '%s'", cfg.MenuPath)
		}
		if cfg.TargetURL != DefaultTargetURL {
			t.Errorf("Expected default TargetURL, got '%s'", cfg.TargetURL)
		}
	})

	t.Run("Overrides", func(t *testing.T) {
		t.Chdir(t.TempDir())
		setEnv("GEMINI_API_KEY", "gemini_key")
		setEnv("GEMINI_TRANSPORT", "SDK")
		setEnv("LOCATOR", "static")
		setEnv("RETRY_ATTEMPTS", "3")
		setEnv("RETRY_BACKOFF", "500ms")
		setEnv("TELEGRAM_ALLOWED_USER_IDS", "11, 22")
		setEnv("ADMIN_TELEGRAM_ID", "11")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.GeminiAPIKey != "gemini_key" {
			t.Errorf("Expected GeminiAPIKey 'gemini_key', got '%s'", cfg.GeminiAPIKey)
		}
		if cfg.GeminiTransport != TransportSDK {
			t.Errorf("Expected transport '%s', got '%s'", TransportSDK, cfg.GeminiTransport)
		}
		if cfg.Locator != LocatorStatic {
			t.Errorf("Expected locator '%s', got '%s'", LocatorStatic, cfg.Locator)
		}
		if cfg.RetryAttempts != 3 || cfg.RetryBackoff != 500*time.Millisecond {
			t.Errorf("Expected 3 attempts / 500ms, got %d / %s", cfg.RetryAttempts, cfg.RetryBackoff)
		}
		if len(cfg.TelegramAllowedUserIDs) != 2 || cfg.TelegramAllowedUserIDs[1] != 22 {
			t.Errorf("Expected allowed ids [11 22], got %v", cfg.TelegramAllowedUserIDs)
		}
		if cfg.AdminTelegramID != 11 {
			t.Errorf("Expected AdminTelegramID 11, got %d", cfg.AdminTelegramID)
		}
	})

	t.Run("InvalidTransport", func(t *testing.T) {
		t.Chdir(t.TempDir())
		setEnv("GEMINI_TRANSPORT", "carrier-pigeon")

		if _, err := NewFromEnv(); err == nil {
			t.Fatal("Expected an error for an unknown transport, got nil")
		}
	})

	t.Run("InvalidRetryAttempts", func(t *testing.T) {
		t.Chdir(t.TempDir())
		setEnv("RETRY_ATTEMPTS", "0")

		if _, err := NewFromEnv(); err == nil {
			t.Fatal("Expected an error for RETRY_ATTEMPTS=0, got nil")
		}
	})

	t.Run("InvalidDuration", func(t *testing.T) {
		t.Chdir(t.TempDir())
		setEnv("LOCATOR_TIMEOUT", "soon")

		if _, err := NewFromEnv(); err == nil {
			t.Fatal("Expected an error for LOCATOR_TIMEOUT=soon, got nil")
		}
	})
}

func TestRequireGemini(t *testing.T) {
	cfg := &Config{}
	err := cfg.RequireGemini()
	if err == nil {
		t.Fatal("Expected an error for missing GEMINI_API_KEY, got nil")
	}
	expectedError := "GEMINI_API_KEY environment variable not set"
	if err.Error() != expectedError {
		t.Errorf("Expected error '%s', got '%s'", expectedError, err.Error())
	}

	cfg.GeminiAPIKey = "key"
	if err := cfg.RequireGemini(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}

func TestRequireGhost(t *testing.T) {
	cfg := &Config{GhostURL: "http://ghost.test"}
	err := cfg.RequireGhost()
	if err == nil {
		t.Fatal("Expected an error for missing GHOST_ADMIN_API_KEY, got nil")
	}
	expectedError := "GHOST_ADMIN_API_KEY environment variable not set"
	if err.Error() != expectedError {
		t.Errorf("Expected error '%s', got '%s'", expectedError, err.Error())
	}
}
