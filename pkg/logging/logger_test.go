package logging

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != "info" {
		t.Errorf("Level = %q, want info", cfg.Level)
	}
	if cfg.Pretty {
		t.Error("Pretty = true, want false")
	}
	if cfg.Output != os.Stderr {
		t.Error("Output should default to stderr")
	}
}

func TestSetup(t *testing.T) {
	tests := []struct {
		name  string
		level string
		log   func(l zerolog.Logger, msg string)
	}{
		{name: "debug", level: "debug", log: func(l zerolog.Logger, msg string) { l.Debug().Msg(msg) }},
		{name: "info", level: "info", log: func(l zerolog.Logger, msg string) { l.Info().Msg(msg) }},
		{name: "warn", level: "warn", log: func(l zerolog.Logger, msg string) { l.Warn().Msg(msg) }},
		{name: "error", level: "error", log: func(l zerolog.Logger, msg string) { l.Error().Msg(msg) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := Setup(Config{Level: tt.level, Output: buf})

			tt.log(logger, "region loaded")

			output := buf.String()
			if !strings.Contains(output, "region loaded") {
				t.Errorf("output = %q, want it to contain the message", output)
			}
			if !strings.Contains(output, `"level":"`+tt.level+`"`) {
				t.Errorf("output = %q, want level %s", output, tt.level)
			}
		})
	}
}

func TestSetup_Pretty(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := Setup(Config{Level: "info", Pretty: true, Output: buf})

	logger.Info().Str("query", "11110101").Msg("Loading cadastral region")

	output := buf.String()
	if strings.HasPrefix(output, "{") {
		t.Errorf("pretty output should not be JSON, got %q", output)
	}
	for _, want := range []string{"Loading cadastral region", "query", "11110101"} {
		if !strings.Contains(output, want) {
			t.Errorf("output = %q, want it to contain %q", output, want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"WARNING", zerolog.WarnLevel},
		{" error ", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"invalid", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{
		Level:  "info",
		Pretty: false,
		Output: buf,
	})

	logger := NewLogger("test-component")
	logger.Info().Msg("test message")

	output := buf.String()
	if !strings.Contains(output, "test-component") {
		t.Errorf("Expected output to contain 'test-component', got %q", output)
	}
	if !strings.Contains(output, "test message") {
		t.Errorf("Expected output to contain 'test message', got %q", output)
	}
}

func TestLogLevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{
		Level:  "warn",
		Pretty: false,
		Output: buf,
	})

	logger := NewLogger("test")

	// These should NOT appear (below warn level)
	logger.Debug().Msg("debug message")
	logger.Info().Msg("info message")

	// These SHOULD appear (warn level and above)
	logger.Warn().Msg("warn message")
	logger.Error().Msg("error message")

	output := buf.String()

	if strings.Contains(output, "debug message") {
		t.Error("Debug message should be filtered out at Warn level")
	}
	if strings.Contains(output, "info message") {
		t.Error("Info message should be filtered out at Warn level")
	}
	if !strings.Contains(output, "warn message") {
		t.Error("Warn message should be included at Warn level")
	}
	if !strings.Contains(output, "error message") {
		t.Error("Error message should be included at Warn level")
	}
}

func TestRequestLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{
		Level:  "info",
		Pretty: false,
		Output: buf,
	})

	handler := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/regions/11110101", nil))

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadGateway)
	}

	output := buf.String()
	for _, want := range []string{`"path":"/regions/11110101"`, `"status":502`, `"level":"warn"`, `"component":"server"`} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected output to contain %s, got %q", want, output)
		}
	}
}

func TestRequestLogger_DefaultStatus(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{
		Level:  "info",
		Pretty: false,
		Output: buf,
	})

	handler := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	if !strings.Contains(buf.String(), `"status":200`) {
		t.Errorf("Expected status 200 in output, got %q", buf.String())
	}
}

func TestOptionsSetup(t *testing.T) {
	Options{Level: "warn"}.Setup()
	if got := zerolog.GlobalLevel(); got != zerolog.WarnLevel {
		t.Errorf("GlobalLevel() = %v, want %v", got, zerolog.WarnLevel)
	}

	Options{Level: "debug", Pretty: true}.Setup()
	if got := zerolog.GlobalLevel(); got != zerolog.DebugLevel {
		t.Errorf("GlobalLevel() = %v, want %v", got, zerolog.DebugLevel)
	}
}
