// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != "info" {
		t.Errorf("expected default level 'info', got %q", cfg.Level)
	}

	if cfg.Format != FormatJSON {
		t.Errorf("expected default format 'json', got %q", cfg.Format)
	}

	if cfg.Output != os.Stderr {
		t.Errorf("expected default output to be os.Stderr")
	}

	if cfg.AddSource {
		t.Errorf("expected default AddSource to be false")
	}
}

func TestFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		expected *Config
	}{
		{
			name:    "defaults when no env vars",
			envVars: map[string]string{},
			expected: &Config{
				Level:  "info",
				Format: FormatJSON,
			},
		},
		{
			name: "LOG_LEVEL=debug",
			envVars: map[string]string{
				"LOG_LEVEL": "debug",
			},
			expected: &Config{
				Level:  "debug",
				Format: FormatJSON,
			},
		},
		{
			name: "TRACEKIT_LOG_LEVEL takes precedence over LOG_LEVEL",
			envVars: map[string]string{
				"TRACEKIT_LOG_LEVEL": "error",
				"LOG_LEVEL":          "debug",
			},
			expected: &Config{
				Level:  "error",
				Format: FormatJSON,
			},
		},
		{
			name: "TRACEKIT_DEBUG enables debug and source",
			envVars: map[string]string{
				"TRACEKIT_DEBUG": "1",
			},
			expected: &Config{
				Level:     "debug",
				Format:    FormatJSON,
				AddSource: true,
			},
		},
		{
			name: "LOG_FORMAT=text",
			envVars: map[string]string{
				"LOG_FORMAT": "TEXT",
			},
			expected: &Config{
				Level:  "info",
				Format: FormatText,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"TRACEKIT_DEBUG", "TRACEKIT_LOG_LEVEL", "LOG_LEVEL", "LOG_FORMAT", "LOG_SOURCE"} {
				t.Setenv(key, "")
				os.Unsetenv(key)
			}
			for key, val := range tt.envVars {
				t.Setenv(key, val)
			}

			cfg := FromEnv()

			if cfg.Level != tt.expected.Level {
				t.Errorf("expected level %q, got %q", tt.expected.Level, cfg.Level)
			}
			if cfg.Format != tt.expected.Format {
				t.Errorf("expected format %q, got %q", tt.expected.Format, cfg.Format)
			}
			if cfg.AddSource != tt.expected.AddSource {
				t.Errorf("expected AddSource %v, got %v", tt.expected.AddSource, cfg.AddSource)
			}
		})
	}
}

func TestNewJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{
		Level:  "info",
		Format: FormatJSON,
		Output: &buf,
	})

	logger.Info("scope popped", slog.String(ScopeTagKey, "inner"), slog.String(TransactionKey, "OrderController#create"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log output, got %q: %v", buf.String(), err)
	}
	if entry[ScopeTagKey] != "inner" {
		t.Errorf("expected %s field 'inner', got %v", ScopeTagKey, entry[ScopeTagKey])
	}
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{
		Level:  "warn",
		Format: FormatText,
		Output: &buf,
	})

	logger.Info("dropped")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("info message should have been filtered, got %q", out)
	}
	if !strings.Contains(out, "kept") {
		t.Errorf("warn message missing from output %q", out)
	}
}

func TestParseLevelFallback(t *testing.T) {
	if got := parseLevel("nonsense"); got != slog.LevelInfo {
		t.Errorf("expected fallback to info, got %v", got)
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "info", Format: FormatJSON, Output: &buf})

	WithComponent(logger, "tracker").Info("hello")

	if !strings.Contains(buf.String(), `"component":"tracker"`) {
		t.Errorf("expected component field in output, got %q", buf.String())
	}
}
