package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{" error ", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("bad log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestLogger_ComponentStampedOnce(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Format: "json", Output: &buf, Component: ComponentStorage})

	logger.WithComponent(ComponentAMQP).Info("published", "id", "a")

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("got %d lines", len(lines))
	}
	if lines[0][FieldComponent] != ComponentAMQP || lines[0]["id"] != "a" {
		t.Errorf("line = %v", lines[0])
	}
	if strings.Count(buf.String(), `"component"`) != 1 {
		t.Errorf("component repeated: %s", buf.String())
	}
}

func TestLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelWarn, Format: "text", Output: &buf})

	logger.Info("hidden")
	logger.Warn("shown")

	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestLogFields(t *testing.T) {
	fields := NewFields().
		WithComponent(ComponentTransaction).
		WithOperation(OpCreate).
		WithTransaction("id-1", "expense", "12.50", "Food").
		WithError(errors.New("boom")).
		WithError(nil).
		WithRequestID("")

	if _, ok := fields[FieldRequestID]; ok {
		t.Error("empty request id should be skipped")
	}
	if fields[FieldError] != "boom" || fields[FieldAmount] != "12.50" {
		t.Errorf("fields = %v", fields)
	}

	slice := fields.ToSlice()
	if len(slice) != 2*len(fields) {
		t.Fatalf("slice = %v", slice)
	}
	for i := 2; i < len(slice); i += 2 {
		if slice[i-2].(string) > slice[i].(string) {
			t.Errorf("keys not sorted: %v", slice)
		}
	}
}

func TestFromContextDefault(t *testing.T) {
	l := FromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	if l == nil || l.Component() != "unknown" {
		t.Errorf("FromContext default = %+v", l)
	}
}

func TestMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Format: "json", Output: &buf})

	var seen *Logger
	handler := chimiddleware.RequestID(Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
		seen.InfoContext(r.Context(), "inside handler")
		w.WriteHeader(http.StatusTeapot)
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/transactions?page=2", nil))

	if seen == nil || seen == logger {
		t.Fatal("handler should see a request-scoped logger")
	}

	lines := decodeLines(t, &buf)
	if len(lines) != 3 {
		t.Fatalf("expected start, handler and completion lines, got %d: %s", len(lines), buf.String())
	}
	inside := lines[1]
	if inside[FieldRequestID] == "" || inside[FieldRequestID] == nil || inside[FieldPath] != "/api/transactions" {
		t.Errorf("handler line lacks request fields: %v", inside)
	}
	done := lines[2]
	if done["msg"] != "HTTP request completed" || done[FieldStatusCode] != float64(http.StatusTeapot) || done["level"] != "WARN" {
		t.Errorf("completion line = %v", done)
	}
	if done[FieldQuery] != "page=2" {
		t.Errorf("query not logged: %v", done)
	}
}

func TestMiddleware_DefaultStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: "json", Output: &buf})

	handler := Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/health", nil))

	lines := decodeLines(t, &buf)
	if len(lines) != 1 || lines[0][FieldStatusCode] != float64(http.StatusOK) {
		t.Errorf("lines = %v", lines)
	}
}

func TestComponentMiddleware(t *testing.T) {
	var got string
	base := New(DefaultConfig())
	handler := Middleware(base)(ComponentMiddleware(ComponentTransaction)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context()).Component()
	})))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got != ComponentTransaction {
		t.Errorf("component = %q", got)
	}
}
