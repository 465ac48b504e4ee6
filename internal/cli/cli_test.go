package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pfrederiksen/sports-calendar/internal/calendar"
	"github.com/pfrederiksen/sports-calendar/internal/config"
	"github.com/pfrederiksen/sports-calendar/internal/event"
	"github.com/pfrederiksen/sports-calendar/internal/pipeline"
	"github.com/pfrederiksen/sports-calendar/internal/schedule"
	"github.com/pfrederiksen/sports-calendar/internal/server"
)

const page = `<html><body>
<p>Sat, Nov 14</p><p>UFC 323: Alpha vs. Beta</p><p>10:00 PM</p><p>T-Mobile Arena</p>
<p>Sat, Dec 12</p><p>UFC 324: Gamma vs. Delta</p><p>8:00 PM</p><p>Madison Square Garden</p>
</body></html>`

func fixNow(t *testing.T) {
	t.Helper()
	prev := now
	now = func() time.Time { return time.Date(2026, time.November, 1, 17, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { now = prev })
}

func staticCount(t *testing.T) int {
	t.Helper()
	records, err := schedule.Load()
	if err != nil {
		t.Fatalf("schedule.Load() error: %v", err)
	}
	return len(records)
}

func writeConfig(t *testing.T, sourceURL string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := fmt.Sprintf("source:\n  url: %s\n  timeout: 2s\n", sourceURL)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCmd(t *testing.T) {
	fixNow(t)
	source := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer source.Close()

	output := filepath.Join(t.TempDir(), "master.ics")
	stdout, err := runRoot(t, "--config", writeConfig(t, source.URL), "--output", output)
	if err != nil {
		t.Fatalf("root command error: %v", err)
	}

	want := fmt.Sprintf("Calendar written to %s (%d events)\n", output, staticCount(t)+2)
	if stdout != want {
		t.Errorf("stdout = %q, want %q", stdout, want)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("calendar not written: %v", err)
	}
	in, err := calendar.Inspect(string(data))
	if err != nil {
		t.Fatalf("written calendar invalid: %v", err)
	}
	if in.Events != staticCount(t)+2 {
		t.Errorf("calendar holds %d events, want %d", in.Events, staticCount(t)+2)
	}
	if !strings.Contains(string(data), "SUMMARY:UFC 324: Gamma vs. Delta\r\n") {
		t.Error("scraped event missing from calendar")
	}
}

func TestRootCmd_SourceUnreachable(t *testing.T) {
	fixNow(t)
	source := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := source.URL
	source.Close()

	output := filepath.Join(t.TempDir(), "master.ics")
	stdout, err := runRoot(t, "--config", writeConfig(t, url), "--output", output, "--format", "json")
	if err != nil {
		t.Fatalf("an unreachable source must not fail the run: %v", err)
	}

	var result struct {
		Path        string `json:"path"`
		Events      int    `json:"events"`
		Placeholder bool   `json:"placeholder"`
		Failure     string `json:"failure"`
	}
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, stdout)
	}
	if result.Path != output || !result.Placeholder || result.Events != staticCount(t)+1 {
		t.Errorf("result = %+v, want placeholder run with %d events", result, staticCount(t)+1)
	}
}

func TestRootCmd_Errors(t *testing.T) {
	fixNow(t)
	dir := t.TempDir()
	badConfig := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(badConfig, []byte("policy:\n  rollover_months: 40\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	unreachable := writeConfig(t, "http://127.0.0.1:1")

	tests := []struct {
		name  string
		args  []string
		check func(error) bool
	}{
		{
			name:  "invalid format",
			args:  []string{"--format", "xml"},
			check: func(err error) bool { return strings.Contains(err.Error(), "invalid format") },
		},
		{
			name:  "invalid config",
			args:  []string{"--config", badConfig},
			check: func(err error) bool { return errors.Is(err, config.ErrInvalid) },
		},
		{
			name:  "missing config",
			args:  []string{"--config", filepath.Join(dir, "absent.yaml")},
			check: func(err error) bool { return errors.Is(err, os.ErrNotExist) },
		},
		{
			name: "unwritable output",
			args: []string{"--config", unreachable, "--output", filepath.Join(dir, "missing", "master.ics")},
			check: func(err error) bool {
				var werr *calendar.WriteError
				return errors.As(err, &werr)
			},
		},
		{
			name:  "unexpected argument",
			args:  []string{"extra"},
			check: func(err error) bool { return err != nil },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runRoot(t, tt.args...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !tt.check(err) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestWriteOutput(t *testing.T) {
	doc := &pipeline.Document{
		Events:     5,
		Static:     3,
		Dynamic:    2,
		Stats:      event.Stats{Seen: 4, Kept: 2, Dropped: map[string]int{event.DropStale: 1, event.DropBadTime: 1}},
		ByCategory: map[string]int{"UFC": 2, "Formula 1": 3},
	}
	result := &OutputResult{Path: "master.ics", Document: doc}

	tests := []struct {
		name    string
		format  OutputFormat
		verbose bool
		want    []string
	}{
		{
			name:   "text",
			format: FormatText,
			want:   []string{"Calendar written to master.ics (5 events)\n"},
		},
		{
			name:    "verbose text",
			format:  FormatText,
			verbose: true,
			want: []string{
				"Calendar written to master.ics (5 events)\n",
				"  Formula 1: 3\n  UFC: 2\n",
				"  Candidates: 4 seen, 2 kept\n",
				"  Dropped (bad_time): 1\n  Dropped (stale): 1\n",
			},
		},
		{
			name:   "json",
			format: FormatJSON,
			want:   []string{`"path": "master.ics"`, `"events": 5`, `"dynamic": 2`, `"stale": 1`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteOutput(&buf, result, tt.format, tt.verbose); err != nil {
				t.Fatalf("WriteOutput() error: %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("output missing %q:\n%s", want, buf.String())
				}
			}
		})
	}

	var line bytes.Buffer
	if err := WriteOutput(&line, result, FormatText, false); err != nil {
		t.Fatalf("WriteOutput() error: %v", err)
	}
	if strings.Count(line.String(), "\n") != 1 {
		t.Errorf("text output should be a single line: %q", line.String())
	}

	if err := WriteOutput(&bytes.Buffer{}, result, OutputFormat("yaml"), false); err == nil {
		t.Error("WriteOutput() expected error for unknown format")
	}
}

func TestRefresher(t *testing.T) {
	fixNow(t)
	cfg := config.Default()
	cfg.Source.URL = "http://127.0.0.1:1"
	cfg.Output = filepath.Join(t.TempDir(), "master.ics")

	p, err := newPipeline(cfg, nil)
	if err != nil {
		t.Fatalf("newPipeline() error: %v", err)
	}
	srv := server.New(nil)

	newRefresher(context.Background(), cfg, p, srv)()

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/calendar.ics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("calendar not published: status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "UFC schedule temporarily unavailable") {
		t.Error("published calendar should carry the placeholder")
	}

	// a failed write keeps the previous calendar
	cfg.Output = filepath.Join(t.TempDir(), "gone", "master.ics")
	before := rec.Body.String()
	newRefresher(context.Background(), cfg, p, srv)()

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/calendar.ics", nil))
	if rec.Body.String() != before {
		t.Error("calendar should not change after a failed write")
	}
}
