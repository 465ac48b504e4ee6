package schedule

import (
	"strings"
	"testing"
	"testing/fstest"
	"time"
)

func TestLoad(t *testing.T) {
	records, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	perSeries := map[string]int{}
	for i, rec := range records {
		perSeries[rec.Category]++

		if i > 0 && rec.Start.Before(records[i-1].Start) {
			t.Errorf("records not sorted: %q before %q", records[i-1].Title, rec.Title)
		}
		if rec.Start.Year() != 2026 {
			t.Errorf("%q starts in %d, want 2026", rec.Title, rec.Start.Year())
		}
		if rec.Venue == "" {
			t.Errorf("%q has no venue", rec.Title)
		}
	}

	want := map[string]int{"Formula 1": 24, "MotoGP": 22, "IndyCar": 16}
	for series, n := range want {
		if perSeries[series] != n {
			t.Errorf("%s has %d records, want %d", series, perSeries[series], n)
		}
	}

	if first := records[0].Title; first != "MotoGP: Thai Grand Prix" {
		t.Errorf("first record = %q, want MotoGP: Thai Grand Prix", first)
	}
}

func TestLoad_Shapes(t *testing.T) {
	records, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	for _, rec := range records {
		switch rec.Category {
		case "Formula 1", "MotoGP":
			if !rec.AllDay {
				t.Errorf("%q should be all-day", rec.Title)
			}
			if rec.End.Before(rec.Start) {
				t.Errorf("%q ends before it starts", rec.Title)
			}
		case "IndyCar":
			if rec.AllDay {
				t.Errorf("%q should be timed", rec.Title)
			}
			if !strings.HasPrefix(rec.Title, "IndyCar: ") {
				t.Errorf("%q should carry the series label", rec.Title)
			}
		}
	}
}

func TestLoad_Indianapolis500(t *testing.T) {
	records, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	for _, rec := range records {
		if rec.Title != "IndyCar: Indianapolis 500" {
			continue
		}
		wantStart := time.Date(2026, time.May, 24, 16, 45, 0, 0, time.UTC)
		if !rec.Start.Equal(wantStart) {
			t.Errorf("start = %v, want %v", rec.Start.UTC(), wantStart)
		}
		if rec.Duration() != 4*time.Hour {
			t.Errorf("duration = %v, want 4h", rec.Duration())
		}
		return
	}
	t.Error("Indianapolis 500 not found")
}

func TestDecode(t *testing.T) {
	data := []byte(`
series: Test Series
label: TS
events:
  - title: "  Opening Round "
    venue: Circuit A
    start: "2026-04-03"
    end: "2026-04-05"
  - title: Night Race
    start: "2026-04-11"
    time: "20:00"
    timezone: Europe/London
  - title: Sprint
    start: "2026-04-18"
`)

	records, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Decode() returned %d records, want 3", len(records))
	}

	opening := records[0]
	if opening.Title != "TS: Opening Round" || opening.Category != "Test Series" || opening.Venue != "Circuit A" {
		t.Errorf("opening round = %+v", opening)
	}
	if !opening.AllDay || opening.End.Day() != 5 {
		t.Errorf("opening round should be all-day through the 5th: %+v", opening)
	}

	night := records[1]
	if night.AllDay {
		t.Error("night race should be timed")
	}
	if want := time.Date(2026, time.April, 11, 19, 0, 0, 0, time.UTC); !night.Start.Equal(want) {
		t.Errorf("night race start = %v, want %v (BST)", night.Start.UTC(), want)
	}
	if night.Duration() != 5*time.Hour {
		t.Errorf("night race duration = %v, want the 5h default", night.Duration())
	}

	sprint := records[2]
	if !sprint.AllDay || !sprint.End.Equal(sprint.Start) {
		t.Errorf("entry without end should be a single day: %+v", sprint)
	}
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{
			name:    "not yaml",
			data:    "series: [unclosed",
			wantErr: "decoding",
		},
		{
			name:    "missing series name",
			data:    "label: X\nevents:\n  - {title: A, start: \"2026-01-01\"}\n",
			wantErr: "validating",
		},
		{
			name:    "no events",
			data:    "series: X\nlabel: X\nevents: []\n",
			wantErr: "validating",
		},
		{
			name:    "bad date",
			data:    "series: X\nlabel: X\nevents:\n  - {title: A, start: \"2026-02-30\"}\n",
			wantErr: "validating",
		},
		{
			name:    "bad timezone",
			data:    "series: X\nlabel: X\nevents:\n  - {title: A, start: \"2026-02-01\", time: \"10:00\", timezone: Mars/Olympus}\n",
			wantErr: "validating",
		},
		{
			name:    "negative duration",
			data:    "series: X\nlabel: X\nevents:\n  - {title: A, start: \"2026-02-01\", time: \"10:00\", timezone: UTC, duration: -1h}\n",
			wantErr: "validating",
		},
		{
			name:    "end before start",
			data:    "series: X\nlabel: X\nevents:\n  - {title: A, start: \"2026-02-03\", end: \"2026-02-01\"}\n",
			wantErr: "before start",
		},
		{
			name:    "time without timezone",
			data:    "series: X\nlabel: X\nevents:\n  - {title: A, start: \"2026-02-01\", time: \"10:00\"}\n",
			wantErr: "needs a timezone",
		},
		{
			name:    "time with end date",
			data:    "series: X\nlabel: X\nevents:\n  - {title: A, start: \"2026-02-01\", end: \"2026-02-02\", time: \"10:00\", timezone: UTC}\n",
			wantErr: "cannot have an end date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			if err == nil {
				t.Fatal("Decode() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Decode() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"tables/b.yaml": {Data: []byte("series: B\nlabel: B\nevents:\n  - {title: Early, start: \"2026-01-05\"}\n")},
		"tables/a.yaml": {Data: []byte("series: A\nlabel: A\nevents:\n  - {title: Late, start: \"2026-06-05\"}\n")},
		"tables/notes.txt": {Data: []byte("ignored")},
	}

	records, err := LoadFS(fsys, "tables")
	if err != nil {
		t.Fatalf("LoadFS() error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("LoadFS() returned %d records, want 2", len(records))
	}
	if records[0].Title != "B: Early" || records[1].Title != "A: Late" {
		t.Errorf("records not ordered by start: %q, %q", records[0].Title, records[1].Title)
	}
}

func TestLoadFS_BadTable(t *testing.T) {
	fsys := fstest.MapFS{
		"tables/broken.yaml": {Data: []byte("series: X\n")},
	}

	_, err := LoadFS(fsys, "tables")
	if err == nil || !strings.Contains(err.Error(), "broken.yaml") {
		t.Errorf("LoadFS() error = %v, want it to name the table", err)
	}
}
