package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pfrederiksen/sports-calendar/internal/calendar"
	"github.com/pfrederiksen/sports-calendar/internal/event"
	"github.com/pfrederiksen/sports-calendar/internal/schedule"
)

// Writes an offline sample calendar: the season tables plus one made-up UFC
// event, so calendar apps can be checked without hitting the schedule page.
func main() {
	records, err := schedule.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading season tables: %v\n", err)
		os.Exit(1)
	}

	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading timezone: %v\n", err)
		os.Exit(1)
	}
	sample := event.NewTimed("UFC 999: Sample, Main Event; Prelims", time.Date(2026, time.February, 28, 19, 0, 0, 0, ny),
		event.DefaultDuration, "T-Mobile Arena, Las Vegas, NV", "UFC").WithDescription("Sample event\nnot a real fight card")
	records = append(records, sample)

	icsContent := calendar.NewEmitter(calendar.WithName("Sports Calendar (sample)")).Calendar(records, 0)

	in, err := calendar.Inspect(icsContent)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Generated calendar is invalid: %v\n", err)
		os.Exit(1)
	}

	filename := "test-calendar.ics"
	if err := calendar.WriteFile(filename, icsContent); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Generated calendar file: %s (%d events, %d all-day)\n\n", filename, in.Events, in.AllDay)
	fmt.Println("Test it by:")
	fmt.Println("1. Open the .ics file with your calendar app (double-click)")
	fmt.Println("2. Or import it into Google Calendar, Apple Calendar, or Outlook")
	fmt.Println("\nSample event block:")
	fmt.Println("---")
	blocks := strings.Split(icsContent, "BEGIN:VEVENT")
	fmt.Print("BEGIN:VEVENT" + blocks[len(blocks)-1])
}
