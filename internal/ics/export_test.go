package ics

import (
	"strings"
	"testing"
	"time"

	"github.com/example/family-scheduler/internal/application"
)

func TestExportRendersEvents(t *testing.T) {
	msk := time.FixedZone("MSK", 3*60*60)
	events := []application.Event{
		{
			ID:              7,
			Title:           "Плавание",
			Start:           time.Date(2026, time.January, 10, 10, 0, 0, 0, msk),
			DurationMinutes: 60,
			Category:        application.CategoryPersonal,
			Status:          application.StatusConfirmed,
			CreatedAt:       time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC),
		},
	}

	feed := Export(events)

	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"END:VCALENDAR",
		"BEGIN:VEVENT",
		"UID:famcal-event-7",
		"SUMMARY:Плавание",
		"METHOD:PUBLISH",
	} {
		if !strings.Contains(feed, want) {
			t.Errorf("feed missing %q:\n%s", want, feed)
		}
	}
	if !strings.Contains(feed, "DTSTART:20260110T070000Z") {
		t.Errorf("start should be serialized in UTC:\n%s", feed)
	}
	if !strings.Contains(feed, "DTEND:20260110T080000Z") {
		t.Errorf("end should cover the 60 minute slot:\n%s", feed)
	}
}

func TestExportEmpty(t *testing.T) {
	feed := Export(nil)
	if !strings.Contains(feed, "BEGIN:VCALENDAR") || strings.Contains(feed, "BEGIN:VEVENT") {
		t.Fatalf("an empty export is a bare calendar:\n%s", feed)
	}
}
