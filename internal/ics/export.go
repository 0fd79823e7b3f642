// Package ics renders a slice of calendar events as an iCalendar feed.
package ics

import (
	"fmt"

	ical "github.com/arran4/golang-ical"

	"github.com/example/family-scheduler/internal/application"
)

const productID = "-//family-scheduler//famcal//RU"

// Export serializes events into a VCALENDAR payload. Event ids become the
// VEVENT UIDs so re-exports stay stable.
func Export(events []application.Event) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	for _, event := range events {
		ve := cal.AddEvent(fmt.Sprintf("famcal-event-%d", event.ID))
		ve.SetSummary(event.Title)
		ve.SetStartAt(event.Start)
		ve.SetEndAt(event.End())
		ve.SetDtStampTime(event.CreatedAt)
		ve.SetDescription(fmt.Sprintf("category: %s, status: %s", event.Category, event.Status))
	}

	return cal.Serialize()
}
