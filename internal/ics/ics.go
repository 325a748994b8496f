// Package ics converts calendar events to and from iCalendar streams.
package ics

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"

	"github.com/mycelian/calendar-sync/state/calendar"
)

const productID = "-//calendar-sync//calendarctl//ES"

// ErrNoStart is returned by Import for a VEVENT without DTSTART.
var ErrNoStart = errors.New("ics: event without DTSTART")

// Export writes events as a single VCALENDAR. Persisted events keep their
// id as UID.
func Export(w io.Writer, events []calendar.Event, now time.Time) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)

	for _, ev := range events {
		ve := ical.NewEvent()
		uid := ev.ID
		if uid == "" {
			uid = fmt.Sprintf("draft-%d@calendar-sync", ev.Start.UnixNano())
		}
		ve.Props.SetText(ical.PropUID, uid)
		ve.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
		ve.Props.SetDateTime(ical.PropDateTimeStart, ev.Start.UTC())
		ve.Props.SetDateTime(ical.PropDateTimeEnd, ev.End.UTC())
		ve.Props.SetText(ical.PropSummary, ev.Title)
		if ev.Notes != "" {
			ve.Props.SetText(ical.PropDescription, ev.Notes)
		}
		cal.Children = append(cal.Children, ve.Component)
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("ics: encode: %w", err)
	}
	return nil
}

// Import reads every VEVENT from r as a draft. UIDs are dropped: imported
// events get fresh ids once they are saved.
func Import(r io.Reader) ([]calendar.Event, error) {
	dec := ical.NewDecoder(r)
	var out []calendar.Event
	for {
		cal, err := dec.Decode()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("ics: decode: %w", err)
		}
		for i, ve := range cal.Events() {
			ev, err := fromVEvent(ve)
			if err != nil {
				return nil, fmt.Errorf("ics: event %d: %w", i, err)
			}
			out = append(out, ev)
		}
	}
}

func fromVEvent(ve ical.Event) (calendar.Event, error) {
	if ve.Props.Get(ical.PropDateTimeStart) == nil {
		return calendar.Event{}, ErrNoStart
	}
	start, err := ve.DateTimeStart(time.UTC)
	if err != nil {
		return calendar.Event{}, err
	}
	end, err := ve.DateTimeEnd(time.UTC)
	if err != nil {
		return calendar.Event{}, err
	}
	if end.IsZero() {
		end = start
	}
	title, err := ve.Props.Text(ical.PropSummary)
	if err != nil {
		return calendar.Event{}, err
	}
	notes, err := ve.Props.Text(ical.PropDescription)
	if err != nil {
		return calendar.Event{}, err
	}
	return calendar.Event{Title: title, Notes: notes, Start: start.UTC(), End: end.UTC()}, nil
}
