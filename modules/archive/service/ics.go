package service

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-huddle/modules/event/entity"
)

const ICSProductID = "-//Huddle//Group Availability//EN"

var ErrNotLocked = errors.New("event has no locked slot")

// BuildICS renders the locked slot as a single VEVENT in floating local time.
func BuildICS(ev *entity.Event, stamp time.Time) ([]byte, error) {
	if ev == nil || !ev.IsLocked || ev.LockedSlot == nil {
		return nil, ErrNotLocked
	}

	day, err := ev.LockedSlot.Date.Time()
	if err != nil {
		return nil, fmt.Errorf("locked slot date: %w", err)
	}
	minutes := ev.LockedSlot.Time.Minutes()
	if minutes < 0 {
		return nil, fmt.Errorf("locked slot time %q is not a known label", ev.LockedSlot.Time)
	}
	start := day.Add(time.Duration(minutes) * time.Minute)
	end := start.Add(entity.SlotMinutes * time.Minute)

	var b bytes.Buffer
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteString("\r\n")
	}

	line("BEGIN:VCALENDAR")
	line("VERSION:2.0")
	line("PRODID:%s", ICSProductID)
	line("CALSCALE:GREGORIAN")
	line("METHOD:PUBLISH")
	line("BEGIN:VEVENT")
	// stable per event so re-exports update the same calendar entry
	line("UID:%s@huddle", ev.ID)
	line("DTSTAMP:%s", stamp.UTC().Format("20060102T150405Z"))
	line("DTSTART:%s", start.Format("20060102T150405"))
	line("DTEND:%s", end.Format("20060102T150405"))
	line("SUMMARY:%s", escapeText(ev.Title))
	if ev.Description != "" {
		line("DESCRIPTION:%s", escapeText(ev.Description))
	}
	if ev.Logistics.Location != "" {
		line("LOCATION:%s", escapeText(ev.Logistics.Location))
	}
	if creator, ok := ev.Member(ev.CreatorID); ok && creator.Email != "" {
		line("ORGANIZER;CN=%s:mailto:%s", escapeParam(creator.Name), creator.Email)
	}
	for _, m := range ev.Members {
		if m.Email == "" || m.ID == ev.CreatorID {
			continue
		}
		line("ATTENDEE;CN=%s:mailto:%s", escapeParam(m.Name), m.Email)
	}
	line("END:VEVENT")
	line("END:VCALENDAR")

	return b.Bytes(), nil
}

var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	";", `\;`,
	",", `\,`,
	"\r\n", `\n`,
	"\n", `\n`,
)

func escapeText(s string) string {
	return textEscaper.Replace(s)
}

// escapeParam quotes a parameter value when it holds a delimiter.
func escapeParam(s string) string {
	s = strings.ReplaceAll(s, `"`, "'")
	if strings.ContainsAny(s, ";:,") {
		return `"` + s + `"`
	}
	return s
}
