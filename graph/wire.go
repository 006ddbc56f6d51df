package graph

import (
	"strings"
	"time"
)

// Wire shapes for the Graph REST endpoints. Kept minimal: only the fields the
// operations read or write.

type graphDateTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone,omitempty"`
}

type emailAddress struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
}

type recipient struct {
	EmailAddress emailAddress `json:"emailAddress"`
}

type attendee struct {
	Type         string       `json:"type,omitempty"`
	EmailAddress emailAddress `json:"emailAddress"`
}

type itemBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

type location struct {
	DisplayName string `json:"displayName"`
}

// eventPayload is the typed event body for both create and sparse update: nil
// fields stay off the wire, a pointer to the zero value clears the field.
type eventPayload struct {
	Subject   *string        `json:"subject,omitempty"`
	Body      *itemBody      `json:"body,omitempty"`
	Start     *graphDateTime `json:"start,omitempty"`
	End       *graphDateTime `json:"end,omitempty"`
	Location  *location      `json:"location,omitempty"`
	Attendees *[]attendee    `json:"attendees,omitempty"`
}

type rawEvent struct {
	ID          string        `json:"id"`
	Subject     string        `json:"subject"`
	BodyPreview string        `json:"bodyPreview,omitempty"`
	Start       graphDateTime `json:"start"`
	End         graphDateTime `json:"end"`
	Location    location      `json:"location"`
	Organizer   recipient     `json:"organizer"`
	Attendees   []attendee    `json:"attendees,omitempty"`
}

func (e *rawEvent) reshape() Event {
	loc := e.Location.DisplayName
	if loc == "" {
		loc = "No location"
	}
	out := Event{
		ID:        e.ID,
		Subject:   e.Subject,
		Start:     formatGraphTime(e.Start.DateTime),
		End:       formatGraphTime(e.End.DateTime),
		Location:  loc,
		Organizer: e.Organizer.EmailAddress.Address,
		Preview:   e.BodyPreview,
	}
	for _, a := range e.Attendees {
		if addr := a.EmailAddress.Address; addr != "" {
			out.Attendees = append(out.Attendees, addr)
		}
	}
	return out
}

const displayTimeFormat = "Mon, 02 Jan 2006 15:04"

// formatGraphTime converts a Graph date-time string (fractional seconds, no
// offset) into a display string; unrecognized values pass through unchanged.
func formatGraphTime(v string) string {
	if v == "" {
		return ""
	}
	for _, layout := range []string{"2006-01-02T15:04:05.9999999", time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Format(displayTimeFormat)
		}
	}
	return v
}

func toRecipients(addresses []string) []recipient {
	var out []recipient
	for _, a := range addresses {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, recipient{EmailAddress: emailAddress{Address: a}})
		}
	}
	return out
}

func toAttendees(addresses []string) []attendee {
	var out []attendee
	for _, a := range addresses {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, attendee{Type: "required", EmailAddress: emailAddress{Address: a}})
		}
	}
	return out
}
