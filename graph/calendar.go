package graph

import (
	"context"
	neturl "net/url"
	"strconv"
	"strings"
)

// CalendarService exposes the calendar operations over the shared gateway.
type CalendarService struct{ client *Client }

func NewCalendarService(c *Client) *CalendarService { return &CalendarService{client: c} }

const eventSelect = "id,subject,start,end,location,organizer,attendees,bodyPreview"

// List returns the events inside the requested window, preserving remote order.
func (s *CalendarService) List(ctx context.Context, in *ListEventsInput) (*ListEventsOutput, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	top := in.Top
	if top <= 0 {
		top = 10
	}
	q := neturl.Values{}
	q.Set("startDateTime", in.StartISO)
	q.Set("endDateTime", in.EndISO)
	q.Set("$top", strconv.Itoa(top))
	q.Set("$orderby", "start/dateTime")
	q.Set("$select", eventSelect)
	var payload struct {
		Value []rawEvent `json:"value"`
	}
	if err := s.client.Get(ctx, "/me/calendarView", q, &payload); err != nil {
		return nil, err
	}
	out := &ListEventsOutput{}
	for i := range payload.Value {
		out.Events = append(out.Events, payload.Value[i].reshape())
	}
	return out, nil
}

func (s *CalendarService) Create(ctx context.Context, in *CreateEventInput) (*Event, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	tz := in.TimeZone
	if tz == "" {
		tz = "UTC"
	}
	payload := &eventPayload{
		Subject: &in.Subject,
		Start:   &graphDateTime{DateTime: in.StartISO, TimeZone: tz},
		End:     &graphDateTime{DateTime: in.EndISO, TimeZone: tz},
	}
	if in.Location != "" {
		payload.Location = &location{DisplayName: in.Location}
	}
	if in.BodyText != "" {
		payload.Body = &itemBody{ContentType: "Text", Content: in.BodyText}
	}
	if len(in.Attendees) > 0 {
		attendees := toAttendees(in.Attendees)
		payload.Attendees = &attendees
	}
	var created rawEvent
	if err := s.client.Post(ctx, "/me/events", payload, &created); err != nil {
		return nil, err
	}
	ev := created.reshape()
	return &ev, nil
}

// Update applies a sparse patch: only fields present on the input reach the
// wire, and a present-but-empty field clears the remote value.
func (s *CalendarService) Update(ctx context.Context, in *UpdateEventInput) (*Event, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	tz := "UTC"
	if in.TimeZone != nil && *in.TimeZone != "" {
		tz = *in.TimeZone
	}
	payload := &eventPayload{Subject: in.Subject}
	if in.StartISO != nil {
		payload.Start = &graphDateTime{DateTime: *in.StartISO, TimeZone: tz}
	}
	if in.EndISO != nil {
		payload.End = &graphDateTime{DateTime: *in.EndISO, TimeZone: tz}
	}
	if in.Location != nil {
		payload.Location = &location{DisplayName: *in.Location}
	}
	if in.BodyText != nil {
		payload.Body = &itemBody{ContentType: "Text", Content: *in.BodyText}
	}
	if in.Attendees != nil {
		attendees := toAttendees(*in.Attendees)
		if attendees == nil {
			attendees = []attendee{}
		}
		payload.Attendees = &attendees
	}
	var updated rawEvent
	if err := s.client.Patch(ctx, "/me/events/"+neturl.PathEscape(in.EventID), payload, &updated); err != nil {
		return nil, err
	}
	ev := updated.reshape()
	return &ev, nil
}

func (s *CalendarService) Delete(ctx context.Context, in *DeleteEventInput) error {
	if err := validateInput(in); err != nil {
		return err
	}
	return s.client.Delete(ctx, "/me/events/"+neturl.PathEscape(in.EventID))
}

// AddAttendees merges new attendees into an existing event. Graph has no
// native append: the current event is fetched, attendees are unioned by
// lower-cased email address and the full list goes back as a replace-style
// patch. When every proposed address is already present the event is returned
// unchanged and no update is issued.
func (s *CalendarService) AddAttendees(ctx context.Context, in *AddAttendeesInput) (*Event, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	path := "/me/events/" + neturl.PathEscape(in.EventID)
	var current rawEvent
	if err := s.client.Get(ctx, path, nil, &current); err != nil {
		return nil, err
	}
	merged, added := mergeAttendees(current.Attendees, in.Attendees)
	if added == 0 {
		ev := current.reshape()
		return &ev, nil
	}
	var updated rawEvent
	if err := s.client.Patch(ctx, path, &eventPayload{Attendees: &merged}, &updated); err != nil {
		return nil, err
	}
	ev := updated.reshape()
	return &ev, nil
}

// mergeAttendees unions existing and proposed attendees, deduplicating by
// lower-cased email address only.
func mergeAttendees(existing []attendee, proposed []string) ([]attendee, int) {
	merged := append([]attendee(nil), existing...)
	seen := make(map[string]bool, len(existing))
	for _, a := range existing {
		if addr := strings.ToLower(a.EmailAddress.Address); addr != "" {
			seen[addr] = true
		}
	}
	added := 0
	for _, raw := range proposed {
		addr := strings.TrimSpace(raw)
		key := strings.ToLower(addr)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, attendee{Type: "required", EmailAddress: emailAddress{Address: addr}})
		added++
	}
	return merged, added
}
