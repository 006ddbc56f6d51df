package graph

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"
)

func newCalendarFixture(t *testing.T, handler http.HandlerFunc) *CalendarService {
	t.Helper()
	client, _ := newTestClient(t, handler, &scriptedTokens{tokens: []string{"tok-1"}})
	return NewCalendarService(client)
}

func Test_ListEvents(t *testing.T) {
	var gotQuery map[string]string
	svc := newCalendarFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/me/calendarView" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"value":[
			{"id":"e1","subject":"Standup","start":{"dateTime":"2025-03-03T09:00:00.0000000"},"end":{"dateTime":"2025-03-03T09:15:00.0000000"},"location":{"displayName":"Room 4"},"organizer":{"emailAddress":{"address":"boss@example.com"}}},
			{"id":"e2","subject":"Planning","start":{"dateTime":"2025-03-03T10:00:00.0000000"},"end":{"dateTime":"2025-03-03T11:00:00.0000000"},"location":{"displayName":""},"attendees":[{"emailAddress":{"address":"a@example.com"}},{"emailAddress":{"address":"b@example.com"}}]},
			{"id":"e3","subject":"1:1","start":{"dateTime":"2025-03-03T13:30:00.0000000"},"end":{"dateTime":"2025-03-03T14:00:00.0000000"},"location":{"displayName":"Teams"}}
		]}`))
	})

	out, err := svc.List(context.Background(), &ListEventsInput{StartISO: "2025-03-03T00:00:00Z", EndISO: "2025-03-04T00:00:00Z"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if gotQuery["startDateTime"] != "2025-03-03T00:00:00Z" || gotQuery["endDateTime"] != "2025-03-04T00:00:00Z" {
		t.Fatalf("unexpected window: %v", gotQuery)
	}
	if gotQuery["$top"] != "10" || gotQuery["$orderby"] != "start/dateTime" {
		t.Fatalf("unexpected paging query: %v", gotQuery)
	}
	if len(out.Events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(out.Events))
	}
	// remote order is preserved
	if out.Events[0].ID != "e1" || out.Events[1].ID != "e2" || out.Events[2].ID != "e3" {
		t.Fatalf("order changed: %+v", out.Events)
	}
	if out.Events[0].Start != "Mon, 03 Mar 2025 09:00" {
		t.Fatalf("unexpected start display: %q", out.Events[0].Start)
	}
	if out.Events[0].Organizer != "boss@example.com" {
		t.Fatalf("unexpected organizer: %q", out.Events[0].Organizer)
	}
	if out.Events[1].Location != "No location" {
		t.Fatalf("expected location placeholder, got %q", out.Events[1].Location)
	}
	if len(out.Events[1].Attendees) != 2 {
		t.Fatalf("unexpected attendees: %v", out.Events[1].Attendees)
	}
}

func Test_ListEvents_requires_window(t *testing.T) {
	svc := newCalendarFixture(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("validation failures must not reach the remote endpoint")
	})
	_, err := svc.List(context.Background(), &ListEventsInput{StartISO: "2025-03-03T00:00:00Z"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func Test_CreateEvent(t *testing.T) {
	var got eventPayload
	svc := newCalendarFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/me/events" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		data, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(data, &got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"new-1","subject":"Review","start":{"dateTime":"2025-03-05T15:00:00.0000000"},"end":{"dateTime":"2025-03-05T16:00:00.0000000"},"location":{"displayName":"Room 2"}}`))
	})

	out, err := svc.Create(context.Background(), &CreateEventInput{
		Subject:   "Review",
		StartISO:  "2025-03-05T15:00:00",
		EndISO:    "2025-03-05T16:00:00",
		TimeZone:  "Europe/Berlin",
		Location:  "Room 2",
		Attendees: []string{"a@example.com"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if out.ID != "new-1" {
		t.Fatalf("unexpected event: %+v", out)
	}
	if got.Start == nil || got.Start.TimeZone != "Europe/Berlin" {
		t.Fatalf("unexpected start payload: %+v", got.Start)
	}
	if got.Attendees == nil || len(*got.Attendees) != 1 || (*got.Attendees)[0].EmailAddress.Address != "a@example.com" {
		t.Fatalf("unexpected attendees payload: %+v", got.Attendees)
	}
}

func Test_UpdateEvent_is_sparse(t *testing.T) {
	var raw map[string]json.RawMessage
	svc := newCalendarFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("unexpected method %s", r.Method)
		}
		data, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(data, &raw); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"e1","subject":"New title"}`))
	})

	subject := "New title"
	clearedLocation := ""
	_, err := svc.Update(context.Background(), &UpdateEventInput{
		EventID:  "e1",
		Subject:  &subject,
		Location: &clearedLocation,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, ok := raw["subject"]; !ok {
		t.Fatal("subject must be on the wire")
	}
	if _, ok := raw["location"]; !ok {
		t.Fatal("explicitly cleared location must be on the wire")
	}
	for _, absent := range []string{"start", "end", "body", "attendees"} {
		if _, ok := raw[absent]; ok {
			t.Fatalf("untouched field %q leaked onto the wire", absent)
		}
	}
}

func Test_AddAttendees_merges_and_patches_once(t *testing.T) {
	var patches int
	var patched eventPayload
	svc := newCalendarFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`{"id":"e1","subject":"Sync","attendees":[
				{"type":"required","emailAddress":{"address":"Alice@example.com"}},
				{"type":"required","emailAddress":{"address":"bob@example.com"}}
			]}`))
		case http.MethodPatch:
			patches++
			data, _ := io.ReadAll(r.Body)
			if err := json.Unmarshal(data, &patched); err != nil {
				t.Errorf("decode patch: %v", err)
			}
			_, _ = w.Write([]byte(`{"id":"e1","subject":"Sync","attendees":[
				{"emailAddress":{"address":"Alice@example.com"}},
				{"emailAddress":{"address":"bob@example.com"}},
				{"emailAddress":{"address":"carol@example.com"}}
			]}`))
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	})

	out, err := svc.AddAttendees(context.Background(), &AddAttendeesInput{
		EventID:   "e1",
		Attendees: []string{"alice@example.com", "carol@example.com"},
	})
	if err != nil {
		t.Fatalf("add attendees: %v", err)
	}
	if patches != 1 {
		t.Fatalf("expected exactly one update, got %d", patches)
	}
	if patched.Attendees == nil || len(*patched.Attendees) != 3 {
		t.Fatalf("expected union of 3 attendees, got %+v", patched.Attendees)
	}
	if len(out.Attendees) != 3 {
		t.Fatalf("unexpected result attendees: %v", out.Attendees)
	}
}

func Test_AddAttendees_noop_when_all_present(t *testing.T) {
	svc := newCalendarFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("no update may be issued, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"e1","subject":"Sync","attendees":[{"emailAddress":{"address":"Alice@example.com"}}]}`))
	})

	out, err := svc.AddAttendees(context.Background(), &AddAttendeesInput{
		EventID:   "e1",
		Attendees: []string{"ALICE@example.com"},
	})
	if err != nil {
		t.Fatalf("add attendees: %v", err)
	}
	if len(out.Attendees) != 1 {
		t.Fatalf("unexpected attendees: %v", out.Attendees)
	}
}

func Test_mergeAttendees(t *testing.T) {
	existing := []attendee{
		{EmailAddress: emailAddress{Address: "A@example.com"}},
		{EmailAddress: emailAddress{Address: "b@example.com"}},
	}
	merged, added := mergeAttendees(existing, []string{"a@example.com", "C@example.com", "c@example.com", ""})
	if added != 1 {
		t.Fatalf("expected 1 addition, got %d", added)
	}
	if len(merged) != 3 {
		t.Fatalf("expected 3 attendees, got %d", len(merged))
	}
	if merged[2].EmailAddress.Address != "C@example.com" {
		t.Fatalf("added attendee must keep its original casing: %q", merged[2].EmailAddress.Address)
	}
}
