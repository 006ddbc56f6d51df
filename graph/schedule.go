package graph

import (
	"context"
	"fmt"
)

// ScheduleService answers availability questions: raw free/busy windows and
// server-ranked meeting time suggestions.
type ScheduleService struct{ client *Client }

func NewScheduleService(c *Client) *ScheduleService { return &ScheduleService{client: c} }

type getSchedulePayload struct {
	Schedules                []string      `json:"schedules"`
	StartTime                graphDateTime `json:"startTime"`
	EndTime                  graphDateTime `json:"endTime"`
	AvailabilityViewInterval int           `json:"availabilityViewInterval"`
}

func (s *ScheduleService) GetSchedule(ctx context.Context, in *GetScheduleInput) (*GetScheduleOutput, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	interval := in.IntervalMinutes
	if interval <= 0 {
		interval = 30
	}
	payload := &getSchedulePayload{
		Schedules:                in.Addresses,
		StartTime:                graphDateTime{DateTime: in.StartISO, TimeZone: "UTC"},
		EndTime:                  graphDateTime{DateTime: in.EndISO, TimeZone: "UTC"},
		AvailabilityViewInterval: interval,
	}
	var resp struct {
		Value []struct {
			ScheduleID       string `json:"scheduleId"`
			AvailabilityView string `json:"availabilityView,omitempty"`
			ScheduleItems    []struct {
				Status string        `json:"status"`
				Start  graphDateTime `json:"start"`
				End    graphDateTime `json:"end"`
			} `json:"scheduleItems,omitempty"`
		} `json:"value"`
	}
	if err := s.client.Post(ctx, "/me/calendar/getSchedule", payload, &resp); err != nil {
		return nil, err
	}
	out := &GetScheduleOutput{}
	for _, sched := range resp.Value {
		entry := ScheduleEntry{Address: sched.ScheduleID, AvailabilityView: sched.AvailabilityView}
		for _, item := range sched.ScheduleItems {
			entry.Busy = append(entry.Busy, BusySlot{
				Start:  formatGraphTime(item.Start.DateTime),
				End:    formatGraphTime(item.End.DateTime),
				Status: item.Status,
			})
		}
		out.Schedules = append(out.Schedules, entry)
	}
	return out, nil
}

type timeSlot struct {
	Start graphDateTime `json:"start"`
	End   graphDateTime `json:"end"`
}

type findMeetingTimesPayload struct {
	Attendees       []attendee `json:"attendees"`
	TimeConstraint  *struct {
		TimeSlots []timeSlot `json:"timeSlots"`
	} `json:"timeConstraint,omitempty"`
	MeetingDuration string `json:"meetingDuration"`
	MaxCandidates   int    `json:"maxCandidates,omitempty"`
}

func (s *ScheduleService) FindMeetingTimes(ctx context.Context, in *FindMeetingTimesInput) (*FindMeetingTimesOutput, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	payload := &findMeetingTimesPayload{
		Attendees:       toAttendees(in.Attendees),
		MeetingDuration: fmt.Sprintf("PT%dM", in.DurationMinutes),
		MaxCandidates:   in.MaxCandidates,
	}
	if in.StartISO != "" && in.EndISO != "" {
		payload.TimeConstraint = &struct {
			TimeSlots []timeSlot `json:"timeSlots"`
		}{
			TimeSlots: []timeSlot{{
				Start: graphDateTime{DateTime: in.StartISO, TimeZone: "UTC"},
				End:   graphDateTime{DateTime: in.EndISO, TimeZone: "UTC"},
			}},
		}
	}
	var resp struct {
		EmptySuggestionsReason string `json:"emptySuggestionsReason,omitempty"`
		MeetingTimeSuggestions []struct {
			Confidence      float64 `json:"confidence,omitempty"`
			MeetingTimeSlot struct {
				Start graphDateTime `json:"start"`
				End   graphDateTime `json:"end"`
			} `json:"meetingTimeSlot"`
		} `json:"meetingTimeSuggestions,omitempty"`
	}
	if err := s.client.Post(ctx, "/me/findMeetingTimes", payload, &resp); err != nil {
		return nil, err
	}
	out := &FindMeetingTimesOutput{EmptyReason: resp.EmptySuggestionsReason}
	for _, suggestion := range resp.MeetingTimeSuggestions {
		out.Suggestions = append(out.Suggestions, MeetingTimeSuggestion{
			Start:      formatGraphTime(suggestion.MeetingTimeSlot.Start.DateTime),
			End:        formatGraphTime(suggestion.MeetingTimeSlot.End.DateTime),
			Confidence: suggestion.Confidence,
		})
	}
	return out, nil
}
