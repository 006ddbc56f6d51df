package graph

// Tool I/O types. Each input is a flat, independently validated record; the
// update event input is a sparse projection of the create input sharing the
// same field set.

// Calendar

type ListEventsInput struct {
	StartISO string `json:"startISO" validate:"required" description:"window start (RFC3339)"`
	EndISO   string `json:"endISO" validate:"required" description:"window end (RFC3339)"`
	Top      int    `json:"top,omitempty" validate:"omitempty,min=1,max=100" description:"number of events to return (default 10)"`
}

type Event struct {
	ID        string   `json:"id"`
	Subject   string   `json:"subject"`
	Start     string   `json:"start"`
	End       string   `json:"end"`
	Location  string   `json:"location"`
	Organizer string   `json:"organizer,omitempty"`
	Attendees []string `json:"attendees,omitempty"`
	Preview   string   `json:"preview,omitempty"`
}

type ListEventsOutput struct {
	Events []Event `json:"events"`
}

type CreateEventInput struct {
	Subject   string   `json:"subject" validate:"required"`
	StartISO  string   `json:"startISO" validate:"required" description:"event start (RFC3339 or local date-time)"`
	EndISO    string   `json:"endISO" validate:"required" description:"event end"`
	TimeZone  string   `json:"timeZone,omitempty" description:"IANA or Windows time zone (default UTC)"`
	Location  string   `json:"location,omitempty"`
	BodyText  string   `json:"bodyText,omitempty"`
	Attendees []string `json:"attendees,omitempty" validate:"omitempty,dive,email"`
}

// UpdateEventInput is the sparse form of CreateEventInput: a nil field is left
// untouched, a pointer to the zero value explicitly clears it.
type UpdateEventInput struct {
	EventID   string    `json:"eventId" validate:"required"`
	Subject   *string   `json:"subject,omitempty"`
	StartISO  *string   `json:"startISO,omitempty"`
	EndISO    *string   `json:"endISO,omitempty"`
	TimeZone  *string   `json:"timeZone,omitempty"`
	Location  *string   `json:"location,omitempty"`
	BodyText  *string   `json:"bodyText,omitempty"`
	Attendees *[]string `json:"attendees,omitempty" validate:"omitempty,dive,email"`
}

type DeleteEventInput struct {
	EventID string `json:"eventId" validate:"required"`
}

type AddAttendeesInput struct {
	EventID   string   `json:"eventId" validate:"required"`
	Attendees []string `json:"attendees" validate:"required,min=1,dive,email"`
}

// Mail

type ListMailInput struct {
	Top      int    `json:"top,omitempty" validate:"omitempty,min=1,max=100" description:"number of messages to return (default 10)"`
	SinceISO string `json:"sinceISO,omitempty" description:"receivedDateTime >= this timestamp (inclusive)"`
	UntilISO string `json:"untilISO,omitempty" description:"receivedDateTime <= this timestamp (inclusive)"`
	// Advanced OData options. Filter overrides the derived since/until filter.
	Filter string `json:"filter,omitempty" description:"OData $filter expression"`
	Search string `json:"search,omitempty" description:"OData $search expression"`
}

type Message struct {
	ID       string `json:"id"`
	Subject  string `json:"subject"`
	From     string `json:"from,omitempty"`
	Received string `json:"received,omitempty"`
	Preview  string `json:"preview,omitempty"`
	IsRead   bool   `json:"isRead"`
}

type ListMailOutput struct {
	Messages []Message `json:"messages"`
}

type GetMailInput struct {
	MessageID string `json:"messageId" validate:"required"`
}

type MessageDetail struct {
	Message
	To   []string `json:"to,omitempty"`
	Cc   []string `json:"cc,omitempty"`
	Body string   `json:"body,omitempty"`
}

type SendMailInput struct {
	To         []string `json:"to" validate:"required,min=1,dive,email"`
	Cc         []string `json:"cc,omitempty" validate:"omitempty,dive,email"`
	Bcc        []string `json:"bcc,omitempty" validate:"omitempty,dive,email"`
	Subject    string   `json:"subject" validate:"required"`
	BodyText   string   `json:"bodyText,omitempty"`
	BodyHTML   string   `json:"bodyHtml,omitempty"`
	Importance string   `json:"importance,omitempty" validate:"omitempty,oneof=Low Normal High" description:"Low, Normal, High"`
}

type DeleteMailInput struct {
	MessageID string `json:"messageId" validate:"required"`
}

// People

type SearchPeopleInput struct {
	Query string `json:"query" validate:"required" description:"name or email fragment"`
	Top   int    `json:"top,omitempty" validate:"omitempty,min=1,max=50" description:"number of people to return (default 10)"`
}

type Person struct {
	Name     string   `json:"name"`
	Emails   []string `json:"emails,omitempty"`
	JobTitle string   `json:"jobTitle,omitempty"`
	Company  string   `json:"company,omitempty"`
}

type SearchPeopleOutput struct {
	People []Person `json:"people"`
}

// Schedule

type GetScheduleInput struct {
	Addresses       []string `json:"addresses" validate:"required,min=1,dive,email" description:"mailboxes to query free/busy for"`
	StartISO        string   `json:"startISO" validate:"required"`
	EndISO          string   `json:"endISO" validate:"required"`
	IntervalMinutes int      `json:"intervalMinutes,omitempty" validate:"omitempty,min=5,max=1440" description:"availability slot size (default 30)"`
}

type BusySlot struct {
	Start  string `json:"start"`
	End    string `json:"end"`
	Status string `json:"status"`
}

type ScheduleEntry struct {
	Address          string     `json:"address"`
	AvailabilityView string     `json:"availabilityView,omitempty"`
	Busy             []BusySlot `json:"busy,omitempty"`
}

type GetScheduleOutput struct {
	Schedules []ScheduleEntry `json:"schedules"`
}

type FindMeetingTimesInput struct {
	Attendees       []string `json:"attendees" validate:"required,min=1,dive,email"`
	DurationMinutes int      `json:"durationMinutes" validate:"required,min=1,max=1440"`
	StartISO        string   `json:"startISO,omitempty" description:"optional constraint window start"`
	EndISO          string   `json:"endISO,omitempty" description:"optional constraint window end"`
	MaxCandidates   int      `json:"maxCandidates,omitempty" validate:"omitempty,min=1,max=50"`
}

type MeetingTimeSuggestion struct {
	Start      string  `json:"start"`
	End        string  `json:"end"`
	Confidence float64 `json:"confidence,omitempty"`
}

type FindMeetingTimesOutput struct {
	Suggestions []MeetingTimeSuggestion `json:"suggestions"`
	EmptyReason string                  `json:"emptyReason,omitempty"`
}
