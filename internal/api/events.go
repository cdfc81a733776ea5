package api

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// EventType filters course events by kind.
type EventType string

const (
	EventTypeAssessment  EventType = "assessment"
	EventTypeCourseEvent EventType = "course_event"
	EventTypeExam        EventType = "exam"
	EventTypeLaboratory  EventType = "laboratory"
	EventTypeLecture     EventType = "lecture"
	EventTypeTutorial    EventType = "tutorial"
)

// apiTimeLayout is the from/to query format: ISO-8601 with
// microseconds and a numeric timezone offset.
const apiTimeLayout = "2006-01-02T15:04:05.000000-0700"

// EventID is an event identifier. The API documents integers but the
// persisted state also admits strings, so the raw token is kept and
// numeric ids marshal back as numbers.
type EventID string

func (id EventID) IsZero() bool { return id == "" }

func (id *EventID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*id = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*id = EventID(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = EventID(n.String())
	return nil
}

func (id EventID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// EventTime wraps time.Time to accept the timestamp shapes Sirius
// serves (millisecond or microsecond precision, offset with or
// without a colon). A zero EventTime means the field was absent.
type EventTime struct {
	time.Time
}

var eventTimeLayouts = []string{
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05.000000-0700",
	"2006-01-02T15:04:05.000-07:00",
	time.RFC3339,
}

func (t *EventTime) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		t.Time = time.Time{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	var lastErr error
	for _, layout := range eventTimeLayouts {
		parsed, err := time.Parse(layout, raw)
		if err == nil {
			t.Time = parsed
			return nil
		}
		lastErr = err
	}
	return lastErr
}

func (t EventTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(eventTimeLayouts[0]))
}

// Event is a single course event. Only the fields the notifier
// consumes are decoded; everything else in the response is ignored.
type Event struct {
	ID       EventID    `json:"id"`
	Name     string     `json:"name"`
	StartsAt EventTime  `json:"starts_at"`
	EndsAt   EventTime  `json:"ends_at"`
	Capacity *int       `json:"capacity"`
	Occupied *int       `json:"occupied"`
	Type     EventType  `json:"event_type"`
	Links    EventLinks `json:"links"`
	Note     EventNote  `json:"note"`
}

type EventLinks struct {
	Room     string   `json:"room"`
	Course   string   `json:"course"`
	Teachers []string `json:"teachers"`
}

// EventNote carries localized note text. Only the Czech localization
// is rendered.
type EventNote struct {
	CS string `json:"cs"`
}

// EventOptions are the optional query parameters of the course-events
// endpoint. Zero values are omitted from the request.
type EventOptions struct {
	Limit            int
	Offset           int
	Include          string
	EventType        EventType
	Deleted          *bool
	From             time.Time
	To               time.Time
	WithOriginalDate *bool
}

func (o EventOptions) values() url.Values {
	q := url.Values{}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Offset > 0 {
		q.Set("offset", strconv.Itoa(o.Offset))
	}
	if o.Include != "" {
		q.Set("include", o.Include)
	}
	if o.EventType != "" {
		q.Set("event_type", string(o.EventType))
	}
	if o.Deleted != nil {
		q.Set("deleted", strconv.FormatBool(*o.Deleted))
	}
	if !o.From.IsZero() {
		q.Set("from", o.From.Format(apiTimeLayout))
	}
	if !o.To.IsZero() {
		q.Set("to", o.To.Format(apiTimeLayout))
	}
	if o.WithOriginalDate != nil {
		q.Set("with_original_date", strconv.FormatBool(*o.WithOriginalDate))
	}
	return q
}
