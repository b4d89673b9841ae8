package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dalemusser/volunteerhub/internal/app/features/calendar"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
)

// NewEvent is the body of CreateEvent. Times are RFC 3339 or YYYY-MM-DD;
// a nil MaxVolunteers means unlimited.
type NewEvent struct {
	Title           string `json:"title"`
	Description     string `json:"description,omitempty"`
	Location        string `json:"location,omitempty"`
	StartAt         string `json:"start_at"`
	EndAt           string `json:"end_at,omitempty"`
	AllDay          bool   `json:"all_day,omitempty"`
	EventType       string `json:"event_type,omitempty"`
	MaxVolunteers   *int   `json:"max_volunteers"`
	VideoLink       string `json:"video_link,omitempty"`
	MeetingID       string `json:"meeting_id,omitempty"`
	MeetingPasscode string `json:"meeting_passcode,omitempty"`
}

// EventUpdate changes the non-nil fields of an event. Set
// ClearMaxVolunteers to lift the capacity limit.
type EventUpdate struct {
	Title              *string
	Description        *string
	Location           *string
	StartAt            *string
	EndAt              *string
	AllDay             *bool
	EventType          *string
	MaxVolunteers      *int
	ClearMaxVolunteers bool
	VideoLink          *string
	MeetingID          *string
	MeetingPasscode    *string
}

func (u EventUpdate) MarshalJSON() ([]byte, error) {
	m := map[string]any{}
	put := func(k string, v *string) {
		if v != nil {
			m[k] = *v
		}
	}
	put("title", u.Title)
	put("description", u.Description)
	put("location", u.Location)
	put("start_at", u.StartAt)
	put("end_at", u.EndAt)
	put("event_type", u.EventType)
	put("video_link", u.VideoLink)
	put("meeting_id", u.MeetingID)
	put("meeting_passcode", u.MeetingPasscode)
	if u.AllDay != nil {
		m["all_day"] = *u.AllDay
	}
	switch {
	case u.ClearMaxVolunteers:
		m["max_volunteers"] = nil
	case u.MaxVolunteers != nil:
		m["max_volunteers"] = *u.MaxVolunteers
	}
	return json.Marshal(m)
}

type eventBody struct {
	Event calendar.EventView `json:"event"`
}

// RSVPResult is the saved RSVP and the event's new signup state.
type RSVPResult struct {
	RSVP  models.RSVP        `json:"rsvp"`
	Event calendar.EventView `json:"event"`
}

// ListEvents returns the events of one month. Zero month or year means
// the current one.
func (c *Client) ListEvents(ctx context.Context, month, year int) ([]calendar.EventView, error) {
	q := url.Values{}
	if month != 0 {
		q.Set("month", strconv.Itoa(month))
	}
	if year != 0 {
		q.Set("year", strconv.Itoa(year))
	}
	return c.listEvents(ctx, q)
}

// UpcomingEvents returns events that have not ended yet.
func (c *Client) UpcomingEvents(ctx context.Context) ([]calendar.EventView, error) {
	return c.listEvents(ctx, url.Values{"upcoming": {"true"}})
}

func (c *Client) listEvents(ctx context.Context, q url.Values) ([]calendar.EventView, error) {
	var out struct {
		Events []calendar.EventView `json:"events"`
	}
	if err := c.get(ctx, "/calendar/events", q, &out); err != nil {
		return nil, err
	}
	return out.Events, nil
}

// GetEvent returns one event with its signup state and, for admins, the
// attendee list.
func (c *Client) GetEvent(ctx context.Context, id string) (*calendar.EventView, error) {
	var out eventBody
	if err := c.get(ctx, "/calendar/events/"+escape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out.Event, nil
}

// CreateEvent creates an event.
func (c *Client) CreateEvent(ctx context.Context, in NewEvent) (*calendar.EventView, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.StartAt) == "" {
		return nil, validationError("Title and start are required.")
	}
	if in.MaxVolunteers != nil && *in.MaxVolunteers < 1 {
		return nil, validationError("Max volunteers must be at least 1.")
	}
	var out eventBody
	if err := c.sendJSON(ctx, http.MethodPost, "/calendar/events", in, &out); err != nil {
		return nil, err
	}
	return &out.Event, nil
}

// UpdateEvent edits an event.
func (c *Client) UpdateEvent(ctx context.Context, id string, upd EventUpdate) (*calendar.EventView, error) {
	var out eventBody
	if err := c.sendJSON(ctx, http.MethodPut, "/calendar/events/"+escape(id), upd, &out); err != nil {
		return nil, err
	}
	return &out.Event, nil
}

// DeleteEvent deletes an event and its RSVPs.
func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	return c.sendJSON(ctx, http.MethodDelete, "/calendar/events/"+escape(id), nil, nil)
}

// RSVP signs the caller up for an event or cancels their signup.
func (c *Client) RSVP(ctx context.Context, eventID, status, notes string) (*RSVPResult, error) {
	if status != models.RSVPSignedUp && status != models.RSVPCancelled {
		return nil, validationError("Status must be signed_up or cancelled.")
	}
	var out RSVPResult
	err := c.sendJSON(ctx, http.MethodPost, "/calendar/events/"+escape(eventID)+"/rsvp", map[string]string{
		"status": status,
		"notes":  notes,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ExportEvent downloads the event as an iCalendar file. Close the result.
func (c *Client) ExportEvent(ctx context.Context, id string) (*Download, error) {
	return c.download(ctx, "/calendar/events/"+escape(id)+"/export", nil)
}
