// internal/app/features/calendar/edit.go
package calendar

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/volunteerhub/internal/app/store/audit"
	eventstore "github.com/dalemusser/volunteerhub/internal/app/store/events"
	rsvpstore "github.com/dalemusser/volunteerhub/internal/app/store/rsvps"
	"github.com/dalemusser/volunteerhub/internal/app/system/authz"
	"github.com/dalemusser/volunteerhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/volunteerhub/internal/app/system/inputval"
	"github.com/dalemusser/volunteerhub/internal/app/system/jsonresp"
	"github.com/dalemusser/volunteerhub/internal/app/system/normalize"
	"github.com/dalemusser/volunteerhub/internal/app/system/timeouts"
	"github.com/dalemusser/volunteerhub/internal/app/system/txn"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
)

// nullableInt tells an absent field from an explicit null.
type nullableInt struct {
	Set   bool
	Value *int
}

func (n *nullableInt) UnmarshalJSON(b []byte) error {
	n.Set = true
	if string(b) == "null" {
		n.Value = nil
		return nil
	}
	var v int
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// ParseEventTime accepts RFC 3339 or a bare YYYY-MM-DD (midnight UTC).
func ParseEventTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// defaultEnd is one hour after start, or the next day for all-day events.
func defaultEnd(start time.Time, allDay bool) time.Time {
	if allDay {
		return start.AddDate(0, 0, 1)
	}
	return start.Add(time.Hour)
}

type createInput struct {
	Title           string      `json:"title" validate:"required,max=200" label:"Title"`
	Description     string      `json:"description" validate:"max=5000" label:"Description"`
	Location        string      `json:"location" validate:"max=500" label:"Location"`
	StartAt         string      `json:"start_at" validate:"required" label:"Start"`
	EndAt           string      `json:"end_at" label:"End"`
	AllDay          bool        `json:"all_day"`
	EventType       string      `json:"event_type" validate:"omitempty,eventtype" label:"Event type"`
	MaxVolunteers   nullableInt `json:"max_volunteers" validate:"-"`
	VideoLink       string      `json:"video_link" validate:"omitempty,httpurl" label:"Video link"`
	MeetingID       string      `json:"meeting_id" validate:"max=100" label:"Meeting ID"`
	MeetingPasscode string      `json:"meeting_passcode" validate:"max=100" label:"Passcode"`
}

func validCapacity(n nullableInt) bool {
	return n.Value == nil || *n.Value >= 1
}

// HandleCreate handles POST /calendar/events.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	orgID, ok := authz.ScopeOrg(r)
	if !ok {
		jsonresp.Fail(w, http.StatusBadRequest, "organization_id is required.")
		return
	}
	_, _, actorID, _ := authz.UserCtx(r)

	var in createInput
	if err := jsonresp.Decode(w, r, &in); err != nil {
		jsonresp.Fail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	in.Title = htmlsanitize.Text(in.Title)
	in.Description = htmlsanitize.Sanitize(in.Description)
	in.Location = htmlsanitize.Text(in.Location)
	in.EventType = normalize.Enum(in.EventType)
	in.VideoLink = strings.TrimSpace(in.VideoLink)
	if res := inputval.Validate(in); res.HasErrors() {
		jsonresp.Fail(w, http.StatusBadRequest, res.First())
		return
	}
	if !validCapacity(in.MaxVolunteers) {
		jsonresp.Fail(w, http.StatusBadRequest, "Max volunteers must be at least 1.")
		return
	}
	start, ok := ParseEventTime(in.StartAt)
	if !ok {
		jsonresp.Fail(w, http.StatusBadRequest, "Start must be YYYY-MM-DD or an RFC 3339 timestamp.")
		return
	}
	end := defaultEnd(start, in.AllDay)
	if in.EndAt != "" {
		if end, ok = ParseEventTime(in.EndAt); !ok {
			jsonresp.Fail(w, http.StatusBadRequest, "End must be YYYY-MM-DD or an RFC 3339 timestamp.")
			return
		}
	}
	if end.Before(start) {
		jsonresp.Fail(w, http.StatusBadRequest, "End must not be before start.")
		return
	}

	ev := models.CalendarEvent{
		OrganizationID:  orgID,
		Title:           in.Title,
		Description:     in.Description,
		Location:        in.Location,
		StartAt:         start,
		EndAt:           end,
		AllDay:          in.AllDay,
		EventType:       in.EventType,
		MaxVolunteers:   in.MaxVolunteers.Value,
		VideoLink:       in.VideoLink,
		MeetingID:       strings.TrimSpace(in.MeetingID),
		MeetingPasscode: strings.TrimSpace(in.MeetingPasscode),
		CreatedBy:       actorID,
	}
	if ev.VideoLink == "" && ev.MeetingID == "" && ev.MeetingPasscode == "" {
		var info models.MeetingInfo
		if ev.Description, info = models.ExtractMeetingInfo(ev.Description); !info.Empty() {
			ev.VideoLink, ev.MeetingID, ev.MeetingPasscode = info.VideoLink, info.MeetingID, info.Passcode
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ev, err := eventstore.New(h.DB).Create(ctx, ev)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create event", err, "Unable to create event.")
		return
	}
	h.AuditLog.Admin(ctx, r, audit.EventEventCreated, actorID, &orgID, &ev.ID, map[string]string{"title": ev.Title})
	jsonresp.Created(w, "Event created.", jsonresp.M{"event": newEventView(ev, 0, "")})
}

type updateInput struct {
	Title           *string     `json:"title" validate:"omitempty,max=200" label:"Title"`
	Description     *string     `json:"description" validate:"omitempty,max=5000" label:"Description"`
	Location        *string     `json:"location" validate:"omitempty,max=500" label:"Location"`
	StartAt         *string     `json:"start_at" label:"Start"`
	EndAt           *string     `json:"end_at" label:"End"`
	AllDay          *bool       `json:"all_day"`
	EventType       *string     `json:"event_type" validate:"omitempty,eventtype" label:"Event type"`
	MaxVolunteers   nullableInt `json:"max_volunteers" validate:"-"`
	VideoLink       *string     `json:"video_link" validate:"omitempty,httpurl" label:"Video link"`
	MeetingID       *string     `json:"meeting_id" validate:"omitempty,max=100" label:"Meeting ID"`
	MeetingPasscode *string     `json:"meeting_passcode" validate:"omitempty,max=100" label:"Passcode"`
}

// HandleUpdate handles PUT /calendar/events/{id}. max_volunteers: null
// makes the event unlimited.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	eventID, orgID, ok := eventInScope(w, r)
	if !ok {
		return
	}
	_, _, actorID, _ := authz.UserCtx(r)

	var in updateInput
	if err := jsonresp.Decode(w, r, &in); err != nil {
		jsonresp.Fail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	clean := func(p **string, f func(string) string) {
		if *p != nil {
			v := f(**p)
			*p = &v
		}
	}
	clean(&in.Title, htmlsanitize.Text)
	clean(&in.Description, htmlsanitize.Sanitize)
	clean(&in.Location, htmlsanitize.Text)
	clean(&in.EventType, normalize.Enum)
	clean(&in.VideoLink, strings.TrimSpace)
	clean(&in.MeetingID, strings.TrimSpace)
	clean(&in.MeetingPasscode, strings.TrimSpace)
	if res := inputval.Validate(in); res.HasErrors() {
		jsonresp.Fail(w, http.StatusBadRequest, res.First())
		return
	}
	if in.Title != nil && *in.Title == "" {
		jsonresp.Fail(w, http.StatusBadRequest, "Title is required.")
		return
	}
	if !validCapacity(in.MaxVolunteers) {
		jsonresp.Fail(w, http.StatusBadRequest, "Max volunteers must be at least 1.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	events := eventstore.New(h.DB)
	cur, err := events.GetInOrg(ctx, eventID, orgID)
	if err != nil {
		if isNotFound(err) {
			jsonresp.Fail(w, http.StatusNotFound, "Event not found.")
			return
		}
		h.ErrLog.LogServerError(w, r, "load event", err, "")
		return
	}

	upd := eventstore.Update{
		Title:           in.Title,
		Description:     in.Description,
		Location:        in.Location,
		AllDay:          in.AllDay,
		EventType:       in.EventType,
		VideoLink:       in.VideoLink,
		MeetingID:       in.MeetingID,
		MeetingPasscode: in.MeetingPasscode,
	}
	if in.MaxVolunteers.Set {
		upd.MaxVolunteers = in.MaxVolunteers.Value
		upd.ClearMaxVolunteers = in.MaxVolunteers.Value == nil
	}
	start, end := cur.StartAt, cur.EndAt
	if in.StartAt != nil {
		t, ok := ParseEventTime(*in.StartAt)
		if !ok {
			jsonresp.Fail(w, http.StatusBadRequest, "Start must be YYYY-MM-DD or an RFC 3339 timestamp.")
			return
		}
		start, upd.StartAt = t, &t
	}
	if in.EndAt != nil {
		t, ok := ParseEventTime(*in.EndAt)
		if !ok {
			jsonresp.Fail(w, http.StatusBadRequest, "End must be YYYY-MM-DD or an RFC 3339 timestamp.")
			return
		}
		end, upd.EndAt = t, &t
	}
	if end.Before(start) {
		jsonresp.Fail(w, http.StatusBadRequest, "End must not be before start.")
		return
	}

	if err := events.Update(ctx, eventID, orgID, upd); err != nil {
		if isNotFound(err) {
			jsonresp.Fail(w, http.StatusNotFound, "Event not found.")
			return
		}
		h.ErrLog.LogServerError(w, r, "update event", err, "Unable to update event.")
		return
	}
	ev, err := events.GetInOrg(ctx, eventID, orgID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "reload event", err, "")
		return
	}
	confirmed, err := rsvpstore.New(h.DB).CountConfirmed(ctx, eventID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count signups", err, "")
		return
	}

	h.AuditLog.Admin(ctx, r, audit.EventEventUpdated, actorID, &orgID, &eventID, nil)
	jsonresp.Write(w, http.StatusOK, "Event updated.", jsonresp.M{"event": newEventView(ev, confirmed, "")})
}

// HandleDelete handles DELETE /calendar/events/{id}, removing its RSVPs
// with it.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	eventID, orgID, ok := eventInScope(w, r)
	if !ok {
		return
	}
	_, _, actorID, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	events := eventstore.New(h.DB)
	ev, err := events.GetInOrg(ctx, eventID, orgID)
	if err != nil {
		if isNotFound(err) {
			jsonresp.Fail(w, http.StatusNotFound, "Event not found.")
			return
		}
		h.ErrLog.LogServerError(w, r, "load event", err, "")
		return
	}

	err = txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		if _, err := rsvpstore.New(h.DB).DeleteByEvent(ctx, eventID); err != nil {
			return err
		}
		_, err := events.Delete(ctx, eventID, orgID)
		return err
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "delete event", err, "Unable to delete event.")
		return
	}

	h.AuditLog.Admin(ctx, r, audit.EventEventDeleted, actorID, &orgID, &eventID, map[string]string{"title": ev.Title})
	jsonresp.Message(w, "Event deleted.")
}
