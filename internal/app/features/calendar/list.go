// internal/app/features/calendar/list.go
package calendar

import (
	"context"
	"net/http"
	"strconv"
	"time"

	eventstore "github.com/dalemusser/volunteerhub/internal/app/store/events"
	rsvpstore "github.com/dalemusser/volunteerhub/internal/app/store/rsvps"
	"github.com/dalemusser/volunteerhub/internal/app/system/authz"
	"github.com/dalemusser/volunteerhub/internal/app/system/jsonresp"
	"github.com/dalemusser/volunteerhub/internal/app/system/timeouts"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MonthRange returns [first of month, first of next month) in UTC.
// Missing or invalid values fall back to now's month and year.
func MonthRange(monthStr, yearStr string, now time.Time) (time.Time, time.Time, bool) {
	now = now.UTC()
	month, year := int(now.Month()), now.Year()
	if monthStr != "" {
		m, err := strconv.Atoi(monthStr)
		if err != nil || m < 1 || m > 12 {
			return time.Time{}, time.Time{}, false
		}
		month = m
	}
	if yearStr != "" {
		y, err := strconv.Atoi(yearStr)
		if err != nil || y < 1970 || y > 9999 {
			return time.Time{}, time.Time{}, false
		}
		year = y
	}
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0), true
}

// ServeList handles GET /calendar/events?month=&year= or ?upcoming=true.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	orgID, ok := authz.ScopeOrg(r)
	if !ok {
		jsonresp.Fail(w, http.StatusBadRequest, "organization_id is required.")
		return
	}
	_, _, userID, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	events := eventstore.New(h.DB)
	var (
		list []models.CalendarEvent
		err  error
	)
	if up, _ := strconv.ParseBool(query.Get(r, "upcoming")); up {
		list, err = events.Upcoming(ctx, &orgID, time.Now(), 0)
	} else {
		from, to, valid := MonthRange(query.Get(r, "month"), query.Get(r, "year"), time.Now())
		if !valid {
			jsonresp.Fail(w, http.StatusBadRequest, "month must be 1-12 and year a four-digit year.")
			return
		}
		list, err = events.ListRange(ctx, orgID, from, to)
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list events", err, "")
		return
	}

	views, err := h.decorate(ctx, list, userID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count signups", err, "")
		return
	}
	jsonresp.OK(w, jsonresp.M{"events": views})
}

func (h *Handler) decorate(ctx context.Context, list []models.CalendarEvent, userID primitive.ObjectID) ([]EventView, error) {
	ids := make([]primitive.ObjectID, len(list))
	for i, ev := range list {
		ids[i] = ev.ID
	}
	rsvps := rsvpstore.New(h.DB)
	counts, err := rsvps.ConfirmedCounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	statuses, err := rsvps.StatusesFor(ctx, userID, ids)
	if err != nil {
		return nil, err
	}
	views := make([]EventView, 0, len(list))
	for _, ev := range list {
		views = append(views, newEventView(ev, counts[ev.ID], statuses[ev.ID]))
	}
	return views, nil
}

// ServeDetail handles GET /calendar/events/{id}. Admins also get the
// attendee list.
func (h *Handler) ServeDetail(w http.ResponseWriter, r *http.Request) {
	eventID, orgID, ok := eventInScope(w, r)
	if !ok {
		return
	}
	_, _, userID, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ev, err := eventstore.New(h.DB).GetInOrg(ctx, eventID, orgID)
	if err != nil {
		if isNotFound(err) {
			jsonresp.Fail(w, http.StatusNotFound, "Event not found.")
			return
		}
		h.ErrLog.LogServerError(w, r, "load event", err, "")
		return
	}
	views, err := h.decorate(ctx, []models.CalendarEvent{ev}, userID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count signups", err, "")
		return
	}
	view := views[0]
	if authz.IsAdmin(r) {
		if view.Attendees, err = h.attendees(ctx, eventID); err != nil {
			h.ErrLog.LogServerError(w, r, "list attendees", err, "")
			return
		}
	}
	jsonresp.OK(w, jsonresp.M{"event": view})
}
