// internal/app/features/calendar/export.go
package calendar

import (
	"context"
	"net/http"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	eventstore "github.com/dalemusser/volunteerhub/internal/app/store/events"
	"github.com/dalemusser/volunteerhub/internal/app/system/blobstore"
	"github.com/dalemusser/volunteerhub/internal/app/system/jsonresp"
	"github.com/dalemusser/volunteerhub/internal/app/system/timeouts"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
)

// ICSContentType is the media type of BuildICS output.
const ICSContentType = "text/calendar; charset=utf-8"

const productID = "-//VolunteerHub//Calendar//EN"

// BuildICS renders ev as a one-event iCalendar document.
func BuildICS(ev models.CalendarEvent, now time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)

	ie := cal.AddEvent(ev.ID.Hex() + "@volunteerhub")
	ie.SetDtStampTime(now.UTC())
	ie.SetCreatedTime(ev.CreatedAt)
	ie.SetModifiedAt(ev.UpdatedAt)
	if ev.AllDay {
		ie.SetAllDayStartAt(ev.StartAt)
		ie.SetAllDayEndAt(ev.EndAt)
	} else {
		ie.SetStartAt(ev.StartAt)
		ie.SetEndAt(ev.EndAt)
	}
	ie.SetSummary(ev.Title)
	if ev.Location != "" {
		ie.SetLocation(ev.Location)
	}
	if desc := icsDescription(ev); desc != "" {
		ie.SetDescription(desc)
	}
	if ev.VideoLink != "" {
		ie.SetURL(ev.VideoLink)
	}
	return cal.Serialize()
}

func icsDescription(ev models.CalendarEvent) string {
	parts := []string{}
	if d := strings.TrimSpace(ev.Description); d != "" {
		parts = append(parts, d)
	}
	if ev.VideoLink != "" {
		parts = append(parts, "Join Meeting: "+ev.VideoLink)
	}
	if ev.MeetingID != "" {
		parts = append(parts, "Meeting ID: "+ev.MeetingID)
	}
	if ev.MeetingPasscode != "" {
		parts = append(parts, "Passcode: "+ev.MeetingPasscode)
	}
	return strings.Join(parts, "\n")
}

// icsFileName turns a title into a safe file name.
func icsFileName(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	name := strings.Trim(b.String(), "-")
	if name == "" {
		name = "event"
	}
	return name + ".ics"
}

// ServeExport handles GET /calendar/events/{id}/export.
func (h *Handler) ServeExport(w http.ResponseWriter, r *http.Request) {
	eventID, orgID, ok := eventInScope(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
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

	w.Header().Set("Content-Type", ICSContentType)
	w.Header().Set("Content-Disposition", blobstore.AttachmentDisposition(icsFileName(ev.Title)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(BuildICS(ev, time.Now())))
}
