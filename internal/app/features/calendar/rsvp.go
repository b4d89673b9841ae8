// internal/app/features/calendar/rsvp.go
package calendar

import (
	"context"
	"net/http"
	"time"

	eventstore "github.com/dalemusser/volunteerhub/internal/app/store/events"
	rsvpstore "github.com/dalemusser/volunteerhub/internal/app/store/rsvps"
	"github.com/dalemusser/volunteerhub/internal/app/system/authz"
	"github.com/dalemusser/volunteerhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/volunteerhub/internal/app/system/inputval"
	"github.com/dalemusser/volunteerhub/internal/app/system/jsonresp"
	"github.com/dalemusser/volunteerhub/internal/app/system/normalize"
	"github.com/dalemusser/volunteerhub/internal/app/system/timeouts"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Messages returned by HandleRSVP.
const (
	MsgEventFull  = "This event is full."
	MsgEventEnded = "This event has already ended."
)

type rsvpInput struct {
	Status string `json:"status" validate:"required,rsvpstatus" label:"Status"`
	Notes  string `json:"notes" validate:"max=1000" label:"Notes"`
}

// HandleRSVP handles POST /calendar/events/{id}/rsvp. Signing up needs a
// free seat unless the caller already holds one; cancelling always works.
func (h *Handler) HandleRSVP(w http.ResponseWriter, r *http.Request) {
	orgID := authz.UserOrgID(r)
	if orgID.IsZero() {
		jsonresp.Fail(w, http.StatusForbidden, "Only organization members can RSVP.")
		return
	}
	eventID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonresp.Fail(w, http.StatusBadRequest, "Invalid event ID.")
		return
	}
	_, _, userID, _ := authz.UserCtx(r)

	var in rsvpInput
	if err := jsonresp.Decode(w, r, &in); err != nil {
		jsonresp.Fail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	in.Status = normalize.Enum(in.Status)
	in.Notes = htmlsanitize.Text(in.Notes)
	if res := inputval.Validate(in); res.HasErrors() {
		jsonresp.Fail(w, http.StatusBadRequest, res.First())
		return
	}

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

	rsvps := rsvpstore.New(h.DB)
	if in.Status == models.RSVPSignedUp {
		if ev.EndAt.Before(time.Now()) {
			jsonresp.Fail(w, http.StatusBadRequest, MsgEventEnded)
			return
		}
		held := false
		if cur, err := rsvps.Get(ctx, eventID, userID); err == nil {
			held = cur.Status == models.RSVPSignedUp
		} else if !isNotFound(err) {
			h.ErrLog.LogServerError(w, r, "load rsvp", err, "")
			return
		}
		if !held {
			confirmed, err := rsvps.CountConfirmed(ctx, eventID)
			if err != nil {
				h.ErrLog.LogServerError(w, r, "count signups", err, "")
				return
			}
			if !models.CanSignup(ev.MaxVolunteers, confirmed) {
				jsonresp.Fail(w, http.StatusConflict, MsgEventFull)
				return
			}
		}
	}

	rv, err := rsvps.Upsert(ctx, ev, userID, in.Status, in.Notes)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "save rsvp", err, "Unable to save RSVP.")
		return
	}
	confirmed, err := rsvps.CountConfirmed(ctx, eventID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count signups", err, "")
		return
	}

	msg := "You are signed up."
	if rv.Status == models.RSVPCancelled {
		msg = "Your RSVP was cancelled."
	}
	jsonresp.Write(w, http.StatusOK, msg, jsonresp.M{
		"rsvp":  rv,
		"event": newEventView(ev, confirmed, rv.Status),
	})
}
