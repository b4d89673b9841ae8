// internal/app/features/calendar/handler.go
package calendar

import (
	"context"
	"errors"
	"net/http"
	"time"

	errorsfeature "github.com/dalemusser/volunteerhub/internal/app/features/errors"
	rsvpstore "github.com/dalemusser/volunteerhub/internal/app/store/rsvps"
	userstore "github.com/dalemusser/volunteerhub/internal/app/store/users"
	"github.com/dalemusser/volunteerhub/internal/app/system/auditlog"
	"github.com/dalemusser/volunteerhub/internal/app/system/authz"
	"github.com/dalemusser/volunteerhub/internal/app/system/jsonresp"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the organization calendar.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	ErrLog   *errorsfeature.ErrorLogger
	AuditLog *auditlog.Logger
}

func NewHandler(db *mongo.Database, errLog *errorsfeature.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		ErrLog:   errLog,
		AuditLog: audit,
	}
}

// EventView is an event with its signup state.
type EventView struct {
	models.CalendarEvent
	ConfirmedSignups int64      `json:"confirmed_signups"`
	CanSignup        bool       `json:"can_signup"`
	UserRSVPStatus   string     `json:"user_rsvp_status,omitempty"`
	Attendees        []Attendee `json:"attendees,omitempty"`
}

// Attendee is a signed-up user as shown to admins.
type Attendee struct {
	UserID   string    `json:"user_id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Notes    string    `json:"notes,omitempty"`
	SignedUp time.Time `json:"signed_up_at"`
}

func newEventView(ev models.CalendarEvent, confirmed int64, rsvpStatus string) EventView {
	return EventView{
		CalendarEvent:    ev,
		ConfirmedSignups: confirmed,
		CanSignup:        models.CanSignup(ev.MaxVolunteers, confirmed),
		UserRSVPStatus:   rsvpStatus,
	}
}

// eventInScope reads {id} and the caller's organization scope, writing
// the failure response itself.
func eventInScope(w http.ResponseWriter, r *http.Request) (eventID, orgID primitive.ObjectID, ok bool) {
	orgID, ok = authz.ScopeOrg(r)
	if !ok {
		jsonresp.Fail(w, http.StatusBadRequest, "organization_id is required.")
		return
	}
	eventID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonresp.Fail(w, http.StatusBadRequest, "Invalid event ID.")
		return eventID, orgID, false
	}
	return eventID, orgID, true
}

func (h *Handler) attendees(ctx context.Context, eventID primitive.ObjectID) ([]Attendee, error) {
	rows, err := rsvpstore.New(h.DB).ListByEvent(ctx, eventID, models.RSVPSignedUp)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, len(rows))
	for i, rv := range rows {
		ids[i] = rv.UserID
	}
	users, err := userstore.New(h.DB).GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	out := make([]Attendee, 0, len(rows))
	for _, rv := range rows {
		u, ok := byID[rv.UserID]
		if !ok {
			continue
		}
		out = append(out, Attendee{
			UserID:   u.ID.Hex(),
			Name:     models.DisplayName(u),
			Email:    u.Email,
			Notes:    rv.Notes,
			SignedUp: rv.UpdatedAt,
		})
	}
	return out, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
