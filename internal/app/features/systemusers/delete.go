// internal/app/features/systemusers/delete.go
package systemusers

import (
	"context"
	"net/http"

	assignmentstore "github.com/dalemusser/volunteerhub/internal/app/store/assignments"
	"github.com/dalemusser/volunteerhub/internal/app/store/audit"
	refreshtokenstore "github.com/dalemusser/volunteerhub/internal/app/store/refreshtokens"
	rsvpstore "github.com/dalemusser/volunteerhub/internal/app/store/rsvps"
	userstore "github.com/dalemusser/volunteerhub/internal/app/store/users"
	"github.com/dalemusser/volunteerhub/internal/app/system/authz"
	"github.com/dalemusser/volunteerhub/internal/app/system/jsonresp"
	"github.com/dalemusser/volunteerhub/internal/app/system/timeouts"
	"github.com/dalemusser/volunteerhub/internal/app/system/txn"
	"go.mongodb.org/mongo-driver/mongo"
)

// HandleDelete handles DELETE /super-admin/users/{email}. The user's open
// assignments, RSVPs and refresh tokens go with them. Completed
// assignments stay, so tasks with finished work remain undeletable.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	_, _, actorID, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	u, ok := h.userByEmail(ctx, w, r)
	if !ok {
		return
	}
	if u.ID == actorID {
		jsonresp.Fail(w, http.StatusBadRequest, "You cannot delete your own account.")
		return
	}

	var assignments, rsvps int64
	err := txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		var err error
		if assignments, err = assignmentstore.New(h.DB).DeleteOpenByUser(ctx, u.ID); err != nil {
			return err
		}
		if rsvps, err = rsvpstore.New(h.DB).DeleteByUser(ctx, u.ID); err != nil {
			return err
		}
		if _, err = refreshtokenstore.New(h.DB).RevokeAllForUser(ctx, u.ID); err != nil {
			return err
		}
		n, err := userstore.New(h.DB).Delete(ctx, u.ID)
		if err != nil {
			return err
		}
		if n == 0 {
			return mongo.ErrNoDocuments
		}
		return nil
	})
	if err != nil {
		h.ErrLog.Respond(w, r, "delete user", notFound(err))
		return
	}

	h.AuditLog.Admin(ctx, r, audit.EventUserDeleted, actorID, u.OrganizationID, &u.ID, map[string]string{"email": u.Email})
	jsonresp.Write(w, http.StatusOK, "User deleted.", jsonresp.M{
		"deleted_assignments": assignments,
		"deleted_rsvps":       rsvps,
	})
}
