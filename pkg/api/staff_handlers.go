package api

import (
	"errors"
	"net/http"

	"github.com/hopeworks/smile/pkg/audit"
	"github.com/hopeworks/smile/pkg/httputil"
	"github.com/hopeworks/smile/pkg/identity"
	"github.com/hopeworks/smile/pkg/records"
)

// StaffHandlers serves staff profiles and the read-only user directory.
type StaffHandlers struct {
	server *Server
}

// list handles GET /api/staffs/
func (h *StaffHandlers) list(w http.ResponseWriter, r *http.Request) {
	staff, err := h.server.records.ListStaff(r.Context())
	if err != nil {
		writeRecordError(w, h.server, err, "")
		return
	}
	if staff == nil {
		staff = []records.Staff{}
	}
	httputil.WriteSuccess(w, staff)
}

// get handles GET /api/staffs/{id}/
func (h *StaffHandlers) get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	staff, err := h.server.records.GetStaff(r.Context(), id)
	if err != nil {
		writeRecordError(w, h.server, err, "staff profile not found")
		return
	}
	httputil.WriteSuccess(w, staff)
}

// create handles POST /api/staffs/
func (h *StaffHandlers) create(w http.ResponseWriter, r *http.Request) {
	var staff records.Staff
	if !httputil.ParseJSONOrError(w, r, &staff) {
		return
	}
	if err := staff.Validate(); err != nil {
		writeValidation(w, err)
		return
	}

	created, err := h.server.records.CreateStaff(r.Context(), &staff)
	if err != nil {
		writeRecordError(w, h.server, err, "")
		return
	}

	recordDataEvent(h.server, r, audit.EventRecordCreated, "staff", created.ID)
	httputil.WriteCreated(w, created)
}

// update handles PUT and PATCH /api/staffs/{id}/
func (h *StaffHandlers) update(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var patch records.StaffPatch
	if !httputil.ParseJSONOrError(w, r, &patch) {
		return
	}
	if r.Method == http.MethodPut {
		// The user link is immutable after creation; a full update
		// must carry every mutable field.
		errs := records.FieldErrors{}
		if patch.Position == nil {
			errs["position"] = "this field is required"
		}
		if patch.Phone == nil {
			errs["phone"] = "this field is required"
		}
		if len(errs) > 0 {
			writeValidation(w, errs)
			return
		}
	}
	if err := patch.Validate(); err != nil {
		writeValidation(w, err)
		return
	}

	updated, err := h.server.records.UpdateStaff(r.Context(), id, &patch)
	if err != nil {
		writeRecordError(w, h.server, err, "staff profile not found")
		return
	}

	recordDataEvent(h.server, r, audit.EventRecordUpdated, "staff", id)
	httputil.WriteSuccess(w, updated)
}

// delete handles DELETE /api/staffs/{id}/
func (h *StaffHandlers) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	if err := h.server.records.DeleteStaff(r.Context(), id); err != nil {
		writeRecordError(w, h.server, err, "staff profile not found")
		return
	}

	recordDataEvent(h.server, r, audit.EventRecordDeleted, "staff", id)
	httputil.WriteNoContent(w)
}

// userResponse is the reduced account view exposed by the user
// directory.
type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// listUsers handles GET /api/users/
func (h *StaffHandlers) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.server.identity.ListUsers(r.Context())
	if err != nil {
		h.server.logger.WithError(err).Error("failed to list users")
		httputil.WriteInternalError(w, err)
		return
	}

	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, userResponse{ID: u.ID, Username: u.Username, Email: u.Email})
	}
	httputil.WriteSuccess(w, out)
}

// getUser handles GET /api/users/{id}/
func (h *StaffHandlers) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	user, err := h.server.identity.GetUserByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			httputil.WriteNotFoundError(w, "user not found")
			return
		}
		h.server.logger.WithError(err).Error("failed to get user")
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, userResponse{ID: user.ID, Username: user.Username, Email: user.Email})
}
