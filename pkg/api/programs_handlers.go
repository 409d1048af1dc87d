package api

import (
	"net/http"

	"github.com/hopeworks/smile/pkg/audit"
	"github.com/hopeworks/smile/pkg/httputil"
	"github.com/hopeworks/smile/pkg/records"
)

// ProgramsHandlers serves the program and enrollment endpoints.
type ProgramsHandlers struct {
	server *Server
}

// list handles GET /api/programs/
func (h *ProgramsHandlers) list(w http.ResponseWriter, r *http.Request) {
	programs, err := h.server.records.ListPrograms(r.Context())
	if err != nil {
		writeRecordError(w, h.server, err, "")
		return
	}
	if programs == nil {
		programs = []records.Program{}
	}
	httputil.WriteSuccess(w, programs)
}

// get handles GET /api/programs/{id}/
func (h *ProgramsHandlers) get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	program, err := h.server.records.GetProgram(r.Context(), id)
	if err != nil {
		writeRecordError(w, h.server, err, "program not found")
		return
	}
	httputil.WriteSuccess(w, program)
}

// create handles POST /api/programs/
func (h *ProgramsHandlers) create(w http.ResponseWriter, r *http.Request) {
	var program records.Program
	if !httputil.ParseJSONOrError(w, r, &program) {
		return
	}
	if err := program.Validate(); err != nil {
		writeValidation(w, err)
		return
	}

	created, err := h.server.records.CreateProgram(r.Context(), &program)
	if err != nil {
		writeRecordError(w, h.server, err, "")
		return
	}

	recordDataEvent(h.server, r, audit.EventRecordCreated, "programs", created.ID)
	httputil.WriteCreated(w, created)
}

// update handles PUT and PATCH /api/programs/{id}/
func (h *ProgramsHandlers) update(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var patch records.ProgramPatch
	if !httputil.ParseJSONOrError(w, r, &patch) {
		return
	}
	if r.Method == http.MethodPut {
		if err := fullProgram(&patch).Validate(); err != nil {
			writeValidation(w, err)
			return
		}
	} else if err := patch.Validate(); err != nil {
		writeValidation(w, err)
		return
	}

	updated, err := h.server.records.UpdateProgram(r.Context(), id, &patch)
	if err != nil {
		writeRecordError(w, h.server, err, "program not found")
		return
	}

	recordDataEvent(h.server, r, audit.EventRecordUpdated, "programs", id)
	httputil.WriteSuccess(w, updated)
}

func fullProgram(p *records.ProgramPatch) *records.Program {
	out := &records.Program{}
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Location != nil {
		out.Location = *p.Location
	}
	return out
}

// delete handles DELETE /api/programs/{id}/
func (h *ProgramsHandlers) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	if err := h.server.records.DeleteProgram(r.Context(), id); err != nil {
		writeRecordError(w, h.server, err, "program not found")
		return
	}

	recordDataEvent(h.server, r, audit.EventRecordDeleted, "programs", id)
	httputil.WriteNoContent(w)
}

// listEnrollments handles GET /api/childprograms/
func (h *ProgramsHandlers) listEnrollments(w http.ResponseWriter, r *http.Request) {
	enrollments, err := h.server.records.ListChildPrograms(r.Context())
	if err != nil {
		writeRecordError(w, h.server, err, "")
		return
	}
	if enrollments == nil {
		enrollments = []records.ChildProgram{}
	}
	httputil.WriteSuccess(w, enrollments)
}

// getEnrollment handles GET /api/childprograms/{id}/
func (h *ProgramsHandlers) getEnrollment(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	enrollment, err := h.server.records.GetChildProgram(r.Context(), id)
	if err != nil {
		writeRecordError(w, h.server, err, "enrollment not found")
		return
	}
	httputil.WriteSuccess(w, enrollment)
}

// createEnrollment handles POST /api/childprograms/
func (h *ProgramsHandlers) createEnrollment(w http.ResponseWriter, r *http.Request) {
	var enrollment records.ChildProgram
	if !httputil.ParseJSONOrError(w, r, &enrollment) {
		return
	}
	if err := enrollment.Validate(); err != nil {
		writeValidation(w, err)
		return
	}

	created, err := h.server.records.CreateChildProgram(r.Context(), &enrollment)
	if err != nil {
		writeRecordError(w, h.server, err, "")
		return
	}

	recordDataEvent(h.server, r, audit.EventRecordCreated, "childprograms", created.ID)
	httputil.WriteCreated(w, created)
}

// updateEnrollment handles PUT and PATCH /api/childprograms/{id}/
func (h *ProgramsHandlers) updateEnrollment(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var patch records.ChildProgramPatch
	if !httputil.ParseJSONOrError(w, r, &patch) {
		return
	}
	if r.Method == http.MethodPut {
		if err := fullEnrollment(&patch).Validate(); err != nil {
			writeValidation(w, err)
			return
		}
	} else if err := patch.Validate(); err != nil {
		writeValidation(w, err)
		return
	}

	updated, err := h.server.records.UpdateChildProgram(r.Context(), id, &patch)
	if err != nil {
		writeRecordError(w, h.server, err, "enrollment not found")
		return
	}

	recordDataEvent(h.server, r, audit.EventRecordUpdated, "childprograms", id)
	httputil.WriteSuccess(w, updated)
}

func fullEnrollment(p *records.ChildProgramPatch) *records.ChildProgram {
	cp := &records.ChildProgram{}
	if p.ChildID != nil {
		cp.ChildID = *p.ChildID
	}
	if p.ProgramID != nil {
		cp.ProgramID = *p.ProgramID
	}
	if p.Level != nil {
		cp.Level = *p.Level
	}
	cp.Assesment = p.Assesment
	if p.Location != nil {
		cp.Location = *p.Location
	}
	if p.StartDate != nil {
		cp.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		cp.EndDate = *p.EndDate
	}
	if p.FeesPerTerm != nil {
		cp.FeesPerTerm = *p.FeesPerTerm
	}
	return cp
}

// deleteEnrollment handles DELETE /api/childprograms/{id}/
func (h *ProgramsHandlers) deleteEnrollment(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	if err := h.server.records.DeleteChildProgram(r.Context(), id); err != nil {
		writeRecordError(w, h.server, err, "enrollment not found")
		return
	}

	recordDataEvent(h.server, r, audit.EventRecordDeleted, "childprograms", id)
	httputil.WriteNoContent(w)
}
