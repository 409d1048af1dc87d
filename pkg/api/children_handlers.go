package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/gorilla/mux"

	"github.com/hopeworks/smile/pkg/audit"
	"github.com/hopeworks/smile/pkg/httputil"
	"github.com/hopeworks/smile/pkg/media"
	"github.com/hopeworks/smile/pkg/records"
)

// maxPhotoBytes caps child photo uploads.
const maxPhotoBytes = 10 << 20

// ChildrenHandlers serves the children CRUD plus the summary, detail,
// and photo endpoints.
type ChildrenHandlers struct {
	server *Server
}

// list handles GET /api/children/
func (h *ChildrenHandlers) list(w http.ResponseWriter, r *http.Request) {
	children, err := h.server.records.ListChildren(r.Context())
	if err != nil {
		h.server.logger.WithError(err).Error("failed to list children")
		httputil.WriteInternalError(w, err)
		return
	}
	if children == nil {
		children = []records.Child{}
	}
	httputil.WriteSuccess(w, children)
}

// listSummaries handles GET /api/children-summary/
func (h *ChildrenHandlers) listSummaries(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.server.records.ListChildSummaries(r.Context())
	if err != nil {
		h.server.logger.WithError(err).Error("failed to list child summaries")
		httputil.WriteInternalError(w, err)
		return
	}
	if summaries == nil {
		summaries = []records.ChildSummary{}
	}
	httputil.WriteSuccess(w, summaries)
}

// get handles GET /api/children/{id}/
func (h *ChildrenHandlers) get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	child, err := h.server.records.GetChild(r.Context(), id)
	if err != nil {
		writeRecordError(w, h.server, err, "child not found")
		return
	}
	httputil.WriteSuccess(w, child)
}

// getDetail handles GET /api/children-detail/{id}/
func (h *ChildrenHandlers) getDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	detail, err := h.server.records.GetChildDetail(r.Context(), id)
	if err != nil {
		writeRecordError(w, h.server, err, "child not found")
		return
	}
	if detail.ChildPrograms == nil {
		detail.ChildPrograms = []records.ChildProgram{}
	}
	httputil.WriteSuccess(w, detail)
}

// create handles POST /api/children/
func (h *ChildrenHandlers) create(w http.ResponseWriter, r *http.Request) {
	var child records.Child
	if !httputil.ParseJSONOrError(w, r, &child) {
		return
	}
	if err := child.Validate(); err != nil {
		writeValidation(w, err)
		return
	}

	created, err := h.server.records.CreateChild(r.Context(), &child)
	if err != nil {
		writeRecordError(w, h.server, err, "")
		return
	}

	recordDataEvent(h.server, r, audit.EventRecordCreated, "children", created.ID)
	httputil.WriteCreated(w, created)
}

// update handles PUT and PATCH /api/children/{id}/. PUT requires the
// full record; PATCH accepts any subset of fields.
func (h *ChildrenHandlers) update(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var patch records.ChildPatch
	if !httputil.ParseJSONOrError(w, r, &patch) {
		return
	}
	if r.Method == http.MethodPut {
		if err := fullChild(&patch).Validate(); err != nil {
			writeValidation(w, err)
			return
		}
	} else if err := patch.Validate(); err != nil {
		writeValidation(w, err)
		return
	}

	updated, err := h.server.records.UpdateChild(r.Context(), id, &patch)
	if err != nil {
		writeRecordError(w, h.server, err, "child not found")
		return
	}

	recordDataEvent(h.server, r, audit.EventRecordUpdated, "children", id)
	httputil.WriteSuccess(w, updated)
}

// fullChild materializes a patch into a Child so PUT can run the
// complete validation, treating absent fields as empty.
func fullChild(p *records.ChildPatch) *records.Child {
	c := &records.Child{}
	if p.FirstName != nil {
		c.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		c.LastName = *p.LastName
	}
	if p.Gender != nil {
		c.Gender = *p.Gender
	}
	if p.BirthDate != nil {
		c.BirthDate = *p.BirthDate
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.EntryDate != nil {
		c.EntryDate = *p.EntryDate
	}
	if p.Address != nil {
		c.Address = *p.Address
	}
	if p.GuardianName != nil {
		c.GuardianName = *p.GuardianName
	}
	if p.GuardianContact != nil {
		c.GuardianContact = *p.GuardianContact
	}
	if p.Reason != nil {
		c.Reason = *p.Reason
	}
	return c
}

// delete handles DELETE /api/children/{id}/
func (h *ChildrenHandlers) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	if err := h.server.records.DeleteChild(r.Context(), id); err != nil {
		writeRecordError(w, h.server, err, "child not found")
		return
	}

	recordDataEvent(h.server, r, audit.EventRecordDeleted, "children", id)
	httputil.WriteNoContent(w)
}

// uploadPhoto handles POST /api/children/{id}/photo/
func (h *ChildrenHandlers) uploadPhoto(w http.ResponseWriter, r *http.Request) {
	if h.server.media == nil {
		httputil.WriteErrorMessage(w, http.StatusNotImplemented, "media storage is not configured")
		return
	}

	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	// The child must exist before we accept the upload.
	if _, err := h.server.records.GetChild(r.Context(), id); err != nil {
		writeRecordError(w, h.server, err, "child not found")
		return
	}

	if err := r.ParseMultipartForm(maxPhotoBytes); err != nil {
		httputil.WriteValidationError(w, "expected multipart form upload")
		return
	}
	file, header, err := r.FormFile("image_data")
	if err != nil {
		httputil.WriteFieldErrors(w, map[string]string{"image_data": "this field is required"})
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		httputil.WriteFieldErrors(w, map[string]string{"image_data": "must be an image"})
		return
	}

	key := fmt.Sprintf("children_photos/%d%s", id, path.Ext(header.Filename))
	if err := h.server.media.Put(r.Context(), key, contentType, file); err != nil {
		h.server.logger.WithError(err).Error("failed to store child photo")
		httputil.WriteInternalError(w, err)
		return
	}
	if err := h.server.records.SetChildImage(r.Context(), id, key); err != nil {
		writeRecordError(w, h.server, err, "child not found")
		return
	}

	recordDataEvent(h.server, r, audit.EventRecordUpdated, "children", id)
	httputil.WriteSuccess(w, map[string]string{"image_data": key, "photo": "/media/" + key})
}

// serveMedia handles GET /media/{key} in non-production deployments.
func (h *ChildrenHandlers) serveMedia(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	if key == "" {
		httputil.WriteNotFoundError(w, "not found")
		return
	}

	rc, err := h.server.media.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, media.ErrNotFound) {
			httputil.WriteNotFoundError(w, "not found")
			return
		}
		h.server.logger.WithError(err).Error("failed to read media object")
		httputil.WriteInternalError(w, err)
		return
	}
	defer rc.Close()

	io.Copy(w, rc)
}
