package api

import (
	"net/http"

	"github.com/hopeworks/smile/pkg/audit"
	"github.com/hopeworks/smile/pkg/httputil"
	"github.com/hopeworks/smile/pkg/records"
)

// SponsorsHandlers serves the sponsor and donation endpoints.
type SponsorsHandlers struct {
	server *Server
}

// list handles GET /api/sponsors/
func (h *SponsorsHandlers) list(w http.ResponseWriter, r *http.Request) {
	sponsors, err := h.server.records.ListSponsors(r.Context())
	if err != nil {
		writeRecordError(w, h.server, err, "")
		return
	}
	if sponsors == nil {
		sponsors = []records.Sponsor{}
	}
	httputil.WriteSuccess(w, sponsors)
}

// get handles GET /api/sponsors/{id}/
func (h *SponsorsHandlers) get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	sponsor, err := h.server.records.GetSponsor(r.Context(), id)
	if err != nil {
		writeRecordError(w, h.server, err, "sponsor not found")
		return
	}
	httputil.WriteSuccess(w, sponsor)
}

// create handles POST /api/sponsors/
func (h *SponsorsHandlers) create(w http.ResponseWriter, r *http.Request) {
	var sponsor records.Sponsor
	if !httputil.ParseJSONOrError(w, r, &sponsor) {
		return
	}
	if err := sponsor.Validate(); err != nil {
		writeValidation(w, err)
		return
	}

	created, err := h.server.records.CreateSponsor(r.Context(), &sponsor)
	if err != nil {
		writeRecordError(w, h.server, err, "")
		return
	}

	recordDataEvent(h.server, r, audit.EventRecordCreated, "sponsors", created.ID)
	httputil.WriteCreated(w, created)
}

// update handles PUT and PATCH /api/sponsors/{id}/
func (h *SponsorsHandlers) update(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var patch records.SponsorPatch
	if !httputil.ParseJSONOrError(w, r, &patch) {
		return
	}
	if r.Method == http.MethodPut {
		if err := fullSponsor(&patch).Validate(); err != nil {
			writeValidation(w, err)
			return
		}
	} else if err := patch.Validate(); err != nil {
		writeValidation(w, err)
		return
	}

	updated, err := h.server.records.UpdateSponsor(r.Context(), id, &patch)
	if err != nil {
		writeRecordError(w, h.server, err, "sponsor not found")
		return
	}

	recordDataEvent(h.server, r, audit.EventRecordUpdated, "sponsors", id)
	httputil.WriteSuccess(w, updated)
}

func fullSponsor(p *records.SponsorPatch) *records.Sponsor {
	sp := &records.Sponsor{}
	if p.Name != nil {
		sp.Name = *p.Name
	}
	if p.Email != nil {
		sp.Email = *p.Email
	}
	if p.Phone != nil {
		sp.Phone = *p.Phone
	}
	if p.Address != nil {
		sp.Address = *p.Address
	}
	if p.SponsorType != nil {
		sp.SponsorType = *p.SponsorType
	}
	if p.PreferredContact != nil {
		sp.PreferredContact = *p.PreferredContact
	}
	return sp
}

// delete handles DELETE /api/sponsors/{id}/
func (h *SponsorsHandlers) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	if err := h.server.records.DeleteSponsor(r.Context(), id); err != nil {
		writeRecordError(w, h.server, err, "sponsor not found")
		return
	}

	recordDataEvent(h.server, r, audit.EventRecordDeleted, "sponsors", id)
	httputil.WriteNoContent(w)
}

// listDonations handles GET /api/donations/
func (h *SponsorsHandlers) listDonations(w http.ResponseWriter, r *http.Request) {
	donations, err := h.server.records.ListDonations(r.Context())
	if err != nil {
		writeRecordError(w, h.server, err, "")
		return
	}
	if donations == nil {
		donations = []records.Donation{}
	}
	httputil.WriteSuccess(w, donations)
}

// getDonation handles GET /api/donations/{id}/
func (h *SponsorsHandlers) getDonation(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	donation, err := h.server.records.GetDonation(r.Context(), id)
	if err != nil {
		writeRecordError(w, h.server, err, "donation not found")
		return
	}
	httputil.WriteSuccess(w, donation)
}

// createDonation handles POST /api/donations/
func (h *SponsorsHandlers) createDonation(w http.ResponseWriter, r *http.Request) {
	var donation records.Donation
	if !httputil.ParseJSONOrError(w, r, &donation) {
		return
	}
	if err := donation.Validate(); err != nil {
		writeValidation(w, err)
		return
	}

	created, err := h.server.records.CreateDonation(r.Context(), &donation)
	if err != nil {
		writeRecordError(w, h.server, err, "")
		return
	}

	recordDataEvent(h.server, r, audit.EventRecordCreated, "donations", created.ID)
	httputil.WriteCreated(w, created)
}

// updateDonation handles PUT and PATCH /api/donations/{id}/
func (h *SponsorsHandlers) updateDonation(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var patch records.DonationPatch
	if !httputil.ParseJSONOrError(w, r, &patch) {
		return
	}
	if r.Method == http.MethodPut {
		if err := fullDonation(&patch).Validate(); err != nil {
			writeValidation(w, err)
			return
		}
	} else if err := patch.Validate(); err != nil {
		writeValidation(w, err)
		return
	}

	updated, err := h.server.records.UpdateDonation(r.Context(), id, &patch)
	if err != nil {
		writeRecordError(w, h.server, err, "donation not found")
		return
	}

	recordDataEvent(h.server, r, audit.EventRecordUpdated, "donations", id)
	httputil.WriteSuccess(w, updated)
}

func fullDonation(p *records.DonationPatch) *records.Donation {
	d := &records.Donation{}
	if p.SponsorID != nil {
		d.SponsorID = *p.SponsorID
	}
	if p.Amount != nil {
		d.Amount = *p.Amount
	}
	if p.DonationDate != nil {
		d.DonationDate = *p.DonationDate
	}
	if p.PaymentMethod != nil {
		d.PaymentMethod = *p.PaymentMethod
	}
	if p.Purpose != nil {
		d.Purpose = *p.Purpose
	}
	return d
}

// deleteDonation handles DELETE /api/donations/{id}/
func (h *SponsorsHandlers) deleteDonation(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	if err := h.server.records.DeleteDonation(r.Context(), id); err != nil {
		writeRecordError(w, h.server, err, "donation not found")
		return
	}

	recordDataEvent(h.server, r, audit.EventRecordDeleted, "donations", id)
	httputil.WriteNoContent(w)
}
