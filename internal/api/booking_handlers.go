package api

import (
	"fmt"
	"net/http"

	"shareit/internal/models"

	"github.com/julienschmidt/httprouter"
)

const ownerSegment = "owner"

func (s *HTTPServer) createBooking(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	bookerID, err := s.actingUser(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var req createBookingRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	details, err := s.services.Bookings.CreateBooking(r.Context(), bookerID, req.ItemID, req.Start, req.End)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (s *HTTPServer) decideBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actorID, err := s.actingUser(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	bookingID, err := pathID(ps, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}

	details, err := s.services.Bookings.DecideBooking(r.Context(), bookingID, actorID, r.URL.Query().Get("approved"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

// getBooking serves /bookings/{id} and the owner listing at /bookings/owner.
func (s *HTTPServer) getBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if ps.ByName("id") == ownerSegment {
		s.listOwnerBookings(w, r, ps)
		return
	}

	actorID, err := s.actingUser(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	bookingID, err := pathID(ps, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}

	details, err := s.services.Bookings.GetBooking(r.Context(), actorID, bookingID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (s *HTTPServer) listBookerBookings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.listBookings(w, r, s.services.Queries.ListBookerBookings)
}

func (s *HTTPServer) listOwnerBookings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.listBookings(w, r, s.services.Queries.ListOwnerBookings)
}

func (s *HTTPServer) listBookings(w http.ResponseWriter, r *http.Request, fn listFunc) {
	actorID, err := s.actingUser(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	from, size, err := s.pageParams(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	rows, err := fn(r.Context(), actorID, stateParam(r), from, size)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if rows == nil {
		rows = []*models.BookingDetails{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// exportOwnerBookings writes every owner booking in the requested state as
// an xlsx workbook.
func (s *HTTPServer) exportOwnerBookings(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if ps.ByName("id") != ownerSegment {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	ownerID, err := s.actingUser(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	state := stateParam(r)
	pageSize := s.booking.ExportBatchSize
	var all []*models.BookingDetails
	for from := 0; ; from += pageSize {
		rows, err := s.services.Queries.ListOwnerBookings(r.Context(), ownerID, state, from, pageSize)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		all = append(all, rows...)
		if len(rows) < pageSize {
			break
		}
	}

	now := s.now().UTC()
	filename := fmt.Sprintf("bookings_owner_%d_%s.xlsx", ownerID, now.Format("20060102_150405"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := writeBookingsWorkbook(w, state, all, now); err != nil {
		s.logger.Error().Err(err).Int64("owner_id", ownerID).Msg("failed to write bookings workbook")
	}
}
