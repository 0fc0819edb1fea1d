package api

import (
	"net/http"

	"shareit/internal/models"

	"github.com/julienschmidt/httprouter"
)

const searchSegment = "search"

func (s *HTTPServer) createItem(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ownerID, err := s.actingUser(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var req createItemRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	item, err := s.services.Items.CreateItem(r.Context(), ownerID, req.item())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *HTTPServer) updateItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ownerID, err := s.actingUser(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	itemID, err := pathID(ps, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var req updateItemRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	item, err := s.services.Items.UpdateItem(r.Context(), ownerID, itemID, req.patch())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// getItem serves /items/{id} and the text search at /items/search.
func (s *HTTPServer) getItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if ps.ByName("id") == searchSegment {
		s.searchItems(w, r, ps)
		return
	}

	actorID, err := s.actingUser(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	itemID, err := pathID(ps, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}

	view, err := s.services.Items.GetItem(r.Context(), actorID, itemID, s.now())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view.Payload())
}

func (s *HTTPServer) listOwnerItems(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ownerID, err := s.actingUser(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	from, size, err := s.pageParams(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	views, err := s.services.Items.ListOwnerItems(r.Context(), ownerID, from, size, s.now())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if views == nil {
		views = []*models.OwnerItemView{}
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *HTTPServer) searchItems(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
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

	items, err := s.services.Items.SearchItems(r.Context(), actorID, r.URL.Query().Get("text"), from, size)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if items == nil {
		items = []*models.Item{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *HTTPServer) addComment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	authorID, err := s.actingUser(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	itemID, err := pathID(ps, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var req commentRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	comment, err := s.services.Comments.SubmitComment(r.Context(), authorID, itemID, req.Text, s.now())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comment)
}
