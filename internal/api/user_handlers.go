package api

import (
	"net/http"

	"shareit/internal/models"

	"github.com/julienschmidt/httprouter"
)

func (s *HTTPServer) createUser(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req createUserRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	user, err := s.services.Users.CreateUser(r.Context(), &models.User{Name: req.Name, Email: req.Email})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *HTTPServer) getUser(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, err := pathID(ps, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}

	user, err := s.services.Users.GetUser(r.Context(), userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
