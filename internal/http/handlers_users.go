package http

import (
	"net/http"

	"grledger/internal/core"
	"grledger/internal/ledger"
)

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users := s.deps.App.Users()
	out := make([]UserView, 0, len(users))
	for _, u := range users {
		out = append(out, viewUser(u))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	p, err := s.parseBody(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var password, photo string
	if err := p.Decode("password", &password); err != nil {
		writeError(w, r, err)
		return
	}
	if err := p.Decode("photo", &photo); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.deps.App.Dispatch(r.Context(), ledger.AddUser{
		Username: p.Get("username"),
		Password: password,
		Role:     core.Role(p.Get("role")),
		Photo:    photo,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if u, ok := res.Record.(core.User); ok {
		res.Record = viewUser(u)
	}
	writeJSON(w, resultStatus(res), res)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.App.Dispatch(r.Context(), ledger.DeleteUser{ID: r.PathValue("id"), Confirmed: confirmed(r)})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if u, ok := res.Record.(core.User); ok {
		res.Record = viewUser(u)
	}
	writeJSON(w, http.StatusOK, res)
}
