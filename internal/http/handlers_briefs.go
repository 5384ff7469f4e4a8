package http

import (
	"net/http"

	"grledger/internal/core"
	"grledger/internal/forms"
	"grledger/internal/ledger"
)

// Nested brief fields are decoded separately from the scalar ones.
var briefReadOnly = []string{"id", "createdAt", "status", "sliders", "kebutuhanLogo", "referensi"}

func (s *Server) handleListBriefs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.App.Briefs())
}

func author(r *http.Request) string {
	if c, ok := ClaimsFromContext(r.Context()); ok {
		return c.Username
	}
	return ""
}

func (s *Server) handleNewBrief(w http.ResponseWriter, r *http.Request) {
	f := forms.NewBriefForm(author(r), s.formOptions()...)
	writeJSON(w, http.StatusOK, f.Draft())
}

func (s *Server) handleCreateBrief(w http.ResponseWriter, r *http.Request) {
	s.saveBrief(w, r, forms.NewBriefForm(author(r), s.formOptions()...))
}

func (s *Server) handleUpdateBrief(w http.ResponseWriter, r *http.Request) {
	existing, ok := s.deps.App.Brief(r.PathValue("id"))
	if !ok {
		writeError(w, r, ledger.ErrNotFound)
		return
	}
	f := forms.NewBriefForm(author(r), s.formOptions()...)
	f.Load(&existing, existing.PembuatBrief)
	s.saveBrief(w, r, f)
}

func (s *Server) saveBrief(w http.ResponseWriter, r *http.Request, f *forms.BriefForm) {
	p, err := s.parseBody(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	values, err := p.Values(briefReadOnly...)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := forms.Apply(f, values); err != nil {
		writeError(w, r, err)
		return
	}
	if err := applyBriefNested(p, f); err != nil {
		writeError(w, r, err)
		return
	}
	b, err := f.Submit()
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.dispatch(w, r, ledger.SaveBrief{Brief: b})
}

// applyBriefNested merges the object and array fields of a brief body.
// Status flags and sliders may be sent partially.
func applyBriefNested(p *RequestBodyParser, f *forms.BriefForm) error {
	if p.Has("status") {
		var flags map[string]bool
		if err := p.Decode("status", &flags); err != nil {
			return err
		}
		for _, flag := range core.StatusFlags {
			if on, ok := flags[string(flag)]; ok {
				if err := f.SetStatus(flag, on); err != nil {
					return err
				}
			}
		}
	}
	if p.Has("sliders") {
		var dials map[string]int
		if err := p.Decode("sliders", &dials); err != nil {
			return err
		}
		for _, axis := range core.SliderAxes {
			if v, ok := dials[string(axis)]; ok {
				if err := f.SetSlider(axis, v); err != nil {
					return err
				}
			}
		}
	}
	if p.Has("kebutuhanLogo") {
		var tags []string
		if err := p.Decode("kebutuhanLogo", &tags); err != nil {
			return err
		}
		f.SetNeeds(tags)
	}
	if p.Has("referensi") {
		var refs []string
		if err := p.Decode("referensi", &refs); err != nil {
			return err
		}
		if err := f.SetReferences(refs); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) handleDeleteBrief(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, ledger.DeleteBrief{ID: r.PathValue("id"), Confirmed: confirmed(r)})
}
