package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-policyforge/pkg/countries"
	"github.com/goliatone/go-policyforge/pkg/export"
	"github.com/goliatone/go-policyforge/pkg/policy"
	"github.com/goliatone/go-policyforge/pkg/wizard"
)

const (
	countryPlaceholder = "Select a country"
	maxFormBytes       = 64 << 10

	pendingRefreshSeconds = 1
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "index", map[string]any{
		"step_count": len(s.definition.Steps),
	})
}

func (s *Server) handleWizard(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.obtain(w, r, s.cookieName)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.renderWizard(w, http.StatusOK, sess)
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.submit(w, r)
	if !ok {
		return
	}
	if !sess.wizard.GoNext() {
		s.renderWizard(w, http.StatusUnprocessableEntity, sess)
		return
	}
	http.Redirect(w, r, "/wizard", http.StatusSeeOther)
}

func (s *Server) handlePrev(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.submit(w, r)
	if !ok {
		return
	}
	sess.wizard.GoPrev()
	http.Redirect(w, r, "/wizard", http.StatusSeeOther)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.submit(w, r)
	if !ok {
		return
	}

	_, err := sess.wizard.Generate(r.Context())
	switch {
	case err == nil:
		http.Redirect(w, r, "/result", http.StatusSeeOther)
	case errors.Is(err, wizard.ErrBusy):
		s.renderPending(w, http.StatusConflict)
	case errors.Is(err, wizard.ErrIncomplete):
		sess.wizard.RewindToInvalid()
		s.renderWizard(w, http.StatusUnprocessableEntity, sess)
	case errors.Is(err, wizard.ErrNotFinalStep):
		http.Redirect(w, r, "/wizard", http.StatusSeeOther)
	default:
		s.fail(w, err)
	}
}

// submit records the posted answers for the active step. The country field is
// owned by the picker, so an empty posted country keeps the picker's choice.
func (s *Server) submit(w http.ResponseWriter, r *http.Request) (*session, bool) {
	sess, err := s.sessions.obtain(w, r, s.cookieName)
	if err != nil {
		s.fail(w, err)
		return nil, false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return nil, false
	}

	posted := r.PostForm
	for _, field := range s.countryFields() {
		if strings.TrimSpace(posted.Get(field)) == "" {
			if current := sess.wizard.Value(field); current != "" {
				posted.Set(field, current)
			}
		}
	}
	sess.wizard.Submit(posted)
	return sess, true
}

func (s *Server) countryFields() []string {
	var names []string
	for _, step := range s.definition.Steps {
		for _, field := range step.Fields {
			if field.Kind == wizard.KindCountry {
				names = append(names, field.Name)
			}
		}
	}
	return names
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	sess, doc, ok := s.result(w, r)
	if !ok {
		return
	}
	s.render(w, http.StatusOK, "result", map[string]any{
		"fragment": policy.Sanitize(doc),
		"company":  sess.wizard.Value(policy.FieldCompanyName),
	})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	sess, doc, ok := s.result(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if r.URL.Query().Get("inline") == "" {
		name := export.DownloadFilename(sess.wizard.Value(policy.FieldCompanyName))
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	}
	if err := export.WriteDownload(w, doc); err != nil {
		s.logger.WithError(err).Error("write download")
	}
}

func (s *Server) handlePrint(w http.ResponseWriter, r *http.Request) {
	sess, doc, ok := s.result(w, r)
	if !ok {
		return
	}
	title := "Privacy Policy"
	if company := sess.wizard.Value(policy.FieldCompanyName); company != "" {
		title = company + " Privacy Policy"
	}
	page, err := export.PrintPage(doc, title)
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(page))
}

// result returns the last generated document, redirecting to the wizard when
// the session has none.
func (s *Server) result(w http.ResponseWriter, r *http.Request) (*session, string, bool) {
	sess, ok := s.sessions.lookup(r, s.cookieName)
	if !ok {
		http.Redirect(w, r, "/wizard", http.StatusSeeOther)
		return nil, "", false
	}
	if sess.wizard.Busy() {
		s.renderPending(w, http.StatusOK)
		return nil, "", false
	}
	doc, ok := sess.wizard.Result()
	if !ok {
		http.Redirect(w, r, "/wizard", http.StatusSeeOther)
		return nil, "", false
	}
	return sess, doc, true
}

// renderPending answers while a generation is running; the page refreshes
// into /result. StatusConflict marks a second generate request.
func (s *Server) renderPending(w http.ResponseWriter, status int) {
	s.render(w, status, "pending", map[string]any{
		"refresh":  pendingRefreshSeconds,
		"conflict": status == http.StatusConflict,
	})
}

// handlePicker applies one picker interaction and returns the picker markup.
// Query parameters: toggle=1, click=outside|inside|search, q=<term>,
// select=<name>. list=1 returns only the filtered list; redirect=1 sends
// browsers without scripting back to the wizard page.
func (s *Server) handlePicker(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.obtain(w, r, s.cookieName)
	if err != nil {
		s.fail(w, err)
		return
	}
	query := r.URL.Query()
	field := s.primaryCountryField()

	var view countries.PickerView
	sess.withPicker(s.countries.Entries, func(p *countries.Picker) {
		if query.Get("toggle") != "" {
			p.Click(countries.ClickTrigger)
		}
		switch query.Get("click") {
		case "outside":
			p.Click(countries.ClickOutside)
		case "inside":
			p.Click(countries.ClickInside)
		case "search":
			p.Click(countries.ClickSearch)
		}
		if _, ok := query["q"]; ok {
			p.Open()
			p.Filter(query.Get("q"))
		}
		if name := query.Get("select"); name != "" {
			if p.SelectByName(name) && field != "" {
				sess.wizard.Set(field, name)
			}
		}
		view = p.View(countryPlaceholder)
	})

	if query.Get("redirect") != "" {
		http.Redirect(w, r, "/wizard", http.StatusSeeOther)
		return
	}
	name := "picker"
	if query.Get("list") != "" {
		name = "picker_list"
	}
	s.render(w, http.StatusOK, name, map[string]any{
		"picker":        view,
		"country_field": field,
	})
}

func (s *Server) primaryCountryField() string {
	fields := s.countryFields()
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func (s *Server) renderWizard(w http.ResponseWriter, status int, sess *session) {
	view := sess.wizard.View()
	field := s.primaryCountryField()

	var picker countries.PickerView
	sess.withPicker(s.countries.Entries, func(p *countries.Picker) {
		if current := sess.wizard.Value(field); current != "" {
			if entry, ok := countries.Find(p.Entries(), current); ok {
				if selected, has := p.Selected(); !has || selected.Name != entry.Name {
					p.Select(entry)
				}
			}
		}
		picker = p.View(countryPlaceholder)
	})

	s.render(w, status, "wizard", map[string]any{
		"view":   newStepView(view),
		"picker":        picker,
		"country_field": field,
		"busy":          view.Busy,
	})
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data map[string]any) {
	out, err := s.views.RenderTemplate(name, data)
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(out))
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	s.logger.WithError(err).Error("request failed")
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
