package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-policyforge/pkg/countries"
	"github.com/goliatone/go-policyforge/pkg/wizard"
)

// session is one browser's wizard. The controller synchronises itself; mu
// guards the picker and lastSeen.
type session struct {
	id     uuid.UUID
	wizard *wizard.Controller

	mu       sync.Mutex
	picker   *countries.Picker
	lastSeen time.Time
}

type sessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*session
	ttl      time.Duration
	now      func() time.Time
	create   func() (*wizard.Controller, error)
	entries  func() []countries.Entry
	onChange func(n int)
}

func (st *sessionStore) lookup(r *http.Request, cookieName string) (*session, bool) {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return nil, false
	}
	id, err := uuid.Parse(cookie.Value)
	if err != nil {
		return nil, false
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	st.sweepLocked()
	sess, ok := st.sessions[id]
	if !ok {
		return nil, false
	}
	sess.mu.Lock()
	sess.lastSeen = st.now()
	sess.mu.Unlock()
	return sess, true
}

// obtain returns the caller's session, creating one (and setting the cookie)
// when the request has none or it expired.
func (st *sessionStore) obtain(w http.ResponseWriter, r *http.Request, cookieName string) (*session, error) {
	if sess, ok := st.lookup(r, cookieName); ok {
		return sess, nil
	}

	ctrl, err := st.create()
	if err != nil {
		return nil, err
	}
	sess := &session{
		id:       uuid.New(),
		wizard:   ctrl,
		picker:   countries.NewPicker(st.entries()),
		lastSeen: st.now(),
	}

	st.mu.Lock()
	st.sessions[sess.id] = sess
	n := len(st.sessions)
	st.mu.Unlock()
	if st.onChange != nil {
		st.onChange(n)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    sess.id.String(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(st.ttl.Seconds()),
	})
	return sess, nil
}

func (st *sessionStore) sweepLocked() {
	cutoff := st.now().Add(-st.ttl)
	removed := false
	for id, sess := range st.sessions {
		sess.mu.Lock()
		expired := sess.lastSeen.Before(cutoff)
		sess.mu.Unlock()
		if expired && !sess.wizard.Busy() {
			delete(st.sessions, id)
			removed = true
		}
	}
	if removed && st.onChange != nil {
		st.onChange(len(st.sessions))
	}
}

func (st *sessionStore) len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// withPicker runs fn with the session picker locked, first refreshing its
// entries if the catalog finished loading after the session was created.
func (s *session) withPicker(entries func() []countries.Entry, fn func(p *countries.Picker)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.picker.Entries()) == 0 {
		if loaded := entries(); len(loaded) > 0 {
			s.picker.SetEntries(loaded)
		}
	}
	fn(s.picker)
}
