package auth

import (
	"crypto/sha256"
	"net/http"

	"github.com/gorilla/sessions"

	"neuroscan/internal/domain"
)

// SessionName is the cookie under which the browser session travels.
const SessionName = "neuroscan-session"

// SessionManager maps an authenticated request to a role-tagged
// identity for the lifetime of a browser session.
type SessionManager struct {
	store *sessions.CookieStore
}

// NewSessionManager derives signing and encryption keys from the
// configured secret and builds the backing cookie store.
func NewSessionManager(secret string) *SessionManager {
	authKey := sha256.Sum256([]byte(secret + "auth"))
	encKey := sha256.Sum256([]byte(secret + "encryption"))

	store := sessions.NewCookieStore(authKey[:], encKey[:])
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionManager{store: store}
}

// Establish clears any existing session values before writing the new
// identity, so a fresh login can never inherit a stale role.
func (m *SessionManager) Establish(w http.ResponseWriter, r *http.Request, id domain.Identity) error {
	session, _ := m.store.Get(r, SessionName)
	for k := range session.Values {
		delete(session.Values, k)
	}
	session.Values["username"] = id.Username
	session.Values["role"] = string(id.Role)
	if id.PatientID != nil {
		session.Values["patient_id"] = *id.PatientID
	}
	return session.Save(r, w)
}

// Clear drops the session values and expires the cookie, so a replayed
// copy of it no longer authenticates.
func (m *SessionManager) Clear(w http.ResponseWriter, r *http.Request) error {
	session, _ := m.store.Get(r, SessionName)
	for k := range session.Values {
		delete(session.Values, k)
	}
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

// Identity returns the authenticated identity bound to the request, or
// ok=false when the session is anonymous.
func (m *SessionManager) Identity(r *http.Request) (domain.Identity, bool) {
	session, _ := m.store.Get(r, SessionName)

	username, ok := session.Values["username"].(string)
	if !ok || username == "" {
		return domain.Identity{}, false
	}
	role, ok := session.Values["role"].(string)
	if !ok || role == "" {
		return domain.Identity{}, false
	}

	id := domain.Identity{Username: username, Role: domain.Role(role)}
	if pid, ok := session.Values["patient_id"].(int64); ok {
		id.PatientID = &pid
	}
	return id, true
}
