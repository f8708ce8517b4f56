package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"neuroscan/internal/domain"
)

func withCookies(t *testing.T, w *httptest.ResponseRecorder) *http.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w.Result().Cookies() {
		r.AddCookie(c)
	}
	return r
}

func TestSessionEstablishAndIdentity(t *testing.T) {
	m := NewSessionManager("test-secret")

	pid := int64(4711)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if err := m.Establish(w, r, domain.Identity{Username: "4711", Role: domain.RolePatient, PatientID: &pid}); err != nil {
		t.Fatalf("Establish: %v", err)
	}

	id, ok := m.Identity(withCookies(t, w))
	if !ok {
		t.Fatal("Identity returned anonymous after Establish")
	}
	if id.Username != "4711" || id.Role != domain.RolePatient {
		t.Errorf("unexpected identity: %+v", id)
	}
	if id.PatientID == nil || *id.PatientID != pid {
		t.Errorf("patient id not carried through the session: %+v", id.PatientID)
	}
}

func TestSessionAnonymousByDefault(t *testing.T) {
	m := NewSessionManager("test-secret")

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := m.Identity(r); ok {
		t.Error("fresh request should be anonymous")
	}
}

func TestSessionReloginClearsOldValues(t *testing.T) {
	m := NewSessionManager("test-secret")

	pid := int64(99)
	w1 := httptest.NewRecorder()
	r1 := httptest.NewRequest(http.MethodGet, "/", nil)
	if err := m.Establish(w1, r1, domain.Identity{Username: "99", Role: domain.RolePatient, PatientID: &pid}); err != nil {
		t.Fatalf("Establish patient: %v", err)
	}

	// Log in again as admin with the patient cookie attached; the old
	// patient linkage must not bleed into the new session.
	w2 := httptest.NewRecorder()
	r2 := withCookies(t, w1)
	if err := m.Establish(w2, r2, domain.Identity{Username: "admin", Role: domain.RoleAdmin}); err != nil {
		t.Fatalf("Establish admin: %v", err)
	}

	id, ok := m.Identity(withCookies(t, w2))
	if !ok {
		t.Fatal("expected authenticated session")
	}
	if id.Role != domain.RoleAdmin || id.Username != "admin" {
		t.Errorf("unexpected identity after relogin: %+v", id)
	}
	if id.PatientID != nil {
		t.Errorf("stale patient id survived relogin: %d", *id.PatientID)
	}
}

func TestSessionClear(t *testing.T) {
	m := NewSessionManager("test-secret")

	w1 := httptest.NewRecorder()
	r1 := httptest.NewRequest(http.MethodGet, "/", nil)
	if err := m.Establish(w1, r1, domain.Identity{Username: "admin", Role: domain.RoleAdmin}); err != nil {
		t.Fatalf("Establish: %v", err)
	}

	w2 := httptest.NewRecorder()
	if err := m.Clear(w2, withCookies(t, w1)); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	for _, c := range w2.Result().Cookies() {
		if c.Name == SessionName && c.MaxAge >= 0 {
			t.Errorf("session cookie was not expired: MaxAge=%d", c.MaxAge)
		}
	}

	// Even a client that replays the cleared cookie stays anonymous.
	if _, ok := m.Identity(withCookies(t, w2)); ok {
		t.Error("cleared session still authenticates")
	}
}
