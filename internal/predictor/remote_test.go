package predictor

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func writeImageFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scan.png")
	if err := os.WriteFile(path, []byte("fake image bytes"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestRemotePredict(t *testing.T) {
	path := writeImageFile(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method: got %s want POST", r.Method)
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		if header.Filename != "scan.png" {
			t.Errorf("filename: got %q", header.Filename)
		}
		payload, _ := io.ReadAll(file)
		if string(payload) != "fake image bytes" {
			t.Errorf("payload mismatch: %q", payload)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"label":"glioma_tumor","confidence":0.91}`))
	}))
	defer srv.Close()

	p := NewRemote(srv.URL, srv.Client())
	label, confidence, err := p.Predict(context.Background(), path)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if label != "glioma_tumor" {
		t.Errorf("label: got %q", label)
	}
	if confidence != 0.91 {
		t.Errorf("confidence: got %v", confidence)
	}
}

func TestRemotePredictBadResponses(t *testing.T) {
	path := writeImageFile(t)

	cases := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		"not json": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("oops"))
		},
		"missing label": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"confidence":0.5}`))
		},
		"confidence out of range": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"label":"no_tumor","confidence":1.5}`))
		},
	}

	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(handler)
			defer srv.Close()

			p := NewRemote(srv.URL, srv.Client())
			if _, _, err := p.Predict(context.Background(), path); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestRemotePredictMissingFile(t *testing.T) {
	p := NewRemote("http://unused", nil)
	if _, _, err := p.Predict(context.Background(), filepath.Join(t.TempDir(), "nope.png")); err == nil {
		t.Error("expected an error for a missing image")
	}
}
