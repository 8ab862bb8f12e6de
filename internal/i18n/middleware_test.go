package i18n

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMiddlewareLanguageSelection(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	h := Middleware("en")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, T(r.Context(), "AssessExcellent"))
	}))

	tests := []struct {
		name   string
		accept string
		want   string
	}{
		{"default language", "", "Excellent"},
		{"hindi requested", "hi", "उत्कृष्ट"},
		{"weighted header", "hi-IN, hi;q=0.9, en;q=0.8", "उत्कृष्ट"},
		{"unknown falls back", "fr", "Excellent"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.accept != "" {
				req.Header.Set("Accept-Language", tt.accept)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if got := rec.Body.String(); got != tt.want {
				t.Errorf("Accept-Language %q: got %q, want %q", tt.accept, got, tt.want)
			}
		})
	}
}
