package nominatim_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/encinapp/encinapp/internal/adapters/nominatim"
	"github.com/encinapp/encinapp/internal/core/domain"
)

func TestGeocoder_Reverse(t *testing.T) {
	var gotQuery, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotUA = r.UserAgent()
		_, _ = io.WriteString(w, `{"address":{"road":"Avenida Alemania","house_number":"0945","town":"Temuco"}}`)
	}))
	defer srv.Close()

	g := nominatim.New(srv.URL, "encinapp-test/1.0", "es", 2*time.Second)
	addr, err := g.Reverse(context.Background(), domain.Coordinate{Latitude: -38.7359, Longitude: -72.5904})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if addr.Street != "Avenida Alemania" || addr.Number != "0945" || addr.City != "Temuco" {
		t.Errorf("unexpected address %+v", addr)
	}
	if gotUA != "encinapp-test/1.0" {
		t.Errorf("unexpected user agent %q", gotUA)
	}
	want := "lat=-38.735900&lon=-72.590400&format=jsonv2&addressdetails=1"
	if gotQuery != want {
		t.Errorf("unexpected query %q, want %q", gotQuery, want)
	}
}

func TestGeocoder_ReverseErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", 500, `oops`},
		{"nominatim error", 200, `{"error":"Unable to geocode"}`},
		{"malformed", 200, `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			g := nominatim.New(srv.URL, "encinapp-test/1.0", "", time.Second)
			if _, err := g.Reverse(context.Background(), domain.Coordinate{}); err == nil {
				t.Error("expected error")
			}
		})
	}
}
