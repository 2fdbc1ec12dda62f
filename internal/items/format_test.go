package items

import (
	"net/http/httptest"
	"testing"
)

func TestNegotiateContentType_QueryParamWins(t *testing.T) {
	r := httptest.NewRequest("GET", "/items?f=json", nil)
	r.Header.Set("Accept", "application/geo+json")
	if got := NegotiateContentType(r); got != "application/json" {
		t.Fatalf("content type=%s", got)
	}
}

func TestNegotiateContentType_AcceptHeader(t *testing.T) {
	r := httptest.NewRequest("GET", "/items", nil)
	r.Header.Set("Accept", "text/html, application/json;q=0.9")
	if got := NegotiateContentType(r); got != "application/json" {
		t.Fatalf("content type=%s", got)
	}
}

func TestNegotiateContentType_DefaultGeoJSON(t *testing.T) {
	r := httptest.NewRequest("GET", "/items", nil)
	if got := NegotiateContentType(r); got != "application/geo+json" {
		t.Fatalf("content type=%s", got)
	}

	r = httptest.NewRequest("GET", "/items?f=html", nil)
	if got := NegotiateContentType(r); got != "application/geo+json" {
		t.Fatalf("unknown f value: content type=%s", got)
	}
}
