package ogc

import (
	"net/url"
	"strings"
	"testing"
)

func findLink(t *testing.T, links []Link, rel string) Link {
	t.Helper()
	for _, l := range links {
		if l.Rel == rel {
			return l
		}
	}
	t.Fatalf("no %s link in %v", rel, links)
	return Link{}
}

func hasLink(links []Link, rel string) bool {
	for _, l := range links {
		if l.Rel == rel {
			return true
		}
	}
	return false
}

func offsetOf(t *testing.T, l Link) string {
	t.Helper()
	u, err := url.Parse(l.Href)
	if err != nil {
		t.Fatalf("parse %s: %v", l.Href, err)
	}
	return u.Query().Get("offset")
}

func TestPaginationLinks_MiddlePage(t *testing.T) {
	links := PaginationLinks("http://x/collections/c/items", nil, 100, 100, 250, 100)

	self := findLink(t, links, "self")
	if got := offsetOf(t, self); got != "100" {
		t.Fatalf("self offset=%s want 100", got)
	}
	next := findLink(t, links, "next")
	if got := offsetOf(t, next); got != "200" {
		t.Fatalf("next offset=%s want 200", got)
	}
	prev := findLink(t, links, "prev")
	if got := offsetOf(t, prev); got != "0" {
		t.Fatalf("prev offset=%s want 0", got)
	}
}

func TestPaginationLinks_FirstPageHasNoPrev(t *testing.T) {
	links := PaginationLinks("http://x/collections/c/items", nil, 100, 0, 250, 100)
	if hasLink(links, "prev") {
		t.Fatalf("prev link on first page: %v", links)
	}
	if !hasLink(links, "next") {
		t.Fatalf("missing next link: %v", links)
	}
}

func TestPaginationLinks_LastPageHasNoNext(t *testing.T) {
	links := PaginationLinks("http://x/collections/c/items", nil, 100, 200, 250, 50)
	if hasLink(links, "next") {
		t.Fatalf("next link past end of results: %v", links)
	}
	prev := findLink(t, links, "prev")
	if got := offsetOf(t, prev); got != "100" {
		t.Fatalf("prev offset=%s want 100", got)
	}
}

func TestPaginationLinks_ExactBoundaryHasNoNext(t *testing.T) {
	// offset+limit == total: nothing after this page
	links := PaginationLinks("http://x/collections/c/items", nil, 100, 100, 200, 100)
	if hasLink(links, "next") {
		t.Fatalf("next link when offset+limit == total: %v", links)
	}
}

func TestPaginationLinks_PrevClampedToZero(t *testing.T) {
	links := PaginationLinks("http://x/collections/c/items", nil, 100, 50, 250, 100)
	prev := findLink(t, links, "prev")
	if got := offsetOf(t, prev); got != "0" {
		t.Fatalf("prev offset=%s want 0 (clamped)", got)
	}
}

func TestPaginationLinks_UnknownTotalUsesFullPageHeuristic(t *testing.T) {
	full := PaginationLinks("http://x/collections/c/items", nil, 100, 0, -1, 100)
	if !hasLink(full, "next") {
		t.Fatalf("full page with unknown total should have next: %v", full)
	}
	short := PaginationLinks("http://x/collections/c/items", nil, 100, 0, -1, 37)
	if hasLink(short, "next") {
		t.Fatalf("short page with unknown total should not have next: %v", short)
	}
}

func TestPaginationLinks_CarriesFilterParams(t *testing.T) {
	extra := url.Values{}
	extra.Set("country_code", "SE")
	extra.Set("bbox", "10,55,20,65")

	links := PaginationLinks("http://x/collections/c/items", extra, 100, 100, 250, 100)
	for _, l := range links {
		u, err := url.Parse(l.Href)
		if err != nil {
			t.Fatalf("parse %s: %v", l.Href, err)
		}
		q := u.Query()
		if q.Get("country_code") != "SE" {
			t.Fatalf("%s link lost country_code: %s", l.Rel, l.Href)
		}
		if q.Get("bbox") != "10,55,20,65" {
			t.Fatalf("%s link lost bbox: %s", l.Rel, l.Href)
		}
	}
}

func TestCollectionLink(t *testing.T) {
	l := CollectionLink("http://x", "monitoring-sites")
	if l.Rel != "collection" {
		t.Fatalf("rel=%s want collection", l.Rel)
	}
	if !strings.HasSuffix(l.Href, "/collections/monitoring-sites") {
		t.Fatalf("href=%s", l.Href)
	}
}
