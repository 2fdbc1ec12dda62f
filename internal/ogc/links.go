package ogc

import (
	"net/url"
	"strconv"
)

// PaginationLinks computes the self/next/prev link set for an items page.
// Filter parameters in extra are carried into every link unchanged; only
// limit and offset differ between links. A negative total means the upstream
// match count is unknown, in which case a next link is emitted whenever the
// current page was full.
func PaginationLinks(basePath string, extra url.Values, limit, offset, total, returned int) []Link {
	page := func(off int, rel, title string) Link {
		q := url.Values{}
		for k, vs := range extra {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		q.Set("offset", strconv.Itoa(off))
		q.Set("limit", strconv.Itoa(limit))
		return Link{
			Href:  basePath + "?" + q.Encode(),
			Rel:   rel,
			Type:  MediaTypeGeoJSON,
			Title: title,
		}
	}

	links := []Link{page(offset, "self", "This page")}

	hasNext := false
	if total >= 0 {
		hasNext = offset+limit < total
	} else {
		hasNext = returned == limit
	}
	if hasNext {
		links = append(links, page(offset+limit, "next", "Next page"))
	}

	if offset > 0 {
		prev := offset - limit
		if prev < 0 {
			prev = 0
		}
		links = append(links, page(prev, "prev", "Previous page"))
	}

	return links
}

// CollectionLink is the rel=collection link required on items responses.
func CollectionLink(baseURL, collectionID string) Link {
	return Link{
		Href:  baseURL + "/collections/" + collectionID,
		Rel:   "collection",
		Type:  MediaTypeJSON,
		Title: "The " + collectionID + " collection",
	}
}
