package pagination

import (
	"fmt"
	"net/url"
	"strings"
)

// BuildLinkHeader renders an RFC 8288 Link header with rel="next" and
// rel="prev" entries for the given cursors. Existing query parameters are
// preserved; any cursor parameter already present is replaced. Returns ""
// when there is nothing to link to.
func BuildLinkHeader(path string, query url.Values, nextCursor, prevCursor string) string {
	if nextCursor == "" && prevCursor == "" {
		return ""
	}

	var links []string
	if nextCursor != "" {
		links = append(links, formatLink(path, query, nextCursor, "next"))
	}
	if prevCursor != "" {
		links = append(links, formatLink(path, query, prevCursor, "prev"))
	}

	return strings.Join(links, ", ")
}

func formatLink(path string, query url.Values, cursor, rel string) string {
	q := url.Values{}
	for key, values := range query {
		if key == "cursor" {
			continue
		}
		for _, v := range values {
			q.Add(key, v)
		}
	}
	q.Set("cursor", cursor)

	return fmt.Sprintf("<%s?%s>; rel=%q", path, q.Encode(), rel)
}
