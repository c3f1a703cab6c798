package pagination

import "net/url"

// Result is one page of a listing plus the cursors to move around it.
type Result[T any] struct {
	Items      []T
	Total      int
	NextCursor string
	PrevCursor string
	LinkHeader string
}

// Paginate slices items into the page identified by cursor. The cursor
// value is the ID of the last item on the previous page; an unknown or
// empty value starts from the beginning. getID must return a stable,
// unique ID per item, and items must arrive in a stable order.
func Paginate[T any](items []T, cursor Cursor, limit int, cursorType string, getID func(T) string, path string, query url.Values) Result[T] {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	start := 0
	if cursor.Value != "" {
		for i, item := range items {
			if getID(item) == cursor.Value {
				start = i + 1
				break
			}
		}
	}

	end := start + limit
	if end > len(items) {
		end = len(items)
	}

	result := Result[T]{
		Items: items[start:end],
		Total: len(items),
	}

	if end < len(items) {
		result.NextCursor = Cursor{Type: cursorType, Value: getID(items[end-1])}.Encode()
	}
	if start > 0 {
		prev := Cursor{Type: cursorType}
		if start > limit {
			prev.Value = getID(items[start-limit-1])
		}
		result.PrevCursor = prev.Encode()
	}

	result.LinkHeader = BuildLinkHeader(path, query, result.NextCursor, result.PrevCursor)

	return result
}
