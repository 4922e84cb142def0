package catalog

import "strings"

// Search returns the items containing query, ignoring case, in their original
// order. An empty query returns a copy of items.
func Search(items []string, query string) []string {
	query = strings.ToLower(strings.TrimSpace(query))

	result := make([]string, 0, len(items))
	for _, item := range items {
		if query == "" || strings.Contains(strings.ToLower(item), query) {
			result = append(result, item)
		}
	}
	return result
}
