package utils

import pluralizer "github.com/gertd/go-pluralize"

var pluralizeClient = pluralizer.NewClient()

// Count renders n with word in the matching number, e.g. "1 row", "3 rows".
func Count(n int, word string) string {
	return pluralizeClient.Pluralize(word, n, true)
}
