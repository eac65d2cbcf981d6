package main

import (
	"sort"

	"movietracker/apiclient"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// filterEntries keeps entries whose title fuzzy-matches query, best match
// first. An empty query keeps everything in order.
func filterEntries(entries []apiclient.Entry, query string) []apiclient.Entry {
	if query == "" {
		return entries
	}

	titles := make([]string, len(entries))
	for i, e := range entries {
		titles[i] = e.Title
	}

	ranks := fuzzy.RankFindNormalizedFold(query, titles)
	sort.Stable(ranks)

	out := make([]apiclient.Entry, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, entries[r.OriginalIndex])
	}
	return out
}
