package jsonserver

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"booklib/internal/record"
)

// listParams are the json-server listing controls. Every other query
// parameter is a field filter.
type listParams struct {
	filters url.Values
	search  string
	sortBy  string
	desc    bool
	page    int
	limit   int
}

func parseListParams(query url.Values) listParams {
	p := listParams{filters: url.Values{}}
	for key, values := range query {
		switch key {
		case "_sort":
			p.sortBy = query.Get(key)
		case "_order":
			p.desc = strings.EqualFold(query.Get(key), "desc")
		case "q":
			p.search = strings.ToLower(strings.TrimSpace(query.Get(key)))
		case "_page":
			p.page, _ = strconv.Atoi(query.Get(key))
		case "_limit":
			p.limit, _ = strconv.Atoi(query.Get(key))
		default:
			if !strings.HasPrefix(key, "_") {
				p.filters[key] = values
			}
		}
	}
	if p.page > 0 && p.limit <= 0 {
		p.limit = 10
	}
	return p
}

// apply filters, sorts and pages items. It returns the page and the number of
// matches before paging.
func (p listParams) apply(items []record.Record) ([]record.Record, int) {
	out := make([]record.Record, 0, len(items))
	for _, item := range items {
		if matches(item, p.filters) && p.matchesSearch(item) {
			out = append(out, item)
		}
	}

	if p.sortBy != "" {
		sort.SliceStable(out, func(i, j int) bool {
			less := compareField(out[i][p.sortBy], out[j][p.sortBy])
			if p.desc {
				return less > 0
			}
			return less < 0
		})
	}

	total := len(out)
	if p.limit > 0 {
		start := 0
		if p.page > 1 {
			start = (p.page - 1) * p.limit
		}
		if start >= len(out) {
			return []record.Record{}, total
		}
		end := start + p.limit
		if end > len(out) {
			end = len(out)
		}
		out = out[start:end]
	}
	return out, total
}

func (p listParams) matchesSearch(item record.Record) bool {
	if p.search == "" {
		return true
	}
	for _, v := range item {
		switch s := v.(type) {
		case string:
			if strings.Contains(strings.ToLower(s), p.search) {
				return true
			}
		case []any:
			for _, e := range s {
				if str, ok := e.(string); ok && strings.Contains(strings.ToLower(str), p.search) {
					return true
				}
			}
		}
	}
	return false
}

// compareField orders numbers numerically and everything else as text.
func compareField(a, b any) int {
	as, bs := record.FormatID(a), record.FormatID(b)
	af, aErr := strconv.ParseFloat(as, 64)
	bf, bErr := strconv.ParseFloat(bs, 64)
	if aErr == nil && bErr == nil {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(strings.ToLower(as), strings.ToLower(bs))
}
