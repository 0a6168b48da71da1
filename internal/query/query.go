// Package query derives what a user sees from the full roster: a searched,
// filtered and sorted view, plus dashboard statistics over the whole set.
//
// Everything here is pure. Functions take a snapshot slice and never write
// to it; callers may share the same snapshot between Apply and Summarize.
package query

import (
	"fmt"
	"math"
	"net/url"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/aanand-mishra/student-roster/internal/types"
)

// SortKey selects the comparator applied to the filtered view.
type SortKey string

const (
	SortNameAsc  SortKey = "name_asc"
	SortNameDesc SortKey = "name_desc"
	SortAgeAsc   SortKey = "age_asc"
	SortAgeDesc  SortKey = "age_desc"
	SortDateAsc  SortKey = "date_asc"
	SortDateDesc SortKey = "date_desc"
)

// sortAliases maps the short names used by the filter menu.
var sortAliases = map[string]SortKey{
	"name":      SortNameAsc,
	"name-desc": SortNameDesc,
	"age":       SortAgeAsc,
	"age-desc":  SortAgeDesc,
	"date":      SortDateAsc,
	"date-desc": SortDateDesc,
}

// ParseSortKey accepts a SortKey or one of its aliases. Anything else
// yields SortNameAsc and ok=false.
func ParseSortKey(raw string) (key SortKey, ok bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	switch k := SortKey(raw); k {
	case SortNameAsc, SortNameDesc, SortAgeAsc, SortAgeDesc, SortDateAsc, SortDateDesc:
		return k, true
	}
	if k, found := sortAliases[raw]; found {
		return k, true
	}
	return SortNameAsc, raw == ""
}

// Options describe one query. The zero value matches everything and sorts by
// name ascending.
type Options struct {
	// Search is matched case-insensitively as a substring of name,
	// course or ID.
	Search string
	// Filters holds status and course values; a record passes if it
	// matches any of them. Empty means no filtering.
	Filters []string
	Sort    SortKey
}

// FromValues reads search, filter (repeatable or comma-separated) and sort
// from URL query values.
func FromValues(v url.Values) Options {
	opts := Options{Search: v.Get("search")}
	for _, raw := range v["filter"] {
		for _, f := range strings.Split(raw, ",") {
			if f = strings.TrimSpace(f); f != "" {
				opts.Filters = append(opts.Filters, f)
			}
		}
	}
	opts.Sort, _ = ParseSortKey(v.Get("sort"))
	return opts
}

// Apply returns the records matching opts, sorted. The result is a new
// slice; students is left untouched.
func Apply(students []types.Student, opts Options) []types.Student {
	term := strings.ToLower(strings.TrimSpace(opts.Search))

	filters := make(map[string]struct{}, len(opts.Filters))
	for _, f := range opts.Filters {
		filters[f] = struct{}{}
	}

	out := make([]types.Student, 0, len(students))
	for _, s := range students {
		if matchesSearch(s, term) && matchesFilter(s, filters) {
			out = append(out, s)
		}
	}

	slices.SortStableFunc(out, comparator(opts.Sort))
	return out
}

func matchesSearch(s types.Student, term string) bool {
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s.Name), term) ||
		strings.Contains(strings.ToLower(s.Course), term) ||
		strings.Contains(strings.ToLower(s.ID), term)
}

func matchesFilter(s types.Student, filters map[string]struct{}) bool {
	if len(filters) == 0 {
		return true
	}
	if _, ok := filters[string(s.Status)]; ok {
		return true
	}
	_, ok := filters[s.Course]
	return ok
}

func comparator(key SortKey) func(a, b types.Student) int {
	switch key {
	case SortNameDesc:
		c := collate.New(language.Und)
		return func(a, b types.Student) int { return c.CompareString(b.Name, a.Name) }
	case SortAgeAsc:
		return func(a, b types.Student) int { return a.Age - b.Age }
	case SortAgeDesc:
		return func(a, b types.Student) int { return b.Age - a.Age }
	case SortDateAsc:
		return compareDates(false)
	case SortDateDesc:
		return compareDates(true)
	default:
		c := collate.New(language.Und)
		return func(a, b types.Student) int { return c.CompareString(a.Name, b.Name) }
	}
}

// compareDates orders by calendar value. Unparseable dates go after every
// parseable one whatever the direction, and tie among themselves.
func compareDates(desc bool) func(a, b types.Student) int {
	return func(a, b types.Student) int {
		ta, okA := a.Enrolled()
		tb, okB := b.Enrolled()
		switch {
		case !okA && !okB:
			return 0
		case !okA:
			return 1
		case !okB:
			return -1
		}
		if desc {
			return tb.Compare(ta)
		}
		return ta.Compare(tb)
	}
}

// Courses returns the distinct courses present in students, sorted.
func Courses(students []types.Student) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, s := range students {
		if _, ok := seen[s.Course]; ok || s.Course == "" {
			continue
		}
		seen[s.Course] = struct{}{}
		out = append(out, s.Course)
	}
	c := collate.New(language.Und)
	c.SortStrings(out)
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Statistics
// ─────────────────────────────────────────────────────────────────────────────

// CourseCount is the number of records enrolled in one course.
type CourseCount struct {
	Course string `json:"course"`
	Count  int    `json:"count"`
}

// MonthCount is the number of enrollments in one calendar month. Key is
// rendered "M/YYYY".
type MonthCount struct {
	Key   string `json:"month"`
	Year  int    `json:"year"`
	Month int    `json:"monthNumber"`
	Count int    `json:"count"`
}

// Stats are dashboard aggregates over the unfiltered roster.
type Stats struct {
	Total           int           `json:"total"`
	Active          int           `json:"active"`
	Inactive        int           `json:"inactive"`
	ActivePercent   float64       `json:"activePercent"`
	InactivePercent float64       `json:"inactivePercent"`
	AverageAge      float64       `json:"averageAge"`
	ByCourse        []CourseCount `json:"byCourse"`
	ByMonth         []MonthCount  `json:"byMonth"`
}

// Summarize computes Stats. Percentages and the average are rounded to one
// decimal and are 0 for an empty roster. ByCourse keeps first-seen order;
// ByMonth is chronological and leaves out records with invalid dates.
func Summarize(students []types.Student) Stats {
	st := Stats{
		Total:    len(students),
		ByCourse: make([]CourseCount, 0),
		ByMonth:  make([]MonthCount, 0),
	}

	courseIdx := make(map[string]int)
	type ym struct{ y, m int }
	months := make(map[ym]int)
	ageSum := 0

	for _, s := range students {
		switch s.Status {
		case types.StatusActive:
			st.Active++
		case types.StatusInactive:
			st.Inactive++
		}
		ageSum += s.Age

		if i, ok := courseIdx[s.Course]; ok {
			st.ByCourse[i].Count++
		} else {
			courseIdx[s.Course] = len(st.ByCourse)
			st.ByCourse = append(st.ByCourse, CourseCount{Course: s.Course, Count: 1})
		}

		if t, ok := s.Enrolled(); ok {
			months[ym{t.Year(), int(t.Month())}]++
		}
	}

	if st.Total > 0 {
		st.ActivePercent = percent(st.Active, st.Total)
		st.InactivePercent = percent(st.Inactive, st.Total)
		st.AverageAge = round1(float64(ageSum) / float64(st.Total))
	}

	for k, n := range months {
		st.ByMonth = append(st.ByMonth, MonthCount{
			Key:   monthKey(k.y, k.m),
			Year:  k.y,
			Month: k.m,
			Count: n,
		})
	}
	slices.SortFunc(st.ByMonth, func(a, b MonthCount) int {
		if a.Year != b.Year {
			return a.Year - b.Year
		}
		return a.Month - b.Month
	})

	return st
}

func percent(n, total int) float64 {
	return round1(float64(n) / float64(total) * 100)
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}

func monthKey(year, month int) string {
	return fmt.Sprintf("%d/%d", month, year)
}
