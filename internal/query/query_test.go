package query

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/student-roster/internal/types"
)

func roster() []types.Student {
	return []types.Student{
		{ID: "a1", Name: "Carla Dias", Age: 22, Course: "Computer Science", Status: types.StatusActive, EnrollmentDate: "2024-02-01"},
		{ID: "b2", Name: "bruno Lima", Age: 19, Course: "Information Systems", Status: types.StatusInactive, EnrollmentDate: "2024-10-01"},
		{ID: "c3", Name: "Álvaro Reis", Age: 22, Course: "Computer Science", Status: types.StatusActive, EnrollmentDate: "2023-12-15"},
		{ID: "d4", Name: "Dora Melo", Age: 20, Course: "Software Engineering", Status: types.StatusActive, EnrollmentDate: "not a date"},
		{ID: "e5", Name: "Eva Nunes", Age: 31, Course: "Software Engineering", Status: types.StatusInactive, EnrollmentDate: "2024-02-20"},
	}
}

func ids(list []types.Student) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = s.ID
	}
	return out
}

func TestApply_IsPureAndReturnsSubset(t *testing.T) {
	in := roster()
	before := ids(in)

	out := Apply(in, Options{Sort: SortAgeDesc})

	assert.Equal(t, before, ids(in), "input must not be reordered")
	assert.ElementsMatch(t, before, ids(out))
}

func TestApply_SearchIsCaseInsensitive(t *testing.T) {
	tests := []struct {
		name   string
		search string
		want   []string
	}{
		{"name", "CARLA", []string{"a1"}},
		{"course", "information", []string{"b2"}},
		{"id", "E5", []string{"e5"}},
		{"empty matches all", "  ", []string{"c3", "b2", "a1", "d4", "e5"}},
		{"no match", "zzz", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Apply(roster(), Options{Search: tt.search})
			assert.Equal(t, tt.want, ids(out))
		})
	}
}

func TestApply_Filters(t *testing.T) {
	active := Apply(roster(), Options{Filters: []string{"Active"}})
	assert.Len(t, active, 3)

	// Union of a status and a course.
	mixed := Apply(roster(), Options{Filters: []string{"Inactive", "Computer Science"}})
	assert.ElementsMatch(t, []string{"a1", "b2", "c3", "e5"}, ids(mixed))

	// Search AND filter.
	both := Apply(roster(), Options{Search: "eva", Filters: []string{"Active"}})
	assert.Empty(t, both)
}

func TestApply_AgeSortIsStable(t *testing.T) {
	in := []types.Student{
		{ID: "first22", Age: 22},
		{ID: "only19", Age: 19},
		{ID: "second22", Age: 22},
		{ID: "only20", Age: 20},
	}

	asc := Apply(in, Options{Sort: SortAgeAsc})
	assert.Equal(t, []string{"only19", "only20", "first22", "second22"}, ids(asc))

	desc := Apply(in, Options{Sort: SortAgeDesc})
	assert.Equal(t, []string{"first22", "second22", "only20", "only19"}, ids(desc))
}

func TestApply_NameSortUsesCollation(t *testing.T) {
	out := Apply(roster(), Options{Sort: SortNameAsc})
	assert.Equal(t, []string{"c3", "b2", "a1", "d4", "e5"}, ids(out))

	out = Apply(roster(), Options{Sort: SortNameDesc})
	assert.Equal(t, []string{"e5", "d4", "a1", "b2", "c3"}, ids(out))
}

func TestApply_DatesCompareAsCalendarValues(t *testing.T) {
	in := []types.Student{
		{ID: "oct", EnrollmentDate: "2024-10-1"},
		{ID: "feb", EnrollmentDate: "2024-2-1"},
	}
	out := Apply(in, Options{Sort: SortDateAsc})
	assert.Equal(t, []string{"feb", "oct"}, ids(out))
}

func TestApply_InvalidDatesSortLast(t *testing.T) {
	asc := Apply(roster(), Options{Sort: SortDateAsc})
	assert.Equal(t, []string{"c3", "a1", "e5", "b2", "d4"}, ids(asc))

	desc := Apply(roster(), Options{Sort: SortDateDesc})
	assert.Equal(t, []string{"b2", "e5", "a1", "c3", "d4"}, ids(desc))
}

func TestParseSortKey(t *testing.T) {
	tests := []struct {
		raw  string
		want SortKey
		ok   bool
	}{
		{"", SortNameAsc, true},
		{"name_desc", SortNameDesc, true},
		{"AGE_ASC", SortAgeAsc, true},
		{"date-desc", SortDateDesc, true},
		{"age", SortAgeAsc, true},
		{"name", SortNameAsc, true},
		{"shoe-size", SortNameAsc, false},
	}
	for _, tt := range tests {
		got, ok := ParseSortKey(tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
		assert.Equal(t, tt.ok, ok, tt.raw)
	}
}

func TestFromValues(t *testing.T) {
	v := url.Values{
		"search": {"ana"},
		"filter": {"Active,Computer Science", "Software Engineering"},
		"sort":   {"date-desc"},
	}
	opts := FromValues(v)

	assert.Equal(t, "ana", opts.Search)
	assert.Equal(t, []string{"Active", "Computer Science", "Software Engineering"}, opts.Filters)
	assert.Equal(t, SortDateDesc, opts.Sort)
}

func TestSummarize_Empty(t *testing.T) {
	st := Summarize(nil)

	assert.Zero(t, st.Total)
	assert.Zero(t, st.ActivePercent)
	assert.Zero(t, st.InactivePercent)
	assert.Zero(t, st.AverageAge)
	assert.NotNil(t, st.ByCourse)
	assert.NotNil(t, st.ByMonth)
}

func TestSummarize(t *testing.T) {
	in := []types.Student{
		{Age: 20, Course: "Computer Science", Status: types.StatusActive, EnrollmentDate: "2024-10-03"},
		{Age: 21, Course: "Software Engineering", Status: types.StatusInactive, EnrollmentDate: "2024-02-10"},
		{Age: 23, Course: "Computer Science", Status: types.StatusActive, EnrollmentDate: "2024-02-28"},
		{Age: 30, Course: "Software Engineering", Status: types.StatusInactive, EnrollmentDate: "bogus"},
	}

	st := Summarize(in)

	assert.Equal(t, 4, st.Total)
	assert.Equal(t, 2, st.Active)
	assert.Equal(t, 2, st.Inactive)
	assert.Equal(t, 50.0, st.ActivePercent)
	assert.Equal(t, 23.5, st.AverageAge)

	require.Len(t, st.ByCourse, 2)
	assert.Equal(t, CourseCount{Course: "Computer Science", Count: 2}, st.ByCourse[0])
	assert.Equal(t, CourseCount{Course: "Software Engineering", Count: 2}, st.ByCourse[1])

	require.Len(t, st.ByMonth, 2)
	assert.Equal(t, "2/2024", st.ByMonth[0].Key)
	assert.Equal(t, 2, st.ByMonth[0].Count)
	assert.Equal(t, "10/2024", st.ByMonth[1].Key)
}

func TestSummarize_RoundsToOneDecimal(t *testing.T) {
	in := []types.Student{
		{Age: 20, Status: types.StatusActive},
		{Age: 21, Status: types.StatusActive},
		{Age: 23, Status: types.StatusInactive},
	}
	st := Summarize(in)

	assert.Equal(t, 66.7, st.ActivePercent)
	assert.Equal(t, 33.3, st.InactivePercent)
	assert.Equal(t, 21.3, st.AverageAge)
}

func TestCourses(t *testing.T) {
	assert.Equal(t,
		[]string{"Computer Science", "Information Systems", "Software Engineering"},
		Courses(roster()))
	assert.Empty(t, Courses(nil))
}
