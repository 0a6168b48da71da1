package validation

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/student-roster/internal/types"
)

func valid() types.StudentInput {
	return types.StudentInput{
		Name:           "Ana Souza",
		Age:            21,
		Course:         "Computer Science",
		Status:         types.StatusActive,
		EnrollmentDate: "2024-02-01",
	}
}

func failedTags(t *testing.T, err error) map[string]string {
	t.Helper()
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs), "want ValidationErrors, got %v", err)
	out := make(map[string]string, len(verrs))
	for _, e := range verrs {
		out[e.Field()] = e.Tag()
	}
	return out
}

func TestNew_AcceptsValidInput(t *testing.T) {
	v := New(nil)
	assert.NoError(t, v.Struct(valid()))

	in := valid()
	in.Course = "  computer science "
	assert.Error(t, v.Struct(in), "the bare rule matches exactly")
}

func TestStudent_NormalisesBeforeValidating(t *testing.T) {
	v := New(nil)

	in := valid()
	in.Name = "  Ana Souza "
	in.Course = "  computer SCIENCE "
	in.EnrollmentDate = " 2024-02-01"
	require.NoError(t, v.Student(&in))
	assert.Equal(t, "Ana Souza", in.Name)
	assert.Equal(t, "Computer Science", in.Course)
	assert.Equal(t, "2024-02-01", in.EnrollmentDate)
}

func TestStudent_BlankNameFails(t *testing.T) {
	v := New(nil)

	for _, name := range []string{"   ", "\t\n", "  Al  "} {
		in := valid()
		in.Name = name
		tags := failedTags(t, v.Student(&in))
		assert.Contains(t, []string{"required", "min"}, tags["Name"], "%q", name)
	}
}

func TestNew_Rules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*types.StudentInput)
		field  string
		tag    string
	}{
		{"short name", func(in *types.StudentInput) { in.Name = "Al" }, "Name", "min"},
		{"long name", func(in *types.StudentInput) { in.Name = string(make([]byte, 101)) }, "Name", "max"},
		{"too young", func(in *types.StudentInput) { in.Age = 15 }, "Age", "min"},
		{"too old", func(in *types.StudentInput) { in.Age = 101 }, "Age", "max"},
		{"unknown course", func(in *types.StudentInput) { in.Course = "Astrology" }, "Course", "course"},
		{"bad status", func(in *types.StudentInput) { in.Status = "Graduated" }, "Status", "oneof"},
		{"bad date", func(in *types.StudentInput) { in.EnrollmentDate = "01/02/2024" }, "EnrollmentDate", "datetime"},
		{"missing date", func(in *types.StudentInput) { in.EnrollmentDate = "" }, "EnrollmentDate", "required"},
		{"bad photo url", func(in *types.StudentInput) { in.PhotoURL = "not a url" }, "PhotoURL", "url"},
	}
	v := New(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.mutate(&in)
			tags := failedTags(t, v.Struct(in))
			assert.Equal(t, tt.tag, tags[tt.field])
		})
	}
}

func TestNew_ConfiguredCourses(t *testing.T) {
	v := New([]string{"Medicine"})

	in := valid()
	assert.Error(t, v.Struct(in))

	in.Course = "medicine"
	require.NoError(t, v.Student(&in))
	assert.Equal(t, "Medicine", in.Course)
}
