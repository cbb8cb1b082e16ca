package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleForm struct {
	Title  string  `form:"title" validate:"required,max=5"`
	Born   string  `form:"born" validate:"omitempty,datetime=2006-01-02"`
	Status string  `form:"status" validate:"omitempty,oneof=m o"`
	Genres []int64 `form:"genre" validate:"required,min=1,dive,gt=0"`
}

func TestCheckStruct(t *testing.T) {
	tests := []struct {
		name string
		form sampleForm
		want map[string]string
	}{
		{
			name: "valid",
			form: sampleForm{Title: "Dune", Born: "1920-10-08", Status: "o", Genres: []int64{1}},
			want: map[string]string{},
		},
		{
			name: "missing title",
			form: sampleForm{Genres: []int64{1}},
			want: map[string]string{"title": "This field is required."},
		},
		{
			name: "title too long",
			form: sampleForm{Title: "Foundation", Genres: []int64{1}},
			want: map[string]string{"title": "Ensure this value has at most 5 characters."},
		},
		{
			name: "bad date and status",
			form: sampleForm{Title: "Dune", Born: "08/10/1920", Status: "x", Genres: []int64{1}},
			want: map[string]string{"born": "Enter a valid date.", "status": "Select a valid choice."},
		},
		{
			name: "no genres",
			form: sampleForm{Title: "Dune", Genres: []int64{}},
			want: map[string]string{"genre": "Select at least one choice."},
		},
		{
			name: "invalid genre id",
			form: sampleForm{Title: "Dune", Genres: []int64{0}},
			want: map[string]string{"genre": "Select a valid choice."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.CheckStruct(tt.form)
			assert.Equal(t, tt.want, v.Errors)
			assert.Equal(t, len(tt.want) == 0, v.Valid())
		})
	}
}

func TestAddErrorKeepsFirst(t *testing.T) {
	v := New()
	v.AddError("due_back", "first")
	v.AddError("due_back", "second")
	v.Check(true, "imprint", "never")

	require.False(t, v.Valid())
	assert.Equal(t, map[string]string{"due_back": "first"}, v.Errors)
}

func TestZeroValueValidator(t *testing.T) {
	var v Validator
	v.AddNonFieldError("bad credentials")
	assert.Equal(t, "bad credentials", v.Errors[NonFieldErrors])
}

func TestSafeRedirect(t *testing.T) {
	assert.True(t, SafeRedirect("/mybooks/"))
	assert.False(t, SafeRedirect("//evil.example"))
	assert.False(t, SafeRedirect("/\\evil.example"))
	assert.False(t, SafeRedirect("https://evil.example"))
	assert.False(t, SafeRedirect(""))
}

func TestHelpers(t *testing.T) {
	assert.True(t, In("o", "m", "o"))
	assert.False(t, In(3, 1, 2))
	assert.True(t, NotBlank(" x "))
	assert.False(t, NotBlank("   "))
}
