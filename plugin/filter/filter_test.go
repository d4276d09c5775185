package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileAndMatch(t *testing.T) {
	note := Note{
		Title:     "Weekly planning",
		Content:   "Review goals for the week.",
		Tags:      []string{"personal", "work"},
		CreatedTs: 1_700_000_000,
		UpdatedTs: 1_700_000_500,
	}

	tests := []struct {
		expr string
		want bool
	}{
		{expr: `"work" in tags`, want: true},
		{expr: `"travel" in tags`, want: false},
		{expr: `title.startsWith("Weekly")`, want: true},
		{expr: `content.contains("goals") && size(tags) == 2`, want: true},
		{expr: `updated_ts > created_ts`, want: true},
		{expr: `created_ts > 1800000000`, want: false},
		{expr: `tags.exists(t, t.startsWith("pers"))`, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			program, err := Compile(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.expr, program.String())

			got, err := program.Match(note)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompileRejectsInvalidExpressions(t *testing.T) {
	for _, expr := range []string{
		`title +`,
		`unknown_field == 1`,
		`title`,
		`size(tags)`,
	} {
		_, err := Compile(expr)
		assert.Error(t, err, expr)
	}
}

func TestMatchWithNilTags(t *testing.T) {
	program, err := Compile(`size(tags) == 0`)
	require.NoError(t, err)
	got, err := program.Match(Note{Title: "untagged"})
	require.NoError(t, err)
	assert.True(t, got)
}
