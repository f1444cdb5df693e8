package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCandidates(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []MenuCandidate
		wantErr error
	}{
		{
			name: "plain_json_array",
			raw:  `[{"name":"Americano","description":"hot","price":4500},{"name":"Latte","price":5000}]`,
			want: []MenuCandidate{
				{Name: "Americano", Description: "hot", Price: 4500},
				{Name: "Latte", Price: 5000},
			},
		},
		{
			name: "fenced_with_language_tag",
			raw:  "```json\n[{\"name\":\"Gimbap\",\"price\":3500}]\n```",
			want: []MenuCandidate{{Name: "Gimbap", Price: 3500}},
		},
		{
			name: "string_price_with_separators",
			raw:  `[{"name":"Ramyeon","price":"4,500원"}]`,
			want: []MenuCandidate{{Name: "Ramyeon", Price: 4500}},
		},
		{
			name: "unparseable_price_defaults_to_zero",
			raw:  `[{"name":"Mystery","price":"ask us"}]`,
			want: []MenuCandidate{{Name: "Mystery", Price: 0}},
		},
		{
			name: "nameless_entries_dropped",
			raw:  `[{"price":1000},{"name":"  ","price":2000},{"name":"Cola","price":2000}]`,
			want: []MenuCandidate{{Name: "Cola", Price: 2000}},
		},
		{
			name:    "not_json",
			raw:     "sorry, I could not read the photo",
			wantErr: ErrNoMenuExtracted,
		},
		{
			name:    "json_but_not_array",
			raw:     `{"name":"Latte","price":5000}`,
			wantErr: ErrNoMenuExtracted,
		},
		{
			name:    "empty_array",
			raw:     `[]`,
			wantErr: ErrNoMenuExtracted,
		},
		{
			name:    "array_of_nameless_entries",
			raw:     `[{"price":100}]`,
			wantErr: ErrNoMenuExtracted,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseCandidates(tc.raw)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseFreeText(t *testing.T) {
	text := "Americano - freshly ground - 4500\n" +
		"Latte 5000\n" +
		"Gimbap classic roll 3,500\n" +
		"\n" +
		"House Special"

	got, err := ParseFreeText(text)
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, MenuCandidate{Name: "Americano", Description: "freshly ground", Price: 4500}, got[0])
	assert.Equal(t, MenuCandidate{Name: "Latte", Price: 5000}, got[1])
	assert.Equal(t, MenuCandidate{Name: "Gimbap", Description: "classic roll", Price: 3500}, got[2])
	assert.Equal(t, MenuCandidate{Name: "House Special"}, got[3])
}

func TestParseFreeText_Empty(t *testing.T) {
	_, err := ParseFreeText("  \n \n")
	assert.ErrorIs(t, err, ErrNoMenuExtracted)
}

func TestFallbackTitleNeverEmpty(t *testing.T) {
	for i := 0; i < 20; i++ {
		assert.NotEmpty(t, FallbackTitle())
	}
}
