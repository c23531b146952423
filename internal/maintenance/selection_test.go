package maintenance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectTables(t *testing.T) {
	discovered := []string{"accounts", "sessions", "users"}

	tests := []struct {
		name         string
		requested    []string
		wantSelected []string
		wantMissing  []string
	}{
		{
			name:         "keeps discovery order",
			requested:    []string{"users", "accounts"},
			wantSelected: []string{"accounts", "users"},
		},
		{
			name:         "reports absent names once",
			requested:    []string{"ghost", "users", "ghost", "phantom"},
			wantSelected: []string{"users"},
			wantMissing:  []string{"ghost", "phantom"},
		},
		{
			name:         "duplicates select once",
			requested:    []string{"sessions", "sessions"},
			wantSelected: []string{"sessions"},
		},
		{
			name:        "nothing found",
			requested:   []string{"ghost"},
			wantMissing: []string{"ghost"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			selected, missing := SelectTables(discovered, tt.requested)
			assert.Equal(t, tt.wantSelected, selected)
			assert.Equal(t, tt.wantMissing, missing)
		})
	}
}

func TestParseTableList(t *testing.T) {
	assert.Equal(t, []string{"users", "sessions"}, ParseTableList(" users, ,sessions,"))
	assert.Nil(t, ParseTableList(""))
}
