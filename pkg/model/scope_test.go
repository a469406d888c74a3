package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScope(t *testing.T) {
	tests := []struct {
		name          string
		grain         string
		securableItem string
		wantKey       string
		wantErr       bool
	}{
		{
			name:          "simple scope",
			grain:         "app",
			securableItem: "patientsafety",
			wantKey:       "app:patientsafety",
		},
		{
			name:          "trims whitespace",
			grain:         " app ",
			securableItem: " atlas ",
			wantKey:       "app:atlas",
		},
		{
			name:          "missing grain",
			grain:         "",
			securableItem: "patientsafety",
			wantErr:       true,
		},
		{
			name:          "missing securable item",
			grain:         "app",
			securableItem: "  ",
			wantErr:       true,
		},
		{
			name:          "separator in grain",
			grain:         "app:x",
			securableItem: "patientsafety",
			wantErr:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scope, err := NewScope(tt.grain, tt.securableItem)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKey, scope.Key())
			assert.False(t, scope.IsZero())
		})
	}
}

func TestPermissionKey(t *testing.T) {
	p := Permission{Grain: "app", SecurableItem: "patientsafety", Name: "createalerts"}
	assert.Equal(t, "app:patientsafety:createalerts", p.Key())
	assert.Equal(t, "app/patientsafety.createalerts", p.String())
}
