package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubjectEqual(t *testing.T) {
	tests := []struct {
		name  string
		a     Subject
		b     Subject
		equal bool
	}{
		{
			name:  "identical",
			a:     NewSubject("alice", "windows"),
			b:     NewSubject("alice", "windows"),
			equal: true,
		},
		{
			name:  "identity provider case-insensitive",
			a:     NewSubject("alice", "Windows"),
			b:     NewSubject("alice", "windows"),
			equal: true,
		},
		{
			name:  "subject id case-sensitive",
			a:     NewSubject("Alice", "windows"),
			b:     NewSubject("alice", "windows"),
			equal: false,
		},
		{
			name:  "different provider",
			a:     NewSubject("alice", "windows"),
			b:     NewSubject("alice", "azuread"),
			equal: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, tt.a.Equal(tt.b))
		})
	}
}

func TestSubjectKey(t *testing.T) {
	assert.Equal(t, "alice:windows", NewSubject("alice", "Windows").Key())
}

func TestContextRoundTrip(t *testing.T) {
	id := &Identity{
		Subject:  NewSubject("alice", "windows"),
		ClientID: "patientsafety",
		Groups:   []string{"contributor"},
	}

	ctx := Set(context.Background(), id)
	got, ok := Get(ctx)
	require.True(t, ok)
	assert.Equal(t, id, got)

	_, ok = Get(context.Background())
	assert.False(t, ok)
}
