package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	t.Setenv("PENNYWISE_TEST_DIR", "/var/data")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"plain path untouched", "/etc/pennywise.db", "/etc/pennywise.db"},
		{"bare tilde", "~", home},
		{"tilde prefix", "~/db/pennywise.db", filepath.Join(home, "db", "pennywise.db")},
		{"env var", "$PENNYWISE_TEST_DIR/pennywise.db", "/var/data/pennywise.db"},
		{"tilde mid-path untouched", "/opt/~backup", "/opt/~backup"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExpandPath(tt.input))
		})
	}
}
