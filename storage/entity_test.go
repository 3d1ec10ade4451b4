package storage

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyFor(t *testing.T) {
	tests := []struct {
		name  string
		input string
		plain bool
	}{
		{"simple", "burger", true},
		{"integer", "42", true},
		{"dashes", "robot-1_a", true},
		{"space", "my robot", false},
		{"dot", "a.b", false},
		{"wildcard", "robot*", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := KeyFor(tt.input)
			if tt.plain {
				assert.Equal(t, tt.input, key)
				return
			}
			assert.True(t, strings.HasPrefix(key, "b64."))
			decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(key, "b64."))
			assert.NoError(t, err)
			assert.Equal(t, tt.input, string(decoded))
		})
	}
}

func TestKeyFor_NoCollisionWithPlainNames(t *testing.T) {
	assert.NotEqual(t, KeyFor("a.b"), KeyFor("a_b"))
	assert.False(t, plainKey.MatchString(KeyFor("a.b")), "encoded keys carry a dot plain names cannot")
}
