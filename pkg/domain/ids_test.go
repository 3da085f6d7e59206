package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "vp-gateway/pkg/domain-errors"
)

func TestParseRequestUUID(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseRequestUUID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseRequestUUID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseRequestUUID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		valid := uuid.New()
		id, err := ParseRequestUUID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, RequestUUID(valid), id)
	})
}

func TestParseRequestID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    RequestID
		wantErr bool
	}{
		{name: "trims whitespace", input: "  req-1 ", want: "req-1"},
		{name: "empty", input: "   ", wantErr: true},
		{name: "null byte", input: "req\x00-1", wantErr: true},
		{name: "too long", input: strings.Repeat("a", maxRequestIDLength+1), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRequestID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProtocolVersion(t *testing.T) {
	t.Run("absent marker is nil and sorts as 0.0.0", func(t *testing.T) {
		v, err := ParseProtocolVersion("")
		require.NoError(t, err)
		assert.True(t, v.IsNil())
		assert.Equal(t, "0.0.0", v.Semver().String())
		assert.True(t, v.LessThan(MustProtocolVersion("1.0.0")))
	})

	t.Run("keeps original text", func(t *testing.T) {
		v := MustProtocolVersion("2.1.0")
		assert.Equal(t, "2.1.0", v.String())
		assert.False(t, v.LessThan(MustProtocolVersion("2.0.0")))
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := ParseProtocolVersion("two point oh")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}
