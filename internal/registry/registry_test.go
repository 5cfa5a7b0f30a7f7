package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"print-service/internal/model"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"colons", "66:11:22:33:44:55", "66:11:22:33:44:55"},
		{"dashes", "66-11-22-33-44-55", "66:11:22:33:44:55"},
		{"dots", "6611.2233.4455", "66:11:22:33:44:55"},
		{"bare", "661122334455", "66:11:22:33:44:55"},
		{"lowercase", "aa:bb:cc:dd:ee:ff", "AA:BB:CC:DD:EE:FF"},
		{"mixed junk", " 66zz11--22 ", "66:11:22"},
		{"odd digit count", "66112", "66:11:2"},
		{"single digit", "a", "A"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeEquivalence(t *testing.T) {
	variants := []string{
		"66:11:22:33:44:55",
		"66-11-22-33-44-55",
		"6611.2233.4455",
		"661122334455",
		"66 11 22 33 44 55",
	}
	for _, v := range variants {
		got, err := Normalize(v)
		require.NoError(t, err)
		assert.Equal(t, "66:11:22:33:44:55", got, "variant %q", v)
	}
}

func TestNormalizeInvalid(t *testing.T) {
	for _, raw := range []string{"", "zz--zz", "   ", "ghij"} {
		_, err := Normalize(raw)
		assert.ErrorIs(t, err, ErrInvalidIdentifier, "raw %q", raw)
	}
}

func TestUpsertMergesByNormalizedID(t *testing.T) {
	r := NewRegistry(zap.NewNop())

	id1, err := r.Upsert("66-11-22-33-44-55", model.PrinterInfo{Model: "TSP143IV"})
	require.NoError(t, err)
	id2, err := r.Upsert("661122334455", model.PrinterInfo{Firmware: "2.4"})
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.Len(t, r.List(), 1)

	p, ok := r.Get("66:11:22:33:44:55")
	require.True(t, ok)
	assert.Equal(t, "TSP143IV", p.Model, "re-registration must not clear the model")
	assert.Equal(t, "2.4", p.Firmware)
}

func TestUpsertKeepsCapabilities(t *testing.T) {
	r := NewRegistry(zap.NewNop())

	declared := []string{"application/vnd.star.line", "application/vnd.star.starprnt"}
	_, err := r.Upsert("66-11-22-33-44-55", model.PrinterInfo{Capabilities: declared})
	require.NoError(t, err)

	// A bare status poll must not wipe what the printer declared earlier
	_, err = r.Upsert("66-11-22-33-44-55", model.PrinterInfo{StatusCode: "200 OK"})
	require.NoError(t, err)

	p, ok := r.Get("66:11:22:33:44:55")
	require.True(t, ok)
	assert.Equal(t, declared, p.Capabilities)

	// Mutating the returned copy must not leak into the registry
	p.Capabilities[0] = "mutated"
	p2, _ := r.Get("66:11:22:33:44:55")
	assert.Equal(t, "application/vnd.star.line", p2.Capabilities[0])
}

func TestUpsertInvalid(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	_, err := r.Upsert("zz!!--zz", model.PrinterInfo{})
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
	assert.Empty(t, r.List())
}

func TestGetUnknown(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	_, ok := r.Get("00:00:00:00:00:00")
	assert.False(t, ok)
}
