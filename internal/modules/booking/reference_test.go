package booking

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomReferences_Format(t *testing.T) {
	at := time.Date(2026, 10, 15, 23, 30, 0, 0, time.UTC)
	ref, err := RandomReferences().NewReference(at)
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^BK_20261015_[A-Z0-9]{6}$`), ref)

	day, err := ParseReference(ref)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC), day)
}

func TestRandomReferences_UsesUTCDate(t *testing.T) {
	almaty := time.FixedZone("UTC+5", 5*60*60)
	at := time.Date(2026, 10, 16, 2, 0, 0, 0, almaty) // 2026-10-15 21:00 UTC

	ref, err := RandomReferences().NewReference(at)
	require.NoError(t, err)
	assert.Contains(t, ref, "BK_20261015_")
}

func TestRandomReferences_Distinct(t *testing.T) {
	gen := RandomReferences()
	at := time.Now()
	seen := make(map[string]struct{}, 500)
	for i := 0; i < 500; i++ {
		ref, err := gen.NewReference(at)
		require.NoError(t, err)
		seen[ref] = struct{}{}
	}
	// 36^6 possible suffixes; a collision in 500 draws would point at a broken generator
	assert.Len(t, seen, 500)
}

func TestParseReference_Rejects(t *testing.T) {
	for _, ref := range []string{
		"",
		"BK_20261015_abc123",
		"BK_20261015ABC123",
		"BK_2026101_ABC123",
		"BK_20261315_ABC123",
		"XX_20261015_ABC123",
		"BK_20261015_ABC1234",
	} {
		_, err := ParseReference(ref)
		assert.ErrorIs(t, err, ErrValidation, ref)
	}
}
