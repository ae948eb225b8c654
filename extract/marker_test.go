package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkers(t *testing.T) {
	t.Parallel()
	generated := "Great, noted!\nFIELD_COLLECTED: title = Sourdough Basics\nFIELD_COLLECTED:lessons_count=12\nWhat level should it be?"

	markers := Markers(generated)
	require.Len(t, markers, 2)
	assert.Equal(t, Candidate{Field: "title", Value: "Sourdough Basics", Source: SourceMarker}, markers[0])
	assert.Equal(t, Candidate{Field: "lessons_count", Value: "12", Source: SourceMarker}, markers[1])

	assert.Empty(t, Markers("no markers here"))
}

func TestSignals(t *testing.T) {
	t.Parallel()
	assert.True(t, HasCompletionSignal("thanks!\nCOLLECTION_COMPLETE"))
	assert.False(t, HasCompletionSignal("still going"))
	assert.True(t, HasCancellationSignal("COLLECTION_CANCELLED\nall discarded"))
	assert.False(t, HasCancellationSignal("keep going"))
}

func TestStripControlTokens(t *testing.T) {
	t.Parallel()
	generated := "Got it, the title is set.\nFIELD_COLLECTED: title = Sourdough Basics\nWhat level should the course be?"
	assert.Equal(t, "Got it, the title is set.\nWhat level should the course be?", StripControlTokens(generated))

	// Inline tokens are removed even when the line carries other text.
	assert.Equal(t, "All done.", StripControlTokens("All done. COLLECTION_COMPLETE"))
	assert.Equal(t, "", StripControlTokens("COLLECTION_CANCELLED"))
}
