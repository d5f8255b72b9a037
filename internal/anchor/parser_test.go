package anchor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cliniscribe/internal/domain"
	"cliniscribe/internal/port"
)

func testRegistry() *Registry {
	return NewRegistry(
		&port.RegistrySource{ID: "transcript-1", Name: "Dictation", Text: "The patient's LVEF was 55 percent on the recent echo. Blood pressure was well controlled."},
		[]port.RegistrySource{
			{ID: "doc-echo", Name: "Echo report", Text: "Study date 15/03/2024. LVEF 55%. Moderate aortic stenosis with mean gradient 32 mmHg."},
		},
		&port.RegistrySource{ID: "user-1", Name: "Additional notes", Text: "Patient prefers morning appointments."},
	)
}

func TestParseNoMarkersIsIdentity(t *testing.T) {
	text := "Dear Dr Smith,\n\nThank you for your referral.  Spacing   preserved."
	res := Parse(text, testRegistry())
	assert.Equal(t, text, res.CleanText)
	assert.Empty(t, res.Anchors)
	assert.Empty(t, res.Unverified)
}

func TestParseResolvesMarkers(t *testing.T) {
	text := "The echocardiogram showed an LVEF of 55%. [[src:doc-echo|LVEF 55%]] Review in 6 months."
	res := Parse(text, testRegistry())

	assert.Equal(t, "The echocardiogram showed an LVEF of 55%.  Review in 6 months.", res.CleanText)
	require.Len(t, res.Anchors, 1)
	a := res.Anchors[0]
	assert.Equal(t, "doc-echo", a.SourceID)
	assert.Equal(t, domain.SourceTypeDocument, a.SourceType)
	assert.Equal(t, 1.0, a.Confidence, "exact substring match scores 1.0")
	assert.Greater(t, a.End, a.Start)
	assert.LessOrEqual(t, a.End, len([]rune(res.CleanText)))
}

func TestParseUnresolvedMarkerRetained(t *testing.T) {
	text := "Cardiac MRI showed a mass. [[src:doc-mri|cardiac mass]]"
	res := Parse(text, testRegistry())

	assert.Empty(t, res.Anchors)
	require.Len(t, res.Unverified, 1)
	assert.Equal(t, "doc-mri", res.Unverified[0].SourceID)
	assert.Equal(t, "cardiac mass", res.Unverified[0].Excerpt)
	assert.NotContains(t, res.CleanText, "[[src:")
}

func TestParseMultipleMarkers(t *testing.T) {
	text := "LVEF was 55%. [[src:doc-echo|LVEF 55%]] BP well controlled. [[src:transcript-1|Blood pressure was well controlled]] Unknown claim. [[src:nope|whatever]]"
	res := Parse(text, testRegistry())

	require.Len(t, res.Anchors, 2)
	require.Len(t, res.Unverified, 1)
	assert.Equal(t, domain.SourceTypeDocument, res.Anchors[0].SourceType)
	assert.Equal(t, domain.SourceTypeTranscript, res.Anchors[1].SourceType)
	assert.Equal(t, "anchor-1", res.Anchors[0].ID)
}

func TestParsePartialOverlapConfidence(t *testing.T) {
	text := "Aortic valve is heavily diseased. [[src:doc-echo|severe aortic stenosis observed]]"
	res := Parse(text, testRegistry())

	require.Len(t, res.Anchors, 1)
	c := res.Anchors[0].Confidence
	assert.Greater(t, c, 0.0)
	assert.Less(t, c, 1.0)
}

func TestParseAnchorCoversContainingSentence(t *testing.T) {
	text := "First sentence. The LVEF was 55%. [[src:doc-echo|LVEF 55%]] Last sentence."
	res := Parse(text, testRegistry())

	require.Len(t, res.Anchors, 1)
	runes := []rune(res.CleanText)
	span := string(runes[res.Anchors[0].Start:res.Anchors[0].End])
	assert.Contains(t, span, "LVEF was 55%")
	assert.NotContains(t, span, "First sentence")
}

func TestParseMalformedMarkerStripped(t *testing.T) {
	text := "Claim here. [[src:no-separator]] More text."
	res := Parse(text, testRegistry())
	assert.Equal(t, "Claim here.  More text.", res.CleanText)
	assert.Empty(t, res.Anchors)
	assert.Empty(t, res.Unverified)
}

func TestRegistryLookup(t *testing.T) {
	r := testRegistry()
	src, ok := r.Lookup("user-1")
	require.True(t, ok)
	assert.Equal(t, domain.SourceTypeUserInput, src.Type)

	_, ok = r.Lookup("missing")
	assert.False(t, ok)

	assert.Len(t, r.All(), 3)
}
