package lnwire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRawFeatureVectorEqual(t *testing.T) {
	require.True(t, NewRawFeatureVector(GossipQueriesOptional).
		Equal(NewRawFeatureVector(GossipQueriesOptional)))

	require.False(t, NewRawFeatureVector(GossipQueriesOptional).
		Equal(NewRawFeatureVector(InitialRoutingSyncOptional)))

	require.True(t, NewRawFeatureVector().Equal(NewRawFeatureVector()))
}

func TestRawFeatureVectorEqualHandlesNil(t *testing.T) {
	var nilFV *RawFeatureVector

	require.True(t, nilFV.Equal(nil))
	require.True(t, nilFV.Equal(NewRawFeatureVector()))
	require.False(t, nilFV.Equal(NewRawFeatureVector(GossipQueriesOptional)))
}

func TestRawFeatureVectorEncodeDecodeRoundTrip(t *testing.T) {
	fv := NewRawFeatureVector(GossipQueriesOptional, InitialRoutingSyncOptional)

	var buf bytes.Buffer
	require.NoError(t, fv.Encode(&buf))

	decoded := &RawFeatureVector{}
	require.NoError(t, decoded.Decode(&buf))

	require.True(t, fv.Equal(decoded))
	require.True(t, decoded.IsSet(GossipQueriesRequired))
	require.True(t, decoded.IsSet(InitialRoutingSyncOptional))
}
