package polyline

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_ValidPolyline(t *testing.T) {
	tests := []struct {
		name     string
		encoded  string
		expected []Coordinate
	}{
		{
			name:    "single point",
			encoded: "_p~iF~ps|U",
			expected: []Coordinate{
				{Lat: 38.5, Lon: -120.2},
			},
		},
		{
			name:    "two points",
			encoded: "_p~iF~ps|U_ulLnnqC",
			expected: []Coordinate{
				{Lat: 38.5, Lon: -120.2},
				{Lat: 40.7, Lon: -120.95},
			},
		},
		{
			name:    "three points - Google example",
			encoded: "_p~iF~ps|U_ulLnnqC_mqNvxq`@",
			expected: []Coordinate{
				{Lat: 38.5, Lon: -120.2},
				{Lat: 40.7, Lon: -120.95},
				{Lat: 43.252, Lon: -126.453},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Decode(tt.encoded)
			require.NoError(t, err)
			require.Len(t, result, len(tt.expected))

			for i, coord := range result {
				assert.InDelta(t, tt.expected[i].Lat, coord.Lat, 0.00001, "lat of point %d", i)
				assert.InDelta(t, tt.expected[i].Lon, coord.Lon, 0.00001, "lon of point %d", i)
			}
		})
	}
}

func TestDecode_EmptyString(t *testing.T) {
	result, err := Decode("")
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
	}{
		{name: "missing longitude", encoded: "_p~iF"},
		{name: "truncated continuation", encoded: "_p~iF~ps"},
		{name: "character below range", encoded: "_p~iF~ps|U "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.encoded)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestEncodeDecode_Chicago(t *testing.T) {
	path := []Coordinate{
		{Lat: 41.99386, Lon: -87.65353},
		{Lat: 41.92298, Lon: -87.65385},
		{Lat: 41.87818, Lon: -87.62673},
	}

	decoded, err := Decode(Encode(path))
	require.NoError(t, err)
	require.Len(t, decoded, len(path))
	for i := range path {
		assert.InDelta(t, path[i].Lat, decoded[i].Lat, 0.00001)
		assert.InDelta(t, path[i].Lon, decoded[i].Lon, 0.00001)
	}
}

func TestEncode_GoogleExample(t *testing.T) {
	coords := []Coordinate{
		{Lat: 38.5, Lon: -120.2},
		{Lat: 40.7, Lon: -120.95},
		{Lat: 43.252, Lon: -126.453},
	}
	assert.Equal(t, "_p~iF~ps|U_ulLnnqC_mqNvxq`@", Encode(coords))
	assert.Equal(t, "", Encode(nil))
}

func TestEncodeDecode_Precision6(t *testing.T) {
	coords := []Coordinate{{Lat: 41.877471, Lon: -87.627212}}

	decoded, err := DecodeWithPrecision(EncodeWithPrecision(coords, 6), 6)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.InDelta(t, coords[0].Lat, decoded[0].Lat, 1e-6)
	assert.InDelta(t, coords[0].Lon, decoded[0].Lon, 1e-6)
}

func TestLength(t *testing.T) {
	assert.Zero(t, Length(nil))
	assert.Zero(t, Length([]Coordinate{{Lat: 1, Lon: 1}}))

	// One degree of latitude is about 111.2 km.
	got := Length([]Coordinate{{Lat: 0, Lon: 0}, {Lat: 1, Lon: 0}})
	if math.Abs(got-111195) > 100 {
		t.Errorf("expected ~111195m, got %f", got)
	}
}
