package ident

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCity(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "latin lowercase passthrough", in: "fairbanks", want: "fairbanks"},
		{name: "uppercase folded", in: "Якутск", want: "якутск"},
		{name: "spaces and punctuation stripped", in: "Усть-Нера", want: "устьнера"},
		{name: "latin diacritics stripped", in: "Saint-André", want: "saintandre"},
		// NFD decomposes й into и plus a combining breve, so the breve is
		// stripped like any other mark. Both sides of a comparison go
		// through the same fold, so matching is unaffected.
		{name: "digits kept", in: "Мирный-2", want: "мирныи2"},
		{name: "mixed scripts", in: "Nizhny Бестях", want: "nizhnyбестях"},
		{name: "empty", in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCity(tt.in))
		})
	}
}

func TestVirtualStopIDDeterministic(t *testing.T) {
	a := VirtualStopID("Усть-Нера")
	b := VirtualStopID("усть нера") // same city after normalization
	require.Equal(t, a, b)
	require.NotEqual(t, a, VirtualStopID("Мирный"))
	assert.Regexp(t, `^vs-[0-9a-f]{16}$`, a)
}

func TestVirtualRouteAndFlightIDs(t *testing.T) {
	from := VirtualStopID("Тикси")
	to := VirtualStopID("Якутск")
	fwd := VirtualRouteID(from, to)
	rev := VirtualRouteID(to, from)
	require.NotEqual(t, fwd, rev)

	f1 := VirtualFlightID(fwd, 0, 0)
	f2 := VirtualFlightID(fwd, 0, 1)
	f3 := VirtualFlightID(fwd, 1, 0)
	assert.NotEqual(t, f1, f2)
	assert.NotEqual(t, f1, f3)
	assert.Equal(t, f1, VirtualFlightID(fwd, 0, 0))
}
