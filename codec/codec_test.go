package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "go-json"} {
		c, ok := ByName(name)
		require.True(t, ok, name)
		assert.Equal(t, name, c.Name())
	}

	_, ok := ByName("msgpack")
	assert.False(t, ok)
}

func TestSidecarsAcrossCodecs(t *testing.T) {
	keys := []string{"duck|NOUN", "rock&roll|NOUN", "<s>|X", "ümlaut|ADJ"}
	pairs := [][2]any{{"duck|NOUN", 120}, {"rock&roll|NOUN", 7}}

	for _, enc := range []Codec{JSON{}, GoJSON{}} {
		for _, dec := range []Codec{JSON{}, GoJSON{}} {
			t.Run(enc.Name()+"->"+dec.Name(), func(t *testing.T) {
				var gotKeys []string
				require.NoError(t, dec.Unmarshal(MustMarshal(enc, keys), &gotKeys))
				assert.Equal(t, keys, gotKeys)

				var gotPairs [][2]any
				require.NoError(t, dec.Unmarshal(MustMarshal(enc, pairs), &gotPairs))
				require.Len(t, gotPairs, 2)
				assert.Equal(t, "rock&roll|NOUN", gotPairs[1][0])
				assert.InDelta(t, 7.0, gotPairs[1][1], 0)
			})
		}
	}
}

func TestKeysAreNotEscaped(t *testing.T) {
	for _, c := range []Codec{JSON{}, GoJSON{}} {
		t.Run(c.Name(), func(t *testing.T) {
			assert.Equal(t, `["a<b","c&d"]`, string(MustMarshal(c, []string{"a<b", "c&d"})))
			assert.Equal(t, `[["x",3]]`, string(MustMarshal(c, [][2]any{{"x", 3}})))
		})
	}
}

func TestMustMarshalPanics(t *testing.T) {
	assert.Panics(t, func() { MustMarshal(JSON{}, make(chan int)) })
	assert.Panics(t, func() { MustMarshal(nil, func() {}) })
}
