package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const flipperMetadata = `{
	"contract": {"name": "flipper", "version": "4.2.0"},
	"spec": {
		"messages": [
			{"label": "flip", "selector": "0x633aa551", "mutates": true, "payable": false},
			{"label": "get", "selector": "0x2f865bd9", "mutates": false, "payable": false}
		]
	}
}`

func TestParseMetadata(t *testing.T) {
	t.Run("parses messages", func(t *testing.T) {
		meta, err := ParseMetadata([]byte(flipperMetadata))
		require.NoError(t, err)

		assert.Equal(t, "flipper", meta.Name)
		assert.Equal(t, "4.2.0", meta.Version)
		assert.ElementsMatch(t, []string{"flip", "get"}, meta.Messages())

		flip, err := meta.Message("flip")
		require.NoError(t, err)
		assert.Equal(t, []byte{0x63, 0x3a, 0xa5, 0x51}, flip.Selector)
		assert.True(t, flip.Mutates)

		get, err := meta.Message("get")
		require.NoError(t, err)
		assert.False(t, get.Mutates)
	})

	t.Run("rejects malformed json", func(t *testing.T) {
		_, err := ParseMetadata([]byte("{not json"))
		assert.ErrorIs(t, err, ErrInvalidInterfaceDescription)
	})

	t.Run("rejects empty message spec", func(t *testing.T) {
		_, err := ParseMetadata([]byte(`{"contract":{"name":"x"},"spec":{"messages":[]}}`))
		assert.ErrorIs(t, err, ErrInvalidInterfaceDescription)
	})

	t.Run("rejects bad selectors", func(t *testing.T) {
		_, err := ParseMetadata([]byte(`{"spec":{"messages":[{"label":"f","selector":"0x1234"}]}}`))
		assert.ErrorIs(t, err, ErrInvalidInterfaceDescription)
	})

	t.Run("unknown message lookup", func(t *testing.T) {
		meta, err := ParseMetadata([]byte(flipperMetadata))
		require.NoError(t, err)

		_, err = meta.Message("missing")
		assert.ErrorIs(t, err, ErrUnknownMessage)
	})
}
