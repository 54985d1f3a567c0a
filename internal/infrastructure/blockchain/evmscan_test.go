package blockchain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTokenAmount(t *testing.T) {
	t.Run("scales by contract decimals", func(t *testing.T) {
		// 50 USDT with 18 decimals
		amount, err := parseTokenAmount("0x000000000000000000000000000000000000000000000002b5e3af16b1880000", 18)
		require.NoError(t, err)
		assert.True(t, amount.Equal(decimal.NewFromInt(50)), "got %s", amount)
	})

	t.Run("six decimal token", func(t *testing.T) {
		amount, err := parseTokenAmount("0x0000000000000000000000000000000000000000000000000000000002faf080", 6)
		require.NoError(t, err)
		assert.True(t, amount.Equal(decimal.NewFromInt(50)), "got %s", amount)
	})

	t.Run("fractional amount survives", func(t *testing.T) {
		amount, err := parseTokenAmount("0x2faf085", 6)
		require.NoError(t, err)
		assert.True(t, amount.Equal(decimal.NewFromFloat(50.000005)), "got %s", amount)
	})

	t.Run("garbage word errors", func(t *testing.T) {
		_, err := parseTokenAmount("0xzz", 18)
		assert.Error(t, err)
	})
}

func TestTopicToAddress(t *testing.T) {
	topic := "0x000000000000000000000000c0ffee254729296a45a3885639ac7e10f9d54979"
	assert.Equal(t, "0xc0ffee254729296a45a3885639ac7e10f9d54979", topicToAddress(topic))

	// Already bare addresses pass through
	assert.Equal(t, "0xc0ffee254729296a45a3885639ac7e10f9d54979",
		topicToAddress("0xc0ffee254729296a45a3885639ac7e10f9d54979"))
}

func TestHexToInt64(t *testing.T) {
	assert.Equal(t, int64(0x12d687), hexToInt64("0x12d687"))
	assert.Equal(t, int64(0), hexToInt64("0x"))
	assert.Equal(t, int64(0), hexToInt64("not-hex"))
}
