package decimalx

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestAvg(t *testing.T) {
	testCases := []struct {
		name   string
		values []decimal.Decimal
		want   string
	}{
		{
			name: "simple",
			values: []decimal.Decimal{
				decimal.NewFromInt(1),
				decimal.NewFromInt(2),
				decimal.NewFromInt(3),
			},
			want: "2",
		},
		{
			name:   "empty",
			values: nil,
			want:   "0",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, Avg(tc.values).Equal(MustFromString(tc.want)))
		})
	}
}

func TestPercentChange(t *testing.T) {
	got := PercentChange(decimal.NewFromInt(100000), decimal.NewFromInt(95000))
	assert.True(t, got.Equal(decimal.NewFromInt(-5)), "got %s", got)

	assert.True(t, PercentChange(decimal.Zero, decimal.NewFromInt(5)).IsZero())
}

func TestMedian(t *testing.T) {
	odd := []decimal.Decimal{
		decimal.NewFromInt(3),
		decimal.NewFromInt(1),
		decimal.NewFromInt(2),
	}
	assert.True(t, Median(odd).Equal(decimal.NewFromInt(2)))

	even := []decimal.Decimal{
		decimal.NewFromInt(4),
		decimal.NewFromInt(1),
		decimal.NewFromInt(3),
		decimal.NewFromInt(2),
	}
	assert.True(t, Median(even).Equal(MustFromString("2.5")))
}

func TestSlope(t *testing.T) {
	rising := []decimal.Decimal{
		decimal.NewFromInt(1),
		decimal.NewFromInt(2),
		decimal.NewFromInt(3),
		decimal.NewFromInt(4),
	}
	assert.True(t, Slope(rising).GreaterThan(decimal.Zero))

	flat := []decimal.Decimal{
		decimal.NewFromInt(5),
		decimal.NewFromInt(5),
		decimal.NewFromInt(5),
	}
	assert.True(t, Slope(flat).IsZero())
}
