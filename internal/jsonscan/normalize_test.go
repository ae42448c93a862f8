package jsonscan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

func TestAmountFromFixedPoint(t *testing.T) {
	tests := []struct {
		name string
		json string
		want float64
	}{
		{"plain integer", `1234500`, 12.345},
		{"low component", `{"low":250000}`, 2.5},
		{"low and zero high", `{"low":250000,"high":0,"unsigned":false}`, 2.5},
		{"negative low", `{"low":-250000,"high":-1}`, -2.5},
		{"numeric string", `"399000"`, 3.99},
		{"null", `null`, 0},
		{"missing low", `{"high":1}`, 0},
		{"garbage string", `"abc"`, 0},
		{"bool", `true`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, AmountFromFixedPoint(gjson.Parse(tt.json)), 1e-9)
		})
	}

	assert.Equal(t, 0.0, AmountFromFixedPoint(gjson.Get(`{}`, "missing")))
}

func TestPriceFromRichField(t *testing.T) {
	tests := []struct {
		name string
		json string
		want float64
	}{
		{"rich text", `{"richTextElements":[{"type":"text","text":{"text":{"text":"$1,234.50"}}}]}`, 1234.50},
		{"rich text skips blanks", `{"richTextElements":[{"text":{"text":{"text":"Price"}}},{"text":{"text":{"text":"$7.25"}}}]}`, 7.25},
		{"plain text", `{"text":"$12.00"}`, 12},
		{"unparsable rich falls to text", `{"richTextElements":[{"text":{"text":{"text":"Free"}}}],"text":"$3.00"}`, 3},
		{"fixed point", `{"low":599000,"high":0}`, 5.99},
		{"plain number", `4.5`, 4.5},
		{"unknown", `"free"`, 0},
		{"empty object", `{}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, PriceFromRichField(gjson.Parse(tt.json)), 1e-9)
		})
	}
}

func TestQuantityFromField(t *testing.T) {
	tests := []struct {
		name string
		json string
		want float64
	}{
		{"fractional", `{"value":{"coefficient":150,"exponent":-2}}`, 1.5},
		{"no scaling at exponent zero", `{"value":{"coefficient":300,"exponent":0}}`, 300},
		{"whole after scaling", `{"value":{"coefficient":{"low":300,"high":0},"exponent":-2}}`, 3},
		{"direct coefficient", `{"coefficient":"2","exponent":"1"}`, 20},
		{"plain quantity", `{"quantity":4}`, 4},
		{"nested quantity", `{"quantity":{"value":{"coefficient":25,"exponent":-1}}}`, 2.5},
		{"plain number", `2`, 2},
		{"missing", `{}`, 1},
		{"malformed", `"lots"`, 1},
		{"zero", `0`, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, QuantityFromField(gjson.Parse(tt.json)))
		})
	}
}

func TestParseMoney(t *testing.T) {
	f, ok := ParseMoney("12.00 USD")
	assert.True(t, ok)
	assert.Equal(t, 12.0, f)

	f, ok = ParseMoney("-$2.50")
	assert.True(t, ok)
	assert.Equal(t, -2.5, f)

	_, ok = ParseMoney("Free")
	assert.False(t, ok)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 23.43, Round2(18.0+3.99+1.44))
	assert.Equal(t, 2.16, Round2(0.12*18))
	assert.Equal(t, 1.01, Round2(1.005))
}
