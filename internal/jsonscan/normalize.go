package jsonscan

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// FixedPointScale is the divisor for amounts encoded as integers scaled by 1e5.
const FixedPointScale = 100000

var leadingNumber = regexp.MustCompile(`^\s*[-+]?(?:\d+\.?\d*|\.\d+)`)

// AmountFromFixedPoint decodes a 1e5-scaled integer, either a plain number,
// a numeric string, or a {low, high} 64-bit pair. Anything else is 0.
func AmountFromFixedPoint(v gjson.Result) float64 {
	raw, ok := fixedPointRaw(v)
	if !ok {
		return 0
	}
	return finite(raw / FixedPointScale)
}

func fixedPointRaw(v gjson.Result) (float64, bool) {
	switch {
	case v.Type == gjson.Number:
		return v.Num, true
	case v.Type == gjson.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		return f, err == nil
	case v.IsObject():
		low := v.Get("low")
		if !low.Exists() {
			return 0, false
		}
		if high := v.Get("high"); high.Exists() && high.Int() != 0 {
			return float64(high.Int()<<32 | int64(uint32(low.Int()))), true
		}
		return float64(low.Int()), true
	}
	return 0, false
}

// PriceFromRichField reads a price from, in order: rich-text segments
// (el.text.text.text), a plain .text string, a fixed-point object, a plain
// number. Anything else is 0.
func PriceFromRichField(v gjson.Result) float64 {
	if elems := v.Get("richTextElements"); elems.IsArray() {
		for _, el := range elems.Array() {
			if f, ok := ParseMoney(el.Get("text.text.text").String()); ok {
				return f
			}
		}
	}
	if t := v.Get("text"); t.Type == gjson.String {
		if f, ok := ParseMoney(t.Str); ok {
			return f
		}
	}
	if v.IsObject() && v.Get("low").Exists() {
		return AmountFromFixedPoint(v)
	}
	if v.Type == gjson.Number {
		return finite(v.Num)
	}
	return 0
}

// ParseMoney strips currency symbols and thousands separators and parses the
// leading decimal number, e.g. "$1,234.50" or "12.00 USD".
func ParseMoney(s string) (float64, bool) {
	cleaned := strings.NewReplacer("$", "", ",", "").Replace(s)
	m := leadingNumber.FindString(cleaned)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(m), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// QuantityFromField reads a count encoded as coefficient x 10^exponent
// (under .value or directly), a plain .quantity, or a plain number.
// Missing or malformed input counts as 1.
func QuantityFromField(v gjson.Result) float64 {
	switch {
	case v.Type == gjson.Number:
		return positiveOrOne(v.Num)
	case v.IsObject():
		encoded := v.Get("value")
		if !encoded.IsObject() {
			encoded = v
		}
		if coef, ok := fixedPointRaw(encoded.Get("coefficient")); ok {
			exp, _ := fixedPointRaw(encoded.Get("exponent"))
			q := decimal.NewFromFloat(coef).Shift(int32(exp))
			return positiveOrOne(q.InexactFloat64())
		}
		if q := v.Get("quantity"); q.Exists() {
			return QuantityFromField(q)
		}
	}
	return 1
}

// Round2 rounds a money value to cents.
func Round2(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return decimal.NewFromFloat(f).Round(2).InexactFloat64()
}

func positiveOrOne(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 1
	}
	return f
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
