package extract

import (
	"regexp"
	"strings"

	"grouporder-workers/internal/jsonscan"

	"github.com/tidwall/gjson"
)

// Estimation constants, calibrated against observed orders.
const (
	UberOneBenefitRate     = 0.095
	EstimatedDeliveryFee   = 3.99
	EstimatedServiceRate   = 0.12
	EstimatedSmallOrderFee = 2.00
	SmallOrderThreshold    = 10.00
	DefaultCurrency        = "USD"
)

var (
	chargeListPaths = []string{"fareBreakdown.charges", "fareBreakdown.chargeItems"}

	benefitKeywords  = []string{"uber one", "membership", "benefit", "discount"}
	otherFeeKeywords = []string{"fee", "charge", "cost", "surcharge", "platform", "processing", "convenience", "booking", "order", "handling"}

	tipPattern = regexp.MustCompile(`\btips?\b|gratuity`)
)

// Breakdown is a fare breakdown in major currency units, rounded to cents.
type Breakdown struct {
	Subtotal       float64
	Taxes          float64
	Fees           float64
	DeliveryFee    float64
	ServiceFee     float64
	Tip            float64
	SmallOrderFee  float64
	AdjustmentsFee float64
	PickupFee      float64
	OtherFees      float64

	HasUberOne     bool
	UberOneBenefit float64

	// Total is zero when the payload carried none; TotalProvided tells the two apart.
	Total         float64
	TotalProvided bool
	Currency      string
}

func (b *Breakdown) feeSum() float64 {
	return b.DeliveryFee + b.ServiceFee + b.Tip + b.SmallOrderFee + b.AdjustmentsFee + b.PickupFee + b.OtherFees
}

type charge struct {
	title   string
	tag     string
	amount  float64
	present bool
}

// ReconcileFares classifies the fare breakdown charges of a checkoutPayloads
// object into canonical categories. It is a pure function of its input.
func ReconcileFares(payloads gjson.Result) Breakdown {
	b := Breakdown{Currency: currencyOf(payloads)}
	explicitBenefit := false
	totalLine, hasTotalLine := 0.0, false

	for _, c := range chargesOf(payloads) {
		if !c.present {
			continue
		}
		if c.amount < 0 {
			if containsAny(c.title, benefitKeywords...) {
				b.UberOneBenefit += -c.amount
				b.HasUberOne = true
				explicitBenefit = true
			}
			// other negative lines are already reflected elsewhere
			continue
		}
		if c.title == "total" || c.title == "estimated total" {
			totalLine, hasTotalLine = c.amount, true
			continue
		}
		classify(&b, c)
	}

	if total, ok := payloadTotal(payloads); ok {
		b.Total, b.TotalProvided = total, true
	} else if hasTotalLine {
		b.Total, b.TotalProvided = totalLine, true
	}

	if !explicitBenefit && b.Subtotal > 0 {
		b.UberOneBenefit = b.Subtotal * UberOneBenefitRate
	}

	if b.feeSum() == 0 && b.TotalProvided && b.Subtotal > 0 {
		if derived := jsonscan.Round2(b.Total - b.Subtotal - b.Taxes); derived > 0 {
			b.OtherFees = derived
		}
	}

	if b.feeSum() == 0 && b.Subtotal > 0 {
		b.DeliveryFee = EstimatedDeliveryFee
		b.ServiceFee = jsonscan.Round2(b.Subtotal * EstimatedServiceRate)
		if b.Subtotal < SmallOrderThreshold {
			b.SmallOrderFee = EstimatedSmallOrderFee
		}
	}

	b.Fees = jsonscan.Round2(b.feeSum())

	return b.rounded()
}

func classify(b *Breakdown, c charge) {
	t, tag := c.title, c.tag
	switch {
	case strings.Contains(t, "subtotal"):
		b.Subtotal += c.amount
	case strings.Contains(t, "tax") || strings.Contains(tag, "tax"):
		b.Taxes += c.amount
	case strings.Contains(t, "delivery") || strings.Contains(tag, "delivery"):
		b.DeliveryFee += c.amount
	case strings.Contains(t, "service") || strings.Contains(tag, "service"):
		b.ServiceFee += c.amount
	case tipPattern.MatchString(t) || strings.Contains(tag, "tip"):
		b.Tip += c.amount
	case strings.Contains(t, "small order") || strings.Contains(tag, "small_order"):
		b.SmallOrderFee += c.amount
	case strings.Contains(t, "adjustment") || strings.Contains(tag, "adjustment"):
		b.AdjustmentsFee += c.amount
	case containsAny(t, "pickup", "pick-up", "pick up") || strings.Contains(tag, "pickup"):
		b.PickupFee += c.amount
	case containsAny(t, otherFeeKeywords...):
		b.OtherFees += c.amount
	case c.amount > 0:
		b.OtherFees += c.amount
	}
}

func chargesOf(payloads gjson.Result) []charge {
	var list gjson.Result
	for _, p := range chargeListPaths {
		if v := payloads.Get(p); v.IsArray() {
			list = v
			break
		}
	}
	var out []charge
	for _, raw := range list.Array() {
		amount, ok := chargeAmount(raw)
		out = append(out, charge{
			title:   strings.ToLower(chargeTitle(raw)),
			tag:     strings.ToLower(firstString(raw, "type", "chargeType", "fareType")),
			amount:  amount,
			present: ok,
		})
	}
	return out
}

func chargeTitle(raw gjson.Result) string {
	for _, k := range []string{"title", "label", "name"} {
		if s := jsonscan.Text(raw.Get(k)); s != "" {
			return s
		}
	}
	return ""
}

// chargeAmount walks the known amount encodings from most to least precise.
func chargeAmount(raw gjson.Result) (float64, bool) {
	for _, p := range []string{"analyticsInfo.amountE5", "amountE5", "value.amountE5", "price.amountE5", "fixedPointAmount"} {
		if v := raw.Get(p); v.Exists() {
			return jsonscan.AmountFromFixedPoint(v), true
		}
	}
	if v := raw.Get("amount"); v.Type == gjson.Number {
		return v.Num, true
	}
	for _, p := range []string{"price.text", "displayAmount", "value.text"} {
		if f, ok := jsonscan.ParseMoney(raw.Get(p).String()); ok {
			return f, true
		}
	}
	return 0, false
}

func payloadTotal(payloads gjson.Result) (float64, bool) {
	for _, p := range []string{"total.analyticsInfo.amountE5", "total.total.value", "total.value", "total.amountE5"} {
		if v := payloads.Get(p); v.Exists() {
			if amount := jsonscan.AmountFromFixedPoint(v); amount > 0 {
				return amount, true
			}
		}
	}
	return 0, false
}

func currencyOf(payloads gjson.Result) string {
	for _, p := range []string{"total.currencyCode", "fareBreakdown.currencyCode", "currencyCode"} {
		if s, ok := jsonscan.NonBlank(payloads.Get(p)); ok {
			return strings.ToUpper(s)
		}
	}
	return DefaultCurrency
}

func (b Breakdown) rounded() Breakdown {
	for _, f := range []*float64{&b.Subtotal, &b.Taxes, &b.Fees, &b.DeliveryFee, &b.ServiceFee, &b.Tip,
		&b.SmallOrderFee, &b.AdjustmentsFee, &b.PickupFee, &b.OtherFees, &b.UberOneBenefit, &b.Total} {
		*f = jsonscan.Round2(*f)
	}
	return b
}

func containsAny(s string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func firstString(v gjson.Result, keys ...string) string {
	for _, k := range keys {
		if s, ok := jsonscan.NonBlank(v.Get(k)); ok {
			return s
		}
	}
	return ""
}
