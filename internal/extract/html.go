package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"grouporder-workers/models"
)

// PageData is what the rendered order page gives up when the API does not.
// Nil fields were not found.
type PageData struct {
	Coordinates  *models.Coordinates
	Address      *string
	Instructions *string
	Phone        *string
}

// q matches a JSON quote that may be escaped inside a script string literal.
const q = `\\?"`

type coordPattern struct {
	lat, lng *regexp.Regexp
}

var (
	coordPatterns = []coordPattern{
		coordPair("latitude", "longitude"),
		coordPair("lat", "lng"),
		coordPair("lat", "lon"),
		coordPair("deliveryLatitude", "deliveryLongitude"),
	}

	meetAtDoorPattern = regexp.MustCompile(q + `(?:displayString|subtitle|title|label)` + q + `\s*:\s*` + q + `([^"\\]*Meet at my door[^"\\]*)` + q)
	formattedPattern  = stringField("formattedAddress")
	address1Pattern   = stringField("address1")
	address2Pattern   = stringField("address2")
	addressPatterns   = stringFields("streetAddress", "fullAddress", "deliveryAddress", "addressLine1", "displayAddress")

	instructionPatterns = stringFields(
		"deliveryInstructions", "delivery_instructions", "dropoffInstructions", "dropoffNotes",
		"specialInstructions", "instructions", "deliveryNotes", "deliveryNote", "notes",
		"note", "courierNotes", "meetAt", "handoffInstructions",
	)

	phonePatterns = phoneFields(
		"phoneNumber", "phone_number", "phone", "mobileNumber", "mobile", "mobilePhone",
		"contactPhone", "contactNumber", "customerPhone", "eaterPhone", "eaterPhoneNumber",
		"recipientPhone", "recipientPhoneNumber", "deliveryPhone", "userPhone", "cellPhone",
		"telephone", "tel", "formattedPhoneNumber", "rawPhoneNumber",
	)

	meetAtDoorText = regexp.MustCompile(`(?i)\s*(?:·|•|\||-|,)?\s*Meet at my door\s*(?:·|•|\||-|,)?\s*`)
)

func coordPair(latKey, lngKey string) coordPattern {
	num := `\s*:\s*` + q + `?(-?\d{1,3}\.\d+)`
	return coordPattern{
		lat: regexp.MustCompile(q + latKey + q + num),
		lng: regexp.MustCompile(q + lngKey + q + num),
	}
}

func stringField(key string) *regexp.Regexp {
	return regexp.MustCompile(q + regexp.QuoteMeta(key) + q + `\s*:\s*` + q + `([^"\\]{2,300})` + q)
}

func stringFields(keys ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(keys))
	for _, k := range keys {
		out = append(out, stringField(k))
	}
	return out
}

func phoneFields(keys ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(keys))
	for _, k := range keys {
		out = append(out, regexp.MustCompile(fmt.Sprintf(`%s%s%s\s*:\s*%s?(\+?\(?\d[\d\s().\-]{6,22}\d)`, q, regexp.QuoteMeta(k), q, q)))
	}
	return out
}

// ScrapeHTML runs the fallback regex battery over a rendered order page.
// Each category keeps its first match.
func ScrapeHTML(body string) PageData {
	var out PageData
	for _, p := range coordPatterns {
		lat, okLat := firstFloat(p.lat, body)
		lng, okLng := firstFloat(p.lng, body)
		if okLat && okLng && lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180 && !(lat == 0 && lng == 0) {
			out.Coordinates = &models.Coordinates{Latitude: lat, Longitude: lng}
			break
		}
	}
	if addr := scrapeAddress(body); addr != "" {
		out.Address = &addr
	}
	for _, p := range instructionPatterns {
		if s := firstGroup(p, body); s != "" {
			out.Instructions = &s
			break
		}
	}
	for _, p := range phonePatterns {
		if s := firstGroup(p, body); s != "" && LooksLikePhone(s) {
			out.Phone = &s
			break
		}
	}
	return out
}

func scrapeAddress(body string) string {
	if s := firstGroup(meetAtDoorPattern, body); s != "" {
		if addr := strings.TrimSpace(meetAtDoorText.ReplaceAllString(s, " ")); addr != "" {
			return addr
		}
	}
	if s := firstGroup(formattedPattern, body); s != "" {
		return s
	}
	if line1 := firstGroup(address1Pattern, body); line1 != "" {
		if line2 := firstGroup(address2Pattern, body); line2 != "" {
			return line1 + ", " + line2
		}
		return line1
	}
	for _, p := range addressPatterns {
		if s := firstGroup(p, body); s != "" {
			return s
		}
	}
	return ""
}

func firstGroup(re *regexp.Regexp, body string) string {
	m := re.FindStringSubmatch(body)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func firstFloat(re *regexp.Regexp, body string) (float64, bool) {
	s := firstGroup(re, body)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}
