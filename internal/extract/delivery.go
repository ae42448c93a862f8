package extract

import (
	"math"
	"strconv"
	"strings"

	"grouporder-workers/internal/jsonscan"
	"grouporder-workers/models"

	"github.com/tidwall/gjson"
)

var (
	instructionKeywords = []string{"instruction", "note", "comment", "special", "meet_at", "meetat"}
	// location hints are only used when no explicit note exists
	locationHintKeywords = []string{"door", "gate", "building", "apartment", "suite", "unit", "aptor", "floor", "buzz"}
	// keys that carry the keywords above but never hold free text
	instructionExcluded = []string{"price", "uuid", "type", "id", "url", "count", "quantity"}

	deliveryKeywords = []string{"delivery", "dropoff", "destination", "eater"}
	merchantKeywords = []string{"store", "restaurant", "merchant", "pickup", "courier"}
)

// ExtractDeliveryInstructions returns the first non-blank drop-off note.
// Explicit notes win over location hints; within each, delivery objects are
// searched first, then cart item special instructions, then the whole payload.
func ExtractDeliveryInstructions(data gjson.Result) string {
	for _, keywords := range [][]string{instructionKeywords, locationHintKeywords} {
		if s := instructionsInDeliveryObjects(data, keywords); s != "" {
			return s
		}
		if s := findString(data, func(key string, v gjson.Result) bool {
			return jsonscan.KeyIs(key, "specialInstructions")
		}); s != "" {
			return s
		}
		if s := findString(data, func(key string, v gjson.Result) bool {
			_, ok := instructionValue(key, v, keywords)
			return ok
		}); s != "" {
			return s
		}
	}
	return ""
}

func instructionsInDeliveryObjects(data gjson.Result, keywords []string) string {
	var found string
	jsonscan.WalkObjects(data, func(key string, obj gjson.Result, _ int) bool {
		if !jsonscan.KeyHas(key, "delivery") {
			return true
		}
		obj.ForEach(func(k, v gjson.Result) bool {
			if s, ok := instructionValue(k.String(), v, keywords); ok {
				found = s
			}
			return found == ""
		})
		return found == ""
	})
	return found
}

func findString(data gjson.Result, match func(key string, v gjson.Result) bool) string {
	v, ok := jsonscan.Find(data, func(key string, v gjson.Result) bool {
		_, nonBlank := jsonscan.NonBlank(v)
		return nonBlank && match(key, v)
	})
	if !ok {
		return ""
	}
	s, _ := jsonscan.NonBlank(v)
	return s
}

func instructionValue(key string, v gjson.Result, keywords []string) (string, bool) {
	s, ok := jsonscan.NonBlank(v)
	if !ok || !jsonscan.KeyHas(key, keywords...) {
		return "", false
	}
	lower := strings.ToLower(key)
	for _, ex := range instructionExcluded {
		if strings.HasSuffix(lower, ex) {
			return "", false
		}
	}
	if strings.HasPrefix(s, "http") || isUUID(s) {
		return "", false
	}
	return s, true
}

// FindDeliveryCoords returns the first plausible coordinate pair, preferring
// objects found under delivery-flavored keys and never store locations.
func FindDeliveryCoords(data gjson.Result) (models.Coordinates, bool) {
	var out models.Coordinates
	found := false
	search := func(accept func(key string) bool) {
		jsonscan.WalkObjects(data, func(key string, obj gjson.Result, _ int) bool {
			if !accept(key) {
				return true
			}
			if c, ok := coordsOf(obj); ok {
				out, found = c, true
				return false
			}
			return true
		})
	}
	search(func(key string) bool { return jsonscan.KeyHas(key, deliveryKeywords...) })
	if !found {
		search(func(key string) bool { return !jsonscan.KeyHas(key, merchantKeywords...) })
	}
	return out, found
}

func coordsOf(obj gjson.Result) (models.Coordinates, bool) {
	if !obj.IsObject() {
		return models.Coordinates{}, false
	}
	lat, okLat := numberAt(obj, "latitude", "lat")
	lng, okLng := numberAt(obj, "longitude", "lng", "lon")
	if !okLat || !okLng {
		if inner := obj.Get("location"); inner.IsObject() {
			return coordsOf(inner)
		}
		return models.Coordinates{}, false
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 || (lat == 0 && lng == 0) {
		return models.Coordinates{}, false
	}
	return models.Coordinates{Latitude: lat, Longitude: lng}, true
}

func numberAt(obj gjson.Result, keys ...string) (float64, bool) {
	for _, k := range keys {
		v := obj.Get(k)
		switch v.Type {
		case gjson.Number:
			return v.Num, !math.IsNaN(v.Num)
		case gjson.String:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

// FindDeliveryAddress returns the first formatted address found under a
// delivery-flavored key.
func FindDeliveryAddress(data gjson.Result) string {
	var found string
	jsonscan.Walk(data, func(key string, v gjson.Result, _ int) bool {
		if !jsonscan.KeyHas(key, deliveryKeywords...) || isNonAddressKey(key) {
			return true
		}
		if s, ok := jsonscan.NonBlank(v); ok && jsonscan.KeyHas(key, "address") {
			found = s
		} else if v.IsObject() {
			found = addressOf(v)
		}
		return found == ""
	})
	return found
}

func isNonAddressKey(key string) bool {
	return jsonscan.KeyHas(key, "instruction", "fee", "time", "type") || strings.HasSuffix(strings.ToLower(key), "eta")
}

// addressOf renders an address object: formattedAddress, then address1 and
// address2, then a nested address object, then title and subtitle.
func addressOf(obj gjson.Result) string {
	if !obj.IsObject() {
		return ""
	}
	if s := firstString(obj, "formattedAddress", "fullAddress", "displayAddress"); s != "" {
		return s
	}
	if line1 := firstString(obj, "address1", "addressLine1", "street", "streetAddress"); line1 != "" {
		parts := []string{line1}
		if line2 := firstString(obj, "address2", "addressLine2", "aptOrSuite"); line2 != "" {
			parts = append(parts, line2)
		}
		return strings.Join(parts, ", ")
	}
	if inner := obj.Get("address"); inner.IsObject() {
		return addressOf(inner)
	}
	if s, ok := jsonscan.NonBlank(obj.Get("address")); ok {
		return s
	}
	title := firstString(obj, "title")
	subtitle := firstString(obj, "subtitle")
	if title != "" && subtitle != "" {
		return title + ", " + subtitle
	}
	return ""
}
