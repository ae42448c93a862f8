package extract

import (
	"fmt"
	"regexp"
	"strings"

	"grouporder-workers/internal/jsonscan"

	"github.com/tidwall/gjson"
)

const (
	// RestaurantLogoPrefix is the CDN location of store logos.
	RestaurantLogoPrefix = "https://tb-static.uber.com/prod/image-proc/processed_images/"
	// UberOneLogoURL is the membership badge rendered on eligible carts and stores.
	UberOneLogoURL = "https://dkl8of78aprwd.cloudfront.net/uber_one@3x.png"
)

var rankingPrefix = regexp.MustCompile(`^#\d+\s*[-–·:]?\s*`)

// FindStoreUUID returns the first store identifier in data.
func FindStoreUUID(data gjson.Result) string {
	v, ok := jsonscan.Find(data, func(key string, v gjson.Result) bool {
		s, ok := jsonscan.NonBlank(v)
		return ok && jsonscan.KeyIs(key, "storeUuid", "store_uuid", "storeId") && isUUID(s)
	})
	if ok {
		return strings.TrimSpace(v.Str)
	}
	v, ok = jsonscan.Find(data, func(key string, v gjson.Result) bool {
		s, ok := jsonscan.NonBlank(v.Get("uuid"))
		return ok && jsonscan.KeyIs(key, "store") && isUUID(s)
	})
	if ok {
		return strings.TrimSpace(v.Get("uuid").Str)
	}
	return ""
}

// FindRestaurantLogo returns the first PNG hosted on the store image CDN.
func FindRestaurantLogo(data gjson.Result) string {
	v, ok := jsonscan.Find(data, func(_ string, v gjson.Result) bool {
		s, ok := jsonscan.NonBlank(v)
		return ok && strings.HasPrefix(s, RestaurantLogoPrefix) && strings.HasSuffix(strings.ToLower(s), ".png")
	})
	if !ok {
		return ""
	}
	return strings.TrimSpace(v.Str)
}

// FindUberOneLogo reports whether the membership badge appears anywhere in data.
func FindUberOneLogo(data gjson.Result) bool {
	_, ok := jsonscan.Find(data, func(_ string, v gjson.Result) bool {
		return v.Type == gjson.String && strings.TrimSpace(v.Str) == UberOneLogoURL
	})
	return ok
}

// CleanRestaurantName drops a leading "#<n>" ranking prefix.
func CleanRestaurantName(name string) string {
	return strings.TrimSpace(rankingPrefix.ReplaceAllString(strings.TrimSpace(name), ""))
}

// StoreInfo is the restaurant descriptor read from a getStore response.
type StoreInfo struct {
	Name            string
	Address         string
	Hours           string
	Image           string
	UberOneEligible bool
}

var storeHoursProbes = []jsonscan.Probe[string]{
	{Name: "workingHoursTagline", Extract: textAt("storeInfoMetadata.workingHoursTagline")},
	{Name: "hoursTagline", Extract: textAt("hoursTagline")},
	{Name: "sectionHours", Extract: func(v gjson.Result) (string, bool) {
		day := jsonscan.Text(v.Get("hours.0.dayRange"))
		start := v.Get("hours.0.sectionHours.0.startTime")
		end := v.Get("hours.0.sectionHours.0.endTime")
		if day == "" || !start.Exists() || !end.Exists() {
			return "", false
		}
		return fmt.Sprintf("%s %s-%s", day, minutesOfDay(start.Int()), minutesOfDay(end.Int())), true
	}},
}

func textAt(path string) func(gjson.Result) (string, bool) {
	return func(v gjson.Result) (string, bool) {
		s := strings.TrimSpace(jsonscan.Text(v.Get(path)))
		return s, s != ""
	}
}

func minutesOfDay(m int64) string {
	return fmt.Sprintf("%02d:%02d", (m/60)%24, m%60)
}

// ExtractStoreInfo reads the data object of a store response.
func ExtractStoreInfo(store gjson.Result) StoreInfo {
	data := store.Get("data")
	if !data.IsObject() {
		data = store
	}
	info := StoreInfo{
		Name:  CleanRestaurantName(jsonscan.Text(data.Get("title"))),
		Image: FindRestaurantLogo(data),
	}
	if info.Name == "" {
		info.Name = CleanRestaurantName(firstString(data, "name", "storeName"))
	}
	if loc := data.Get("location"); loc.IsObject() {
		info.Address = addressOf(loc)
	}
	if info.Address == "" {
		info.Address = firstString(data, "address", "streetAddress")
	}
	info.Hours, _, _ = jsonscan.First(data, storeHoursProbes)

	_, eligible := jsonscan.Find(data, func(key string, v gjson.Result) bool {
		return v.Type == gjson.True && jsonscan.KeyIs(key, "isUberOneEligible", "uberOneEligible", "isMembershipEligible", "isEatsPassEligible")
	})
	info.UberOneEligible = eligible || FindUberOneLogo(data)
	return info
}
