package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

const storeID = "5c1f0d2e-8a44-4c1e-9a3b-2f6d7e8a9b01"

func TestFindStoreUUID(t *testing.T) {
	tests := []struct {
		name string
		json string
		want string
	}{
		{"direct key", `{"data":{"cart":{"storeUuid":"` + storeID + `"}}}`, storeID},
		{"snake case", `{"store_uuid":"` + storeID + `"}`, storeID},
		{"store object", `{"data":{"store":{"uuid":"` + storeID + `","title":"x"}}}`, storeID},
		{"not a uuid", `{"storeUuid":"12345"}`, ""},
		{"missing", `{"data":{}}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FindStoreUUID(gjson.Parse(tt.json)))
		})
	}
}

func TestFindLogos(t *testing.T) {
	data := gjson.Parse(`{"a":{"b":[
		"https://example.com/logo.png",
		"` + RestaurantLogoPrefix + `abc/def.jpeg",
		"` + RestaurantLogoPrefix + `abc/logo.png"
	]},"badge":"` + UberOneLogoURL + `"}`)

	assert.Equal(t, RestaurantLogoPrefix+"abc/logo.png", FindRestaurantLogo(data))
	assert.True(t, FindUberOneLogo(data))
	assert.False(t, FindUberOneLogo(gjson.Parse(`{"badge":"https://dkl8of78aprwd.cloudfront.net/other.png"}`)))
}

func TestCleanRestaurantName(t *testing.T) {
	assert.Equal(t, "Joe's Pizza", CleanRestaurantName("#3 Joe's Pizza"))
	assert.Equal(t, "Joe's Pizza", CleanRestaurantName("#12 - Joe's Pizza"))
	assert.Equal(t, "Pizza #1", CleanRestaurantName(" Pizza #1 "))
}

func TestExtractStoreInfo(t *testing.T) {
	store := gjson.Parse(`{"status":"success","data":{
		"title":"#2 Sushi Place",
		"location":{"address1":"12 Market St","address2":"Suite 4"},
		"storeInfoMetadata":{"workingHoursTagline":"Open until 10:00 PM"},
		"heroImageUrls":[{"url":"` + RestaurantLogoPrefix + `sushi.png"}],
		"eaterMembership":{"isUberOneEligible":true}
	}}`)

	info := ExtractStoreInfo(store)
	assert.Equal(t, "Sushi Place", info.Name)
	assert.Equal(t, "12 Market St, Suite 4", info.Address)
	assert.Equal(t, "Open until 10:00 PM", info.Hours)
	assert.Equal(t, RestaurantLogoPrefix+"sushi.png", info.Image)
	assert.True(t, info.UberOneEligible)
}

func TestExtractStoreInfoSectionHours(t *testing.T) {
	store := gjson.Parse(`{"data":{
		"name":"Taqueria",
		"address":"1 Main St",
		"hours":[{"dayRange":"Every Day","sectionHours":[{"startTime":660,"endTime":1320}]}]
	}}`)

	info := ExtractStoreInfo(store)
	assert.Equal(t, "Taqueria", info.Name)
	assert.Equal(t, "1 Main St", info.Address)
	assert.Equal(t, "Every Day 11:00-22:00", info.Hours)
	assert.False(t, info.UberOneEligible)
	assert.Empty(t, info.Image)
}
