package extract

import (
	"testing"

	"grouporder-workers/models"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

func TestExtractDeliveryInstructions(t *testing.T) {
	tests := []struct {
		name string
		json string
		want string
	}{
		{
			name: "delivery object note beats location hint",
			json: `{"deliveryAddress":{"aptOrSuite":"4B","instructions":"  Ring twice  "}}`,
			want: "Ring twice",
		},
		{
			name: "cart item special instructions",
			json: `{"shoppingCart":{"items":[{"specialInstructions":""},{"specialInstructions":"No onions"}]}}`,
			want: "No onions",
		},
		{
			name: "generic note anywhere",
			json: `{"a":{"b":{"courierNote":"Gate code 1234"}}}`,
			want: "Gate code 1234",
		},
		{
			name: "location hint as last resort",
			json: `{"deliveryAddress":{"buildingName":"Empire State"}}`,
			want: "Empire State",
		},
		{
			name: "ignores ids and urls",
			json: `{"noteUuid":"x","noteUrl":"https://a.b","unitPrice":"3.00"}`,
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractDeliveryInstructions(gjson.Parse(tt.json)))
		})
	}
}

func TestFindDeliveryCoords(t *testing.T) {
	data := gjson.Parse(`{
		"storeLocation":{"latitude":40.1,"longitude":-74.1},
		"deliveryAddress":{"location":{"latitude":40.7484,"longitude":-73.9857}}
	}`)
	c, ok := FindDeliveryCoords(data)
	assert.True(t, ok)
	assert.Equal(t, models.Coordinates{Latitude: 40.7484, Longitude: -73.9857}, c)

	c, ok = FindDeliveryCoords(gjson.Parse(`{"geo":{"lat":"51.5","lng":"-0.12"}}`))
	assert.True(t, ok)
	assert.Equal(t, 51.5, c.Latitude)

	_, ok = FindDeliveryCoords(gjson.Parse(`{"store":{"lat":1,"lng":2},"x":{"lat":0,"lng":0},"y":{"lat":200,"lng":1}}`))
	assert.False(t, ok)
}

func TestFindDeliveryAddress(t *testing.T) {
	assert.Equal(t, "350 5th Ave, Apt 4B",
		FindDeliveryAddress(gjson.Parse(`{"deliveryFee":{"text":"$1"},"deliveryAddress":{"address":{"address1":"350 5th Ave","address2":"Apt 4B"}}}`)))
	assert.Equal(t, "1 Main St",
		FindDeliveryAddress(gjson.Parse(`{"data":{"deliveryAddress":"1 Main St"}}`)))
	assert.Equal(t, "Home, 2 Side St",
		FindDeliveryAddress(gjson.Parse(`{"dropoff":{"title":"Home","subtitle":"2 Side St"}}`)))
	assert.Equal(t, "", FindDeliveryAddress(gjson.Parse(`{"storeAddress":"9 Shop Rd"}`)))
	assert.Equal(t, "1 Elm St, Unit 2",
		FindDeliveryAddress(gjson.Parse(`{"deliveryEta":"12 min","deliveryDetails":{"address1":"1 Elm St","address2":"Unit 2"}}`)))
}
