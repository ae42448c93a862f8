package extract

import (
	"testing"

	"grouporder-workers/models"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

const checkoutFixture = `{"status":"success","data":{
	"eaterUuid":"4f8f1c1e-2d55-4f5a-9d63-6a2b8f1f0d11",
	"checkoutPayloads":{
		"eaterInfo":{"firstName":"Ada","lastName":"Lovelace","email":"ada@example.com","phoneNumber":"+1 (212) 555-0147"},
		"deliveryDetails":{
			"recipientName":"Ada L.",
			"location":{"latitude":40.7484,"longitude":-73.9857},
			"address":{"address1":"350 5th Ave","address2":"Apt 4B"},
			"instructions":"Leave with the doorman"
		},
		"paymentProfiles":{"profiles":[{"uuid":"p1","cardType":"Visa","cardNumber":"•••• 4242","secret":"x"}]},
		"orderNumber":"1234",
		"favorites":[{"name":"Joe's Pizza"}]
	}
}}`

func TestExtractCustomerDetails(t *testing.T) {
	d := ExtractCustomerDetails(gjson.Parse(checkoutFixture))

	assert.Equal(t, "4f8f1c1e-2d55-4f5a-9d63-6a2b8f1f0d11", d.String(models.CustomerUUID))
	assert.Equal(t, "Ada", d.String(models.CustomerFirstName))
	assert.Equal(t, "Lovelace", d.String(models.CustomerLastName))
	assert.Equal(t, "ada@example.com", d.String(models.CustomerEmail))
	assert.Equal(t, "+1 (212) 555-0147", d.String(models.CustomerPhone))
	assert.Equal(t, "Ada L.", d.String(models.CustomerName))
	_, hasList := d.Get(models.CustomerFavoriteRestaurants)
	assert.False(t, hasList)
}

func TestExtractRealCustomerData(t *testing.T) {
	d := ExtractRealCustomerData(gjson.Parse(checkoutFixture))

	assert.Equal(t, "Ada Lovelace", d.String(models.CustomerName))
	assert.Equal(t, "ada@example.com", d.String(models.CustomerEmail))

	favs, ok := d.Get(models.CustomerFavoriteRestaurants)
	assert.True(t, ok)
	assert.Equal(t, []any{map[string]any{"name": "Joe's Pizza"}}, favs)

	payments, ok := d.Get(models.CustomerPaymentMethods)
	assert.True(t, ok)
	assert.Len(t, payments, 1)
}

func TestExtractCustomerFromCheckoutData(t *testing.T) {
	d := ExtractCustomerFromCheckoutData(gjson.Parse(checkoutFixture))

	assert.Equal(t, "Ada Lovelace", d.String(models.CustomerName), "eaterInfo probe runs first")
	assert.Equal(t, "+1 (212) 555-0147", d.String(models.CustomerPhone))
	lat, _ := d.Get(models.CustomerLatitude)
	assert.Equal(t, 40.7484, lat)

	addrs, _ := d.Get(models.CustomerDeliveryAddresses)
	assert.Equal(t, []any{"350 5th Ave, Apt 4B"}, addrs)

	payments, _ := d.Get(models.CustomerPaymentMethods)
	assert.Equal(t, []any{map[string]any{"uuid": "p1", "cardType": "Visa", "cardNumber": "•••• 4242"}}, payments)
}

func TestExtractCustomerFromJoinData(t *testing.T) {
	join := gjson.Parse(`{"status":"success","data":{"draftOrder":{
		"eaterUuid":"0b7c2a8e-5d8e-4c2e-9b0f-1e2d3c4b5a69",
		"creatorName":"Grace",
		"deliveryAddress":{"latitude":"34.05","longitude":"-118.25","formattedAddress":"1 Main St, Los Angeles, CA"}
	}}}`)

	d := ExtractCustomerFromJoinData(join)
	assert.Equal(t, "0b7c2a8e-5d8e-4c2e-9b0f-1e2d3c4b5a69", d.String(models.CustomerUUID))
	assert.Equal(t, "Grace", d.String(models.CustomerName))
	lng, _ := d.Get(models.CustomerLongitude)
	assert.Equal(t, -118.25, lng)
	addrs, _ := d.Get(models.CustomerDeliveryAddresses)
	assert.Equal(t, []any{"1 Main St, Los Angeles, CA"}, addrs)

	assert.Zero(t, ExtractCustomerFromJoinData(gjson.Parse(`{"status":"success"}`)).Len())
}

func TestMergedPassesDedupeAndKeepFirstWriter(t *testing.T) {
	first := models.NewCustomerDetails()
	first.Set(models.CustomerPhone, "111")
	first.Append(models.CustomerFavoriteRestaurants, map[string]any{"name": "Joe's Pizza"})

	later := ExtractRealCustomerData(gjson.Parse(`{"user":{"firstName":"Z","phone":"222-555-0000"},"favoriteStores":[{"name":"Joe's Pizza"}]}`))
	first.Merge(later)

	assert.Equal(t, "111", first.String(models.CustomerPhone))
	favs, _ := first.Get(models.CustomerFavoriteRestaurants)
	assert.Len(t, favs, 1)
}

func TestLooksLikePhone(t *testing.T) {
	assert.True(t, LooksLikePhone("+1 (212) 555-0147"))
	assert.True(t, LooksLikePhone("2125550147"))
	assert.False(t, LooksLikePhone("1234"))
	assert.False(t, LooksLikePhone("4242 4242 4242 4242"))
	assert.False(t, LooksLikePhone("call me"))
}
