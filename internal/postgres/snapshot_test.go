package postgres

import (
	"testing"

	"grouporder-workers/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestSnapshotKeepsOrderData(t *testing.T) {
	details := models.NewCustomerDetails()
	details.Set(models.CustomerPhone, "+1 555 0100")
	details.Append(models.CustomerPaymentMethods, map[string]any{"type": "card"})

	order := &models.ExtractedOrder{
		Success:             true,
		Subtotal:            18,
		Taxes:               1.44,
		DeliveryFee:         3.99,
		Fees:                3.99,
		Total:               23.43,
		Currency:            "USD",
		Items:               []models.OrderItem{{Name: "Burrito", Quantity: 2, Price: 9, Customizations: []string{"Extra salsa"}}},
		RestaurantName:      strPtr("Taqueria"),
		DeliveryCoordinates: &models.Coordinates{Latitude: 34.05, Longitude: -118.24},
		CustomerDetails:     details,
		DraftOrderUUID:      "3f2a9c1e-7b4d-4e8f-9a6b-1c2d3e4f5a6b",
	}

	snap, err := NewOrderSnapshot("req-1", "https://www.ubereats.com/group-orders/x", order)
	require.NoError(t, err)
	assert.Equal(t, "req-1", snap.RequestID)
	assert.Equal(t, order.DraftOrderUUID, snap.DraftOrderUUID)
	require.NotNil(t, snap.DeliveryLatitude)
	assert.Equal(t, 34.05, *snap.DeliveryLatitude)
	assert.JSONEq(t, `[{"name":"Burrito","quantity":2,"price":9,"customizations":["Extra salsa"]}]`, string(snap.Items))

	restored, err := snap.Order()
	require.NoError(t, err)
	assert.Equal(t, order.Items, restored.Items)
	assert.Equal(t, order.DeliveryCoordinates, restored.DeliveryCoordinates)
	assert.Equal(t, []string{models.CustomerPhone, models.CustomerPaymentMethods}, restored.CustomerDetails.Keys())
	assert.Equal(t, 23.43, restored.Total)
}

func TestSnapshotOfFailedLookup(t *testing.T) {
	snap, err := NewOrderSnapshot("req-2", "bad", models.FailedOrder("join failed: 503"))
	require.NoError(t, err)

	assert.False(t, snap.Success)
	require.NotNil(t, snap.Error)
	assert.Equal(t, "join failed: 503", *snap.Error)
	assert.Equal(t, "[]", string(snap.Items))
	assert.Equal(t, "{}", string(snap.CustomerDetails))
	assert.Nil(t, snap.DeliveryLatitude)

	restored, err := snap.Order()
	require.NoError(t, err)
	assert.Empty(t, restored.Items)
	assert.Equal(t, 0, restored.CustomerDetails.Len())
}
