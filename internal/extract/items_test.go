package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestExtractOrderItemsCartShape(t *testing.T) {
	payloads := gjson.Parse(`{"cartItems":{"cartItems":[
		{
			"title":{"richTextElements":[{"text":{"text":{"text":"Spicy Ramen"}}}]},
			"quantity":{"value":{"coefficient":200,"exponent":-2}},
			"originalPrice":{"low":1450000,"high":0},
			"price":{"text":"$99.00"},
			"customizations":{
				"a1b2+0":[{"title":"Broth","options":[{"title":"Tonkotsu"},{"title":"Extra Egg"}]}],
				"c3d4+0":[{"title":"Extra Noodles"}]
			}
		},
		{
			"title":"Gyoza",
			"quantity":1,
			"price":0,
			"totalPrice":{"text":"$6.50"},
			"modifiers":["Ponzu","Ponzu"]
		},
		"not an item"
	]}}`)

	items := ExtractOrderItems(payloads)
	require.Len(t, items, 2)

	assert.Equal(t, "Spicy Ramen", items[0].Name)
	assert.Equal(t, 2.0, items[0].Quantity)
	assert.Equal(t, 14.5, items[0].Price, "originalPrice wins")
	assert.Equal(t, []string{"Tonkotsu", "Extra Egg", "Extra Noodles"}, items[0].Customizations)

	assert.Equal(t, "Gyoza", items[1].Name)
	assert.Equal(t, 6.5, items[1].Price, "zero price falls through to totalPrice")
	assert.Equal(t, []string{"Ponzu"}, items[1].Customizations)
}

func TestExtractOrderItemsAlternateShapes(t *testing.T) {
	flat := ExtractOrderItems(gjson.Parse(`{"orderItems":[{"itemName":"Soda","unitPrice":1.25}]}`))
	require.Len(t, flat, 1)
	assert.Equal(t, "Soda", flat[0].Name)
	assert.Equal(t, 1.0, flat[0].Quantity)
	assert.Equal(t, 1.25, flat[0].Price)
	assert.Empty(t, flat[0].Customizations)

	nested := ExtractOrderItems(gjson.Parse(`{"orderItems":{"items":[{"quantity":{"quantity":3}}]}}`))
	require.Len(t, nested, 1)
	assert.Equal(t, unknownItemName, nested[0].Name)
	assert.Equal(t, 3.0, nested[0].Quantity)
	assert.Equal(t, 0.0, nested[0].Price)

	none := ExtractOrderItems(gjson.Parse(`{"somethingElse":[]}`))
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
