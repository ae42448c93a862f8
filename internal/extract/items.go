// Package extract turns provider payloads into order, fare and customer data.
// Every function here is best-effort: a shape it does not recognise yields a
// zero value, never an error.
package extract

import (
	"grouporder-workers/internal/jsonscan"
	"grouporder-workers/models"

	"github.com/tidwall/gjson"
)

const unknownItemName = "Unknown Item"

var itemListProbes = []jsonscan.Probe[[]gjson.Result]{
	{Name: "cartItems.cartItems", Extract: arrayAt("cartItems.cartItems")},
	{Name: "orderItems", Extract: arrayAt("orderItems")},
	{Name: "orderItems.items", Extract: arrayAt("orderItems.items")},
}

var (
	itemNameKeys      = []string{"name", "itemName", "displayName", "productName"}
	itemPriceKeys     = []string{"originalPrice", "price", "totalPrice", "unitPrice", "amount"}
	customizationKeys = []string{"customizations", "modifiers", "selectedOptions", "options", "toppings", "ingredients", "addons", "addOns", "selections", "groups"}
	nestedOptionKeys  = []string{"options", "selectedOptions", "selected", "choices", "items"}
)

func arrayAt(path string) func(gjson.Result) ([]gjson.Result, bool) {
	return func(v gjson.Result) ([]gjson.Result, bool) {
		arr := v.Get(path)
		if !arr.IsArray() {
			return nil, false
		}
		return arr.Array(), true
	}
}

// ExtractOrderItems reads cart lines from a checkout payload (the
// checkoutPayloads object). It returns an empty, non-nil slice when no known
// item list is present.
func ExtractOrderItems(payloads gjson.Result) []models.OrderItem {
	items := []models.OrderItem{}
	raw, _, ok := jsonscan.First(payloads, itemListProbes)
	if !ok {
		return items
	}
	for _, it := range raw {
		if !it.IsObject() {
			continue
		}
		items = append(items, models.OrderItem{
			Name:           itemName(it),
			Quantity:       itemQuantity(it),
			Price:          itemPrice(it),
			Customizations: itemCustomizations(it),
		})
	}
	return items
}

func itemName(it gjson.Result) string {
	if name := jsonscan.Text(it.Get("title")); name != "" {
		return name
	}
	for _, k := range itemNameKeys {
		if name := jsonscan.Text(it.Get(k)); name != "" {
			return name
		}
	}
	return unknownItemName
}

func itemQuantity(it gjson.Result) float64 {
	q := it.Get("quantity")
	if !q.Exists() {
		return 1
	}
	return jsonscan.QuantityFromField(q)
}

func itemPrice(it gjson.Result) float64 {
	for _, k := range itemPriceKeys {
		if p := jsonscan.PriceFromRichField(it.Get(k)); p != 0 {
			return p
		}
	}
	return 0
}

func itemCustomizations(it gjson.Result) []string {
	out := []string{}
	seen := make(map[string]bool)
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, k := range customizationKeys {
		if v := it.Get(k); v.Exists() {
			collectOptions(v, 0, add)
		}
	}
	return out
}

// collectOptions flattens option trees: arrays, id-keyed maps of arrays, and
// option objects with nested option lists.
func collectOptions(v gjson.Result, depth int, add func(string)) {
	if depth > jsonscan.MaxDepth {
		return
	}
	switch {
	case v.Type == gjson.String:
		add(jsonscan.Text(v))
	case v.IsArray():
		for _, el := range v.Array() {
			collectOptions(el, depth+1, add)
		}
	case v.IsObject():
		// a group with nested selections contributes only the selections
		nested := false
		for _, k := range nestedOptionKeys {
			if child := v.Get(k); child.IsArray() {
				nested = true
				collectOptions(child, depth+1, add)
			}
		}
		if nested {
			return
		}
		if label := optionLabel(v); label != "" {
			add(label)
			return
		}
		// id-keyed map, e.g. {"<uuid>+0": [{...}]}
		v.ForEach(func(_, child gjson.Result) bool {
			if child.IsArray() || child.IsObject() {
				collectOptions(child, depth+1, add)
			}
			return true
		})
	}
}

func optionLabel(v gjson.Result) string {
	for _, k := range []string{"title", "name", "label", "displayName"} {
		if s := jsonscan.Text(v.Get(k)); s != "" {
			return s
		}
	}
	return ""
}
