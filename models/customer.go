package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/tidwall/gjson"
)

// Customer detail keys.
const (
	CustomerName        = "customer_name"
	CustomerFirstName   = "customer_first_name"
	CustomerLastName    = "customer_last_name"
	CustomerEmail       = "customer_email"
	CustomerPhone       = "customer_phone"
	CustomerUUID        = "customer_uuid"
	CustomerProfileURL  = "customer_profile_image"
	CustomerLatitude    = "customer_latitude"
	CustomerLongitude   = "customer_longitude"
	CustomerDeliveryPIN = "customer_delivery_pin"

	CustomerFavoriteRestaurants = "customer_favorite_restaurants"
	CustomerDietaryPreferences  = "customer_dietary_preferences"
	CustomerPaymentMethods      = "customer_payment_methods"
	CustomerDeliveryAddresses   = "customer_delivery_addresses"
)

// ListKeys are the customer fields that accumulate instead of keeping the first value.
var ListKeys = []string{
	CustomerFavoriteRestaurants,
	CustomerDietaryPreferences,
	CustomerPaymentMethods,
	CustomerDeliveryAddresses,
}

// IsListKey reports whether key accumulates values.
func IsListKey(key string) bool {
	for _, k := range ListKeys {
		if k == key {
			return true
		}
	}
	return false
}

// CustomerDetails is a sparse, insertion-ordered bag of customer fields.
// Scalars follow first-writer-wins; list fields are deduplicated by deep equality.
// Keys whose value was never found are absent.
type CustomerDetails struct {
	keys   []string
	values map[string]any
}

func NewCustomerDetails() *CustomerDetails {
	return &CustomerDetails{values: make(map[string]any)}
}

// Set stores v under key unless the key is already present. Nil values and
// blank strings are ignored. It reports whether v was stored.
func (d *CustomerDetails) Set(key string, v any) bool {
	if v == nil || IsListKey(key) {
		return false
	}
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return false
		}
		v = s
	}
	if _, exists := d.values[key]; exists {
		return false
	}
	d.keys = append(d.keys, key)
	d.values[key] = v
	return true
}

// Append adds items to the list stored under key, skipping duplicates.
func (d *CustomerDetails) Append(key string, items ...any) {
	for _, item := range items {
		if item == nil {
			continue
		}
		current, exists := d.values[key]
		if !exists {
			d.keys = append(d.keys, key)
			d.values[key] = []any{item}
			continue
		}
		list, _ := current.([]any)
		if containsDeep(list, item) {
			continue
		}
		d.values[key] = append(list, item)
	}
}

// Merge folds other into d: scalars only fill missing keys, lists are unioned.
func (d *CustomerDetails) Merge(other *CustomerDetails) {
	if other == nil {
		return
	}
	for _, key := range other.keys {
		v := other.values[key]
		if IsListKey(key) {
			list, _ := v.([]any)
			d.Append(key, list...)
			continue
		}
		d.Set(key, v)
	}
}

func (d *CustomerDetails) Get(key string) (any, bool) {
	if d == nil {
		return nil, false
	}
	v, ok := d.values[key]
	return v, ok
}

// String returns the scalar under key as a string, or "".
func (d *CustomerDetails) String(key string) string {
	v, _ := d.Get(key)
	s, _ := v.(string)
	return s
}

func (d *CustomerDetails) Keys() []string {
	if d == nil {
		return nil
	}
	return append([]string(nil), d.keys...)
}

func (d *CustomerDetails) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

func (d *CustomerDetails) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if d != nil {
		for i, key := range d.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(key)
			if err != nil {
				return nil, err
			}
			v, err := json.Marshal(d.values[key])
			if err != nil {
				return nil, err
			}
			buf.Write(k)
			buf.WriteByte(':')
			buf.Write(v)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON restores details written by MarshalJSON, keeping key order.
func (d *CustomerDetails) UnmarshalJSON(b []byte) error {
	if !gjson.ValidBytes(b) {
		return fmt.Errorf("invalid customer details json")
	}
	root := gjson.ParseBytes(b)
	if root.Type == gjson.Null {
		return nil
	}
	if !root.IsObject() {
		return fmt.Errorf("customer details must be an object, got %s", root.Type)
	}
	*d = *NewCustomerDetails()
	root.ForEach(func(key, value gjson.Result) bool {
		if IsListKey(key.String()) {
			for _, el := range value.Array() {
				d.Append(key.String(), el.Value())
			}
			return true
		}
		d.Set(key.String(), value.Value())
		return true
	})
	return nil
}

func containsDeep(list []any, item any) bool {
	for _, existing := range list {
		if reflect.DeepEqual(existing, item) {
			return true
		}
	}
	return false
}
