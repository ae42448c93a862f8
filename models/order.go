package models

// ExtractedOrder is the unified result of a group order lookup.
// A failed lookup keeps every numeric field at zero and sets Error.
type ExtractedOrder struct {
	Success bool `json:"success"`

	Subtotal       float64 `json:"subtotal"`
	Taxes          float64 `json:"taxes"`
	Fees           float64 `json:"fees"`
	DeliveryFee    float64 `json:"delivery_fee"`
	ServiceFee     float64 `json:"service_fee"`
	Tip            float64 `json:"tip"`
	SmallOrderFee  float64 `json:"small_order_fee"`
	AdjustmentsFee float64 `json:"adjustments_fee"`
	PickupFee      float64 `json:"pickup_fee"`
	OtherFees      float64 `json:"other_fees"`
	Total          float64 `json:"total"`
	Currency       string  `json:"currency"`

	HasUberOne        bool    `json:"has_uber_one"`
	UberOneBenefit    float64 `json:"uber_one_benefit"`
	IsUberOneEligible bool    `json:"is_uber_one_eligible"`

	Items []OrderItem `json:"items"`

	RestaurantName    *string `json:"restaurant_name"`
	RestaurantAddress *string `json:"restaurant_address"`
	RestaurantHours   *string `json:"restaurant_hours"`
	RestaurantImage   *string `json:"restaurant_image"`

	DeliveryAddress      *string      `json:"delivery_address"`
	DeliveryCoordinates  *Coordinates `json:"delivery_coordinates"`
	DeliveryInstructions *string      `json:"delivery_instructions"`

	CustomerDetails *CustomerDetails `json:"customer_details"`

	DraftOrderUUID string  `json:"draft_order_uuid,omitempty"`
	Error          *string `json:"error"`
}

// OrderItem is one cart line.
type OrderItem struct {
	Name           string   `json:"name"`
	Quantity       float64  `json:"quantity"`
	Price          float64  `json:"price"`
	Customizations []string `json:"customizations"`
}

// Coordinates is a WGS84 point.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// FailedOrder returns a zeroed result carrying msg.
func FailedOrder(msg string) *ExtractedOrder {
	return &ExtractedOrder{
		Success:         false,
		Items:           []OrderItem{},
		Currency:        "USD",
		CustomerDetails: NewCustomerDetails(),
		Error:           &msg,
	}
}
