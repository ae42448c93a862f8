package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"grouporder-workers/models"

	"gorm.io/datatypes"
)

// OrderSnapshot is one persisted lookup result.
type OrderSnapshot struct {
	ID             int64  `gorm:"primaryKey"`
	RequestID      string `gorm:"size:64;uniqueIndex;not null"`
	DraftOrderUUID string `gorm:"size:36;index"`
	Link           string `gorm:"type:text"`
	Success        bool
	Error          *string `gorm:"type:text"`

	Subtotal       float64
	Taxes          float64
	Fees           float64
	DeliveryFee    float64
	ServiceFee     float64
	Tip            float64
	SmallOrderFee  float64
	AdjustmentsFee float64
	PickupFee      float64
	OtherFees      float64
	Total          float64
	Currency       string `gorm:"size:3"`

	HasUberOne        bool
	UberOneBenefit    float64
	IsUberOneEligible bool

	RestaurantName    *string
	RestaurantAddress *string
	RestaurantHours   *string
	RestaurantImage   *string

	DeliveryAddress      *string
	DeliveryLatitude     *float64
	DeliveryLongitude    *float64
	DeliveryInstructions *string `gorm:"type:text"`

	Items           datatypes.JSON
	CustomerDetails datatypes.JSON

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (OrderSnapshot) TableName() string {
	return "order_snapshots"
}

// NewOrderSnapshot flattens a lookup result into a row.
func NewOrderSnapshot(requestID, link string, o *models.ExtractedOrder) (*OrderSnapshot, error) {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return nil, fmt.Errorf("failed to encode items: %w", err)
	}
	details, err := json.Marshal(o.CustomerDetails)
	if err != nil {
		return nil, fmt.Errorf("failed to encode customer details: %w", err)
	}

	snap := &OrderSnapshot{
		RequestID:            requestID,
		DraftOrderUUID:       o.DraftOrderUUID,
		Link:                 link,
		Success:              o.Success,
		Error:                o.Error,
		Subtotal:             o.Subtotal,
		Taxes:                o.Taxes,
		Fees:                 o.Fees,
		DeliveryFee:          o.DeliveryFee,
		ServiceFee:           o.ServiceFee,
		Tip:                  o.Tip,
		SmallOrderFee:        o.SmallOrderFee,
		AdjustmentsFee:       o.AdjustmentsFee,
		PickupFee:            o.PickupFee,
		OtherFees:            o.OtherFees,
		Total:                o.Total,
		Currency:             o.Currency,
		HasUberOne:           o.HasUberOne,
		UberOneBenefit:       o.UberOneBenefit,
		IsUberOneEligible:    o.IsUberOneEligible,
		RestaurantName:       o.RestaurantName,
		RestaurantAddress:    o.RestaurantAddress,
		RestaurantHours:      o.RestaurantHours,
		RestaurantImage:      o.RestaurantImage,
		DeliveryAddress:      o.DeliveryAddress,
		DeliveryInstructions: o.DeliveryInstructions,
		Items:                datatypes.JSON(items),
		CustomerDetails:      datatypes.JSON(details),
	}
	if c := o.DeliveryCoordinates; c != nil {
		lat, lng := c.Latitude, c.Longitude
		snap.DeliveryLatitude, snap.DeliveryLongitude = &lat, &lng
	}
	return snap, nil
}

// Order rebuilds the lookup result stored in the row.
func (s *OrderSnapshot) Order() (*models.ExtractedOrder, error) {
	o := &models.ExtractedOrder{
		Success:              s.Success,
		Subtotal:             s.Subtotal,
		Taxes:                s.Taxes,
		Fees:                 s.Fees,
		DeliveryFee:          s.DeliveryFee,
		ServiceFee:           s.ServiceFee,
		Tip:                  s.Tip,
		SmallOrderFee:        s.SmallOrderFee,
		AdjustmentsFee:       s.AdjustmentsFee,
		PickupFee:            s.PickupFee,
		OtherFees:            s.OtherFees,
		Total:                s.Total,
		Currency:             s.Currency,
		HasUberOne:           s.HasUberOne,
		UberOneBenefit:       s.UberOneBenefit,
		IsUberOneEligible:    s.IsUberOneEligible,
		Items:                []models.OrderItem{},
		RestaurantName:       s.RestaurantName,
		RestaurantAddress:    s.RestaurantAddress,
		RestaurantHours:      s.RestaurantHours,
		RestaurantImage:      s.RestaurantImage,
		DeliveryAddress:      s.DeliveryAddress,
		DeliveryInstructions: s.DeliveryInstructions,
		CustomerDetails:      models.NewCustomerDetails(),
		DraftOrderUUID:       s.DraftOrderUUID,
		Error:                s.Error,
	}
	if s.DeliveryLatitude != nil && s.DeliveryLongitude != nil {
		o.DeliveryCoordinates = &models.Coordinates{Latitude: *s.DeliveryLatitude, Longitude: *s.DeliveryLongitude}
	}
	if len(s.Items) > 0 {
		if err := json.Unmarshal(s.Items, &o.Items); err != nil {
			return nil, fmt.Errorf("failed to decode items of snapshot %d: %w", s.ID, err)
		}
	}
	if len(s.CustomerDetails) > 0 {
		if err := json.Unmarshal(s.CustomerDetails, o.CustomerDetails); err != nil {
			return nil, fmt.Errorf("failed to decode customer details of snapshot %d: %w", s.ID, err)
		}
	}
	return o, nil
}
