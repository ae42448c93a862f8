package ubereats

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"runtime/debug"
	"strings"

	"grouporder-workers/internal/extract"
	"grouporder-workers/internal/geocode"
	"grouporder-workers/internal/jsonscan"
	"grouporder-workers/models"

	"github.com/tidwall/gjson"
)

// Credentials is the session credential the service authenticates with.
type Credentials interface {
	Token() string
	Update(token string)
	EnsureValid(ctx context.Context) string
}

// Service runs the group order lookup pipeline.
type Service struct {
	client   Client
	creds    Credentials
	geocoder geocode.Reverser
}

// NewService wires the pipeline. geocoder may be nil to skip address enrichment.
func NewService(client Client, creds Credentials, geocoder geocode.Reverser) *Service {
	return &Service{client: client, creds: creds, geocoder: geocoder}
}

// lookup carries the intermediate state of one GetOrderDetails call.
type lookup struct {
	link      string
	draftUUID string
	sid       string
	join      gjson.Result
	checkout  gjson.Result
	order     *models.ExtractedOrder
	fares     extract.Breakdown
}

// GetOrderDetails joins the group order behind link and returns everything
// that could be extracted from it. It never returns nil and never panics:
// structural failures come back as an order with Success false and Error set.
// A non-empty sid replaces the stored credential before the lookup.
func (s *Service) GetOrderDetails(ctx context.Context, link, sid string) (order *models.ExtractedOrder) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("✗ Panic during order lookup: %v\n%s", r, debug.Stack())
			order = models.FailedOrder(fmt.Sprint(r))
		}
	}()

	draftUUID, err := ParseDraftOrderUUID(link)
	if err != nil {
		log.Printf("✗ Rejected link %q: %v", link, err)
		return models.FailedOrder(err.Error())
	}
	l := &lookup{link: link, draftUUID: draftUUID}

	l.sid = s.ensureCredential(ctx, sid)

	log.Printf("🔗 Joining group order %s", draftUUID)
	l.join, err = s.client.JoinDraftOrder(ctx, l.sid, draftUUID)
	if err != nil {
		return failure("join", err)
	}

	l.checkout, err = s.client.GetCheckout(ctx, l.sid, draftUUID)
	if err != nil {
		return failure("checkout", err)
	}

	s.reconcile(l)
	s.fetchStoreInfo(ctx, l)
	s.resolveDelivery(ctx, l)

	return s.finish(l)
}

func (s *Service) ensureCredential(ctx context.Context, sid string) string {
	if s.creds == nil {
		return sid
	}
	if sid != "" && sid != s.creds.Token() {
		s.creds.Update(sid)
	}
	return s.creds.EnsureValid(ctx)
}

// failure maps a join or checkout error to the caller-facing message.
// Transport errors drop the request URL.
func failure(stage string, err error) *models.ExtractedOrder {
	var statusErr *StatusError
	var providerErr *ProviderError
	var urlErr *url.Error
	msg := fmt.Sprintf("%s failed: %v", stage, err)
	switch {
	case errors.As(err, &statusErr):
		msg = statusErr.Error()
	case errors.As(err, &providerErr):
		msg = providerErr.Error()
	case errors.Is(err, context.DeadlineExceeded):
		msg = stage + " failed: timeout"
	case errors.Is(err, context.Canceled):
		msg = stage + " failed: canceled"
	case errors.As(err, &urlErr):
		msg = fmt.Sprintf("%s failed: %v", stage, urlErr.Err)
	}
	log.Printf("✗ Order lookup failed: %s (%v)", msg, err)
	return models.FailedOrder(msg)
}

func (s *Service) reconcile(l *lookup) {
	payloads := l.checkout.Get("data.checkoutPayloads")
	l.fares = extract.ReconcileFares(payloads)
	b := l.fares

	o := &models.ExtractedOrder{
		Success:        true,
		Subtotal:       b.Subtotal,
		Taxes:          b.Taxes,
		Fees:           b.Fees,
		DeliveryFee:    b.DeliveryFee,
		ServiceFee:     b.ServiceFee,
		Tip:            b.Tip,
		SmallOrderFee:  b.SmallOrderFee,
		AdjustmentsFee: b.AdjustmentsFee,
		PickupFee:      b.PickupFee,
		OtherFees:      b.OtherFees,
		Currency:       b.Currency,
		HasUberOne:     b.HasUberOne,
		UberOneBenefit: b.UberOneBenefit,
		Items:          extract.ExtractOrderItems(payloads),
		DraftOrderUUID: l.draftUUID,
	}

	details := extract.ExtractCustomerDetails(l.checkout)
	details.Merge(extract.ExtractRealCustomerData(l.checkout))
	details.Merge(extract.ExtractRealCustomerData(l.join))
	details.Merge(extract.ExtractCustomerFromCheckoutData(l.checkout))
	details.Merge(extract.ExtractCustomerFromJoinData(l.join))
	o.CustomerDetails = details

	sources := []gjson.Result{l.checkout, l.join}
	for _, src := range sources {
		if o.DeliveryInstructions == nil {
			o.DeliveryInstructions = optional(extract.ExtractDeliveryInstructions(src))
		}
		if o.DeliveryCoordinates == nil {
			if c, ok := extract.FindDeliveryCoords(src); ok {
				o.DeliveryCoordinates = &c
			}
		}
		if o.DeliveryAddress == nil {
			o.DeliveryAddress = optional(extract.FindDeliveryAddress(src))
		}
		if extract.FindUberOneLogo(src) {
			o.HasUberOne = true
		}
	}
	if o.DeliveryCoordinates == nil {
		lat, okLat := details.Get(models.CustomerLatitude)
		lng, okLng := details.Get(models.CustomerLongitude)
		if la, ok := lat.(float64); okLat && okLng && ok {
			if lo, ok := lng.(float64); ok {
				o.DeliveryCoordinates = &models.Coordinates{Latitude: la, Longitude: lo}
			}
		}
	}
	l.order = o
}

// fetchStoreInfo fills the restaurant descriptor. Failures are logged and skipped.
func (s *Service) fetchStoreInfo(ctx context.Context, l *lookup) {
	o := l.order
	storeUUID := extract.FindStoreUUID(l.checkout)
	if storeUUID == "" {
		storeUUID = extract.FindStoreUUID(l.join)
	}
	if storeUUID == "" {
		log.Printf("✗ No store identifier in order %s", l.draftUUID)
		return
	}

	store, err := s.client.GetStore(ctx, l.sid, storeUUID)
	if err != nil {
		log.Printf("✗ Failed to fetch store %s: %v", storeUUID, err)
		return
	}
	info := extract.ExtractStoreInfo(store)
	o.RestaurantName = optional(info.Name)
	o.RestaurantAddress = optional(info.Address)
	o.RestaurantHours = optional(info.Hours)
	o.RestaurantImage = optional(info.Image)
	if o.RestaurantImage == nil {
		o.RestaurantImage = optional(extract.FindRestaurantLogo(l.checkout))
	}
	if info.UberOneEligible {
		o.IsUberOneEligible = true
		o.HasUberOne = true
	}
}

// resolveDelivery scrapes the order page when the API left coordinates or
// address blank, then enriches the address from the coordinates.
func (s *Service) resolveDelivery(ctx context.Context, l *lookup) {
	o := l.order
	if o.DeliveryCoordinates == nil || o.DeliveryAddress == nil {
		body, err := s.client.FetchPage(ctx, l.sid, l.link)
		if err != nil {
			log.Printf("✗ HTML fallback failed for %s: %v", l.draftUUID, err)
		} else {
			page := extract.ScrapeHTML(body)
			if o.DeliveryCoordinates == nil {
				o.DeliveryCoordinates = page.Coordinates
			}
			if o.DeliveryAddress == nil {
				o.DeliveryAddress = page.Address
			}
			if o.DeliveryInstructions == nil {
				o.DeliveryInstructions = page.Instructions
			}
			if page.Phone != nil {
				o.CustomerDetails.Set(models.CustomerPhone, *page.Phone)
			}
		}
	}

	if o.DeliveryCoordinates == nil || s.geocoder == nil {
		return
	}
	c := o.DeliveryCoordinates
	place, err := s.geocoder.Reverse(ctx, c.Latitude, c.Longitude)
	if err != nil {
		log.Printf("✗ Reverse geocode %.5f,%.5f failed: %v", c.Latitude, c.Longitude, err)
		return
	}
	known := ""
	if o.DeliveryAddress != nil {
		known = *o.DeliveryAddress
	}
	o.DeliveryAddress = optional(geocode.ComposeAddress(known, place))
}

func (s *Service) finish(l *lookup) *models.ExtractedOrder {
	o := l.order
	if len(o.Items) == 0 && o.Subtotal <= 0 {
		log.Printf("✗ Group order %s has no items", l.draftUUID)
		return models.FailedOrder(ErrEmptyOrder.Error())
	}
	if l.fares.TotalProvided {
		o.Total = l.fares.Total
	} else {
		o.Total = jsonscan.Round2(o.Subtotal + o.Fees + o.Taxes)
	}
	log.Printf("✓ Extracted order %s: %d items, subtotal %.2f, total %.2f %s, customer fields [%s]",
		l.draftUUID, len(o.Items), o.Subtotal, o.Total, o.Currency, strings.Join(o.CustomerDetails.Keys(), ", "))
	return o
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
