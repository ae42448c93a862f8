package extract

import (
	"regexp"
	"strings"

	"grouporder-workers/internal/jsonscan"
	"grouporder-workers/models"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

var (
	phoneKeywords = []string{"phone", "mobile", "number", "tel", "contact", "call", "dial", "cell", "sms", "whatsapp"}
	phoneShape    = regexp.MustCompile(`^\+?[\d\s().\-]{7,24}$`)
	nonDigits     = regexp.MustCompile(`\D`)
	pinShape      = regexp.MustCompile(`^\d{4,6}$`)

	customerNameKeys = []string{"eaterName", "customerName", "userName", "fullName", "recipientName", "contactName", "creatorName"}
	firstNameKeys    = []string{"firstName", "first_name", "givenName"}
	lastNameKeys     = []string{"lastName", "last_name", "familyName"}
	customerUUIDKeys = []string{"eaterUuid", "eaterUUID", "customerUuid", "userUuid", "creatorUuid"}
)

// LooksLikePhone reports whether s is a plausible phone number.
func LooksLikePhone(s string) bool {
	if !phoneShape.MatchString(s) {
		return false
	}
	n := len(nonDigits.ReplaceAllString(s, ""))
	return n >= 7 && n <= 15
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// ExtractCustomerDetails sweeps a whole response for customer scalars by key name.
func ExtractCustomerDetails(data gjson.Result) *models.CustomerDetails {
	d := models.NewCustomerDetails()
	jsonscan.Walk(data, func(key string, v gjson.Result, _ int) bool {
		s, ok := jsonscan.NonBlank(v)
		if !ok || key == "" {
			if v.Type == gjson.Number && jsonscan.KeyHas(key, "phone", "mobile") {
				if p := v.Raw; LooksLikePhone(p) {
					d.Set(models.CustomerPhone, p)
				}
			}
			return true
		}
		switch {
		case jsonscan.KeyHas(key, "email") && strings.Contains(s, "@"):
			d.Set(models.CustomerEmail, s)
		case jsonscan.KeyHas(key, phoneKeywords...) && LooksLikePhone(s):
			d.Set(models.CustomerPhone, s)
		case jsonscan.KeyIs(key, firstNameKeys...):
			d.Set(models.CustomerFirstName, s)
		case jsonscan.KeyIs(key, lastNameKeys...):
			d.Set(models.CustomerLastName, s)
		case jsonscan.KeyIs(key, customerNameKeys...):
			d.Set(models.CustomerName, s)
		case jsonscan.KeyIs(key, customerUUIDKeys...) && isUUID(s):
			d.Set(models.CustomerUUID, s)
		case jsonscan.KeyHas(key, "profileimage", "profilepicture", "avatar") && strings.HasPrefix(s, "http"):
			d.Set(models.CustomerProfileURL, s)
		case jsonscan.KeyHas(key, "deliverypin", "pincode") && pinShape.MatchString(s):
			d.Set(models.CustomerDeliveryPIN, s)
		}
		return true
	})
	return d
}

// ExtractRealCustomerData looks for person-shaped objects and preference lists anywhere in data.
func ExtractRealCustomerData(data gjson.Result) *models.CustomerDetails {
	d := models.NewCustomerDetails()
	jsonscan.WalkObjects(data, func(_ string, obj gjson.Result, _ int) bool {
		if isPersonLike(obj) {
			fillPerson(d, obj)
		}
		return true
	})
	jsonscan.Walk(data, func(key string, v gjson.Result, _ int) bool {
		if key == "" || !(v.IsArray() || v.IsObject()) {
			return true
		}
		lower := strings.ToLower(key)
		switch {
		case strings.Contains(lower, "favorite") || strings.Contains(lower, "favourite"):
			d.Append(models.CustomerFavoriteRestaurants, listValues(v)...)
		case strings.Contains(lower, "dietary") || lower == "preferences" || lower == "dietarypreferences":
			d.Append(models.CustomerDietaryPreferences, listValues(v)...)
		case strings.Contains(lower, "paymentprofile") || strings.Contains(lower, "paymentmethod"):
			d.Append(models.CustomerPaymentMethods, listValues(v)...)
		case strings.Contains(lower, "savedaddress") || strings.Contains(lower, "deliveryaddresses") || lower == "addresses":
			d.Append(models.CustomerDeliveryAddresses, listValues(v)...)
		}
		return true
	})
	return d
}

func isPersonLike(obj gjson.Result) bool {
	for _, k := range append(append([]string{"email"}, firstNameKeys...), lastNameKeys...) {
		if _, ok := jsonscan.NonBlank(obj.Get(k)); ok {
			return true
		}
	}
	return false
}

func fillPerson(d *models.CustomerDetails, obj gjson.Result) {
	first := firstString(obj, firstNameKeys...)
	last := firstString(obj, lastNameKeys...)
	d.Set(models.CustomerFirstName, first)
	d.Set(models.CustomerLastName, last)
	if name := firstString(obj, "name", "displayName", "fullName"); name != "" {
		d.Set(models.CustomerName, name)
	} else if full := strings.TrimSpace(first + " " + last); full != "" {
		d.Set(models.CustomerName, full)
	}
	if email := firstString(obj, "email", "emailAddress"); strings.Contains(email, "@") {
		d.Set(models.CustomerEmail, email)
	}
	if phone := firstString(obj, "phone", "phoneNumber", "mobile", "mobileNumber"); LooksLikePhone(phone) {
		d.Set(models.CustomerPhone, phone)
	}
	if id := firstString(obj, "uuid", "eaterUuid"); isUUID(id) {
		d.Set(models.CustomerUUID, id)
	}
}

// listValues returns array elements (or a single object) as plain Go values.
func listValues(v gjson.Result) []any {
	if v.IsObject() {
		return []any{v.Value()}
	}
	var out []any
	for _, el := range v.Array() {
		if el.Type == gjson.Null {
			continue
		}
		out = append(out, el.Value())
	}
	return out
}

var checkoutCustomerProbes = []jsonscan.Probe[*models.CustomerDetails]{
	{Name: "eaterInfo", Match: has("data.checkoutPayloads.eaterInfo"), Extract: func(v gjson.Result) (*models.CustomerDetails, bool) {
		return personAt(v.Get("data.checkoutPayloads.eaterInfo"))
	}},
	{Name: "deliveryDetails.contact", Match: has("data.checkoutPayloads.deliveryDetails.contact"), Extract: func(v gjson.Result) (*models.CustomerDetails, bool) {
		return personAt(v.Get("data.checkoutPayloads.deliveryDetails.contact"))
	}},
	{Name: "customer", Match: has("data.customer"), Extract: func(v gjson.Result) (*models.CustomerDetails, bool) {
		return personAt(v.Get("data.customer"))
	}},
}

// ExtractCustomerFromCheckoutData reads the customer substructures of a checkout response.
func ExtractCustomerFromCheckoutData(checkout gjson.Result) *models.CustomerDetails {
	d := models.NewCustomerDetails()
	if person, _, ok := jsonscan.First(checkout, checkoutCustomerProbes); ok {
		d.Merge(person)
	}

	details := checkout.Get("data.checkoutPayloads.deliveryDetails")
	if phone := firstString(details, "phoneNumber", "contactPhone"); LooksLikePhone(phone) {
		d.Set(models.CustomerPhone, phone)
	}
	d.Set(models.CustomerName, firstString(details, "recipientName", "contactName"))
	if c, ok := coordsOf(details.Get("location")); ok {
		d.Set(models.CustomerLatitude, c.Latitude)
		d.Set(models.CustomerLongitude, c.Longitude)
	}
	if addr := addressOf(details); addr != "" {
		d.Append(models.CustomerDeliveryAddresses, addr)
	}

	for _, p := range []string{"data.checkoutPayloads.paymentProfiles.profiles", "data.checkoutPayloads.paymentProfiles", "data.checkoutPayloads.payment.profiles"} {
		if v := checkout.Get(p); v.IsArray() {
			d.Append(models.CustomerPaymentMethods, paymentSummaries(v)...)
			break
		}
	}
	return d
}

// ExtractCustomerFromJoinData reads the draft order owner from a join response.
func ExtractCustomerFromJoinData(join gjson.Result) *models.CustomerDetails {
	d := models.NewCustomerDetails()
	draft := join.Get("data.draftOrder")
	if !draft.IsObject() {
		draft = join.Get("data")
	}
	if !draft.IsObject() {
		return d
	}

	if id := firstString(draft, customerUUIDKeys...); isUUID(id) {
		d.Set(models.CustomerUUID, id)
	}
	d.Set(models.CustomerName, firstString(draft, "creatorName", "eaterName", "displayName"))
	if owner := draft.Get("creator"); owner.IsObject() {
		fillPerson(d, owner)
	}

	addr := draft.Get("deliveryAddress")
	if c, ok := coordsOf(addr); ok {
		d.Set(models.CustomerLatitude, c.Latitude)
		d.Set(models.CustomerLongitude, c.Longitude)
	}
	if phone := firstString(addr, "phoneNumber", "contactPhone"); LooksLikePhone(phone) {
		d.Set(models.CustomerPhone, phone)
	}
	if s := addressOf(addr); s != "" {
		d.Append(models.CustomerDeliveryAddresses, s)
	}
	return d
}

func personAt(v gjson.Result) (*models.CustomerDetails, bool) {
	if !v.IsObject() {
		return nil, false
	}
	d := models.NewCustomerDetails()
	fillPerson(d, v)
	return d, d.Len() > 0
}

// paymentSummaries keeps the displayable parts of payment profiles.
func paymentSummaries(v gjson.Result) []any {
	var out []any
	for _, p := range v.Array() {
		if !p.IsObject() {
			if s, ok := jsonscan.NonBlank(p); ok {
				out = append(out, s)
			}
			continue
		}
		summary := map[string]any{}
		for _, k := range []string{"uuid", "type", "cardType", "cardNumber", "displayName", "tokenType"} {
			if s, ok := jsonscan.NonBlank(p.Get(k)); ok {
				summary[k] = s
			}
		}
		if len(summary) > 0 {
			out = append(out, summary)
		}
	}
	return out
}

func has(path string) func(gjson.Result) bool {
	return func(v gjson.Result) bool { return v.Get(path).Exists() }
}
