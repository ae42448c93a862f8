package ubereats

import (
	"errors"
	"net/url"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidLink is returned for links without a usable group order UUID.
var ErrInvalidLink = errors.New("invalid group order link")

// ErrEmptyOrder is reported when a joined cart has neither items nor a subtotal.
var ErrEmptyOrder = errors.New("group order has no items")

var (
	groupOrderPath = regexp.MustCompile(`(?i)/group-orders?/([0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})`)
	uuidParams     = []string{"draftOrderUuid", "draftOrderUUID", "groupOrderUuid", "uuid"}
)

// ParseDraftOrderUUID pulls the draft order UUID out of a group order link,
// either from a /group-orders/<uuid> path segment or a query parameter.
func ParseDraftOrderUUID(link string) (string, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return "", ErrInvalidLink
	}
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return "", ErrInvalidLink
	}

	if m := groupOrderPath.FindStringSubmatch(u.Path); m != nil {
		if id, err := uuid.Parse(m[1]); err == nil {
			return id.String(), nil
		}
	}
	query := u.Query()
	for _, p := range uuidParams {
		if id, err := uuid.Parse(strings.TrimSpace(query.Get(p))); err == nil {
			return id.String(), nil
		}
	}
	return "", ErrInvalidLink
}
