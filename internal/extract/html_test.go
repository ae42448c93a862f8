package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScrapeHTMLEscapedScriptJSON(t *testing.T) {
	body := `<html><script>window.__REDUX_STATE__ = "{\"draftOrder\":{\"deliveryAddress\":{` +
		`\"latitude\":40.7484,\"longitude\":-73.9857,` +
		`\"subtitle\":\"Meet at my door · 350 5th Ave, New York, NY\"},` +
		`\"deliveryInstructions\":\"Ring the bell\",` +
		`\"eaterPhoneNumber\":\"+1 212-555-0147\"}}";</script></html>`

	got := ScrapeHTML(body)
	require.NotNil(t, got.Coordinates)
	assert.Equal(t, 40.7484, got.Coordinates.Latitude)
	assert.Equal(t, -73.9857, got.Coordinates.Longitude)
	require.NotNil(t, got.Address)
	assert.Equal(t, "350 5th Ave, New York, NY", *got.Address)
	require.NotNil(t, got.Instructions)
	assert.Equal(t, "Ring the bell", *got.Instructions)
	require.NotNil(t, got.Phone)
	assert.Equal(t, "+1 212-555-0147", *got.Phone)
}

func TestScrapeHTMLAlternatePatterns(t *testing.T) {
	body := `<script type="application/json">{"location":{"lat":34.05,"lng":-118.25},` +
		`"address1":"1 Main St","address2":"Suite 5","notes":"Back door",` +
		`"orderNumber":"12","contactPhone":"(310) 555-0199"}</script>`

	got := ScrapeHTML(body)
	require.NotNil(t, got.Coordinates)
	assert.Equal(t, 34.05, got.Coordinates.Latitude)
	require.NotNil(t, got.Address)
	assert.Equal(t, "1 Main St, Suite 5", *got.Address)
	require.NotNil(t, got.Instructions)
	assert.Equal(t, "Back door", *got.Instructions)
	require.NotNil(t, got.Phone)
	assert.Equal(t, "(310) 555-0199", *got.Phone)
}

func TestScrapeHTMLFormattedAddressBeatsLines(t *testing.T) {
	body := `{"address1":"1 Main St","formattedAddress":"1 Main St, Springfield, IL 62701"}`
	got := ScrapeHTML(body)
	require.NotNil(t, got.Address)
	assert.Equal(t, "1 Main St, Springfield, IL 62701", *got.Address)
}

func TestScrapeHTMLNothingFound(t *testing.T) {
	got := ScrapeHTML(`<html><body>Sign in</body></html>`)
	assert.Equal(t, PageData{}, got)
}
