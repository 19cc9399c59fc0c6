package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/viewing-scheduler/internal/httperr"
)

type postcodeResult struct {
	Postcode      string   `json:"postcode"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
	Parish        string   `json:"parish"`
	AdminDistrict string   `json:"admin_district"`
	AdminCounty   string   `json:"admin_county"`
	AdminWard     string   `json:"admin_ward"`
	Region        string   `json:"region"`
}

type postcodeResponse struct {
	Status int             `json:"status"`
	Result *postcodeResult `json:"result"`
}

// NormalizePostcode strips whitespace and upper-cases the postcode.
func NormalizePostcode(postcode string) string {
	return strings.ToUpper(strings.Join(strings.Fields(postcode), ""))
}

func (c *Client) ResolveAddress(ctx context.Context, postcode string) (Address, error) {
	clean := NormalizePostcode(postcode)
	if clean == "" {
		return Address{}, httperr.Validation("invalid_postcode", "Postcode is required.", nil)
	}

	ctx, cancel, err := c.begin(ctx)
	if err != nil {
		return Address{}, err
	}
	defer cancel()

	reqURL := fmt.Sprintf("%s/postcodes/%s", strings.TrimRight(c.postcodeURL, "/"), url.PathEscape(clean))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Address{}, httperr.Internal("postcode_request", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("postcode lookup failed", zap.String("postcode", clean), zap.Error(err))
		return Address{}, upstreamErr(err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		return Address{}, httperr.NotFound("postcode_not_found", fmt.Sprintf("Postcode '%s' not found.", postcode))
	}
	if resp.StatusCode != http.StatusOK {
		c.log.Error("postcode upstream error", zap.Int("status", resp.StatusCode))
		return Address{}, httperr.Dependency("geo_upstream_error", "Postcode service returned an error.",
			fmt.Errorf("upstream status %d", resp.StatusCode))
	}

	var payload postcodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Address{}, httperr.Dependency("geo_malformed", "Postcode service returned malformed data.", err)
	}

	r := payload.Result
	if r == nil || r.Latitude == nil || r.Longitude == nil {
		return Address{}, httperr.Dependency("geo_malformed", "Postcode service returned no coordinates.", nil)
	}

	coords := Coordinates{Latitude: *r.Latitude, Longitude: *r.Longitude}
	if !coords.Valid() {
		return Address{}, httperr.Dependency("geo_malformed", "Postcode service returned invalid coordinates.", nil)
	}

	return Address{
		Postcode:    r.Postcode,
		Coordinates: coords,
		Region:      pickRegion(*r),
	}, nil
}

func pickRegion(r postcodeResult) string {
	for _, v := range []string{r.Parish, r.AdminDistrict, r.AdminCounty, r.AdminWard, r.Region} {
		if v != "" {
			return v
		}
	}
	return "Unknown Area"
}
