package geo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/viewing-scheduler/internal/httperr"
)

type routeRequest struct {
	Coordinates [][2]float64 `json:"coordinates"`
	Format      string       `json:"format"`
}

// routeResponse mirrors the parts of the OpenRouteService directions
// payload we read.
type routeResponse struct {
	Routes []struct {
		Summary struct {
			Distance *float64 `json:"distance"`
			Duration *float64 `json:"duration"`
		} `json:"summary"`
	} `json:"routes"`
}

func (c *Client) ComputeTravel(ctx context.Context, origin, dest Coordinates) (Travel, error) {
	if !origin.Valid() || !dest.Valid() {
		return Travel{}, httperr.Validation("invalid_coordinates", "Coordinates out of range.", nil)
	}

	ctx, cancel, err := c.begin(ctx)
	if err != nil {
		return Travel{}, err
	}
	defer cancel()

	body, err := json.Marshal(routeRequest{
		Coordinates: [][2]float64{
			{origin.Longitude, origin.Latitude},
			{dest.Longitude, dest.Latitude},
		},
		Format: "json",
	})
	if err != nil {
		return Travel{}, httperr.Internal("route_request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.routingURL, bytes.NewReader(body))
	if err != nil {
		return Travel{}, httperr.Internal("route_request", err)
	}
	req.Header.Set("Authorization", c.routingKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("route lookup failed", zap.Error(err))
		return Travel{}, upstreamErr(err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		c.log.Error("route upstream error", zap.Int("status", resp.StatusCode))
		return Travel{}, httperr.Dependency("geo_upstream_error", "Routing service returned an error.",
			fmt.Errorf("upstream status %d", resp.StatusCode))
	}

	var payload routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Travel{}, httperr.Dependency("geo_malformed", "Routing service returned malformed data.", err)
	}

	if len(payload.Routes) == 0 {
		return Travel{}, httperr.Dependency("geo_no_route", "Routing service found no route.", nil)
	}

	// OpenRouteService omits zero-valued summary fields, e.g. when origin
	// and destination coincide.
	s := payload.Routes[0].Summary
	distance, ok1 := usable(s.Distance)
	duration, ok2 := usable(s.Duration)
	if !ok1 || !ok2 {
		return Travel{}, httperr.Dependency("geo_malformed", "Routing service returned an unusable summary.", nil)
	}

	return Travel{
		DistanceKm:  MetersToKm(distance),
		DurationMin: RoundUpMinutes(duration),
	}, nil
}

func usable(v *float64) (float64, bool) {
	if v == nil {
		return 0, true
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0 {
		return 0, false
	}
	return *v, true
}
