// Package geo resolves postcodes to coordinates and estimates driving
// distance and duration between two points.
package geo

import (
	"context"
	"math"
)

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (c Coordinates) Valid() bool {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) {
		return false
	}
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

type Address struct {
	Postcode    string      `json:"postcode"`
	Coordinates Coordinates `json:"coordinates"`
	Region      string      `json:"region"`
}

// Travel is a one-way journey. DurationMin is whole minutes, at least 1.
type Travel struct {
	DistanceKm  float64 `json:"distance_km"`
	DurationMin int     `json:"duration_min"`
}

type AddressResolver interface {
	ResolveAddress(ctx context.Context, postcode string) (Address, error)
}

type TravelEstimator interface {
	ComputeTravel(ctx context.Context, origin, dest Coordinates) (Travel, error)
}

type Lookup interface {
	AddressResolver
	TravelEstimator
}

// RoundUpMinutes converts seconds into whole minutes, rounding up, with a
// floor of one minute.
func RoundUpMinutes(seconds float64) int {
	m := int(math.Ceil(seconds / 60))
	if m < 1 {
		return 1
	}
	return m
}

// MetersToKm converts meters to kilometers rounded to two decimals.
func MetersToKm(meters float64) float64 {
	return math.Round(meters/1000*100) / 100
}
