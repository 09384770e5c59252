package handler

import (
	"time"

	"github.com/droproute/droproute/internal/api/models"
	"github.com/droproute/droproute/internal/delivery"
	"github.com/droproute/droproute/internal/geo"
	"github.com/droproute/droproute/internal/geocoding"
	"github.com/droproute/droproute/internal/routing"
	"github.com/droproute/droproute/pkg/polyline"
)

func toLocation(p geocoding.LocatedPoint) models.Location {
	return models.Location{
		Name:    p.DisplayName,
		Lat:     p.Coordinate.Lat,
		Lon:     p.Coordinate.Lon,
		Geohash: p.Geohash(),
	}
}

func fromLocation(l models.Location) geocoding.LocatedPoint {
	return geocoding.LocatedPoint{
		DisplayName: l.Name,
		Coordinate:  geo.Coordinate{Lat: l.Lat, Lon: l.Lon},
	}
}

func toViewport(r geo.Region) *models.Viewport {
	if r.IsEmpty() {
		return nil
	}
	c := r.Center()
	return &models.Viewport{
		MinLat: r.MinLat,
		MinLon: r.MinLon,
		MaxLat: r.MaxLat,
		MaxLon: r.MaxLon,
		Center: models.Point{Lat: c.Lat, Lon: c.Lon},
	}
}

func encodePath(path []geo.Coordinate) string {
	coords := make([]polyline.Coordinate, len(path))
	for i, c := range path {
		coords[i] = polyline.Coordinate{Lat: c.Lat, Lon: c.Lon}
	}
	return polyline.Encode(coords)
}

func toRouteLeg(l routing.Leg) models.RouteLeg {
	leg := models.RouteLeg{
		Index:            l.Index,
		From:             toLocation(l.From),
		To:               toLocation(l.To),
		DistanceMeters:   l.DistanceMeters,
		DurationSeconds:  l.DurationSeconds,
		DistanceText:     routing.FormatMiles(l.DistanceMeters),
		DurationText:     routing.FormatDuration(l.DurationSeconds),
		GeometryPolyline: encodePath(l.Path),
	}
	if len(l.Steps) > 0 {
		leg.Steps = make([]models.RouteStep, len(l.Steps))
		for i, s := range l.Steps {
			leg.Steps[i] = models.RouteStep{Instruction: s.Instruction, DistanceMeters: s.DistanceMeters}
		}
	}
	return leg
}

func toRoutePlan(plan routing.Plan, itinerary []geocoding.LocatedPoint, generatedAt time.Time) models.RoutePlan {
	out := models.RoutePlan{
		Status:               string(plan.Status()),
		RequestedLegs:        plan.RequestedLegs,
		MissingLegs:          plan.MissingLegs(),
		Itinerary:            make([]models.Location, len(itinerary)),
		Legs:                 make([]models.RouteLeg, len(plan.Legs)),
		TotalDistanceMeters:  plan.TotalDistanceMeters,
		TotalDurationSeconds: plan.TotalDurationSeconds,
		TotalDistanceText:    routing.FormatMiles(plan.TotalDistanceMeters),
		TotalDurationText:    routing.FormatDuration(plan.TotalDurationSeconds),
		Viewport:             toViewport(plan.Bounds),
		GeneratedAt:          models.Timestamp(generatedAt),
	}
	for i, p := range itinerary {
		out.Itinerary[i] = toLocation(p)
	}
	for i, l := range plan.Legs {
		out.Legs[i] = toRouteLeg(l)
	}
	return out
}

func toDelivery(d *delivery.Delivery) models.Delivery {
	return models.Delivery{
		ID:         d.ID,
		Name:       d.Name,
		TimeWindow: d.TimeWindow,
		Address:    d.Address,
		Status:     string(d.Status),
		AcceptedAt: models.TimestampPtr(d.AcceptedAt),
		CreatedAt:  models.Timestamp(d.CreatedAt),
		UpdatedAt:  models.Timestamp(d.UpdatedAt),
	}
}
