package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/droproute/droproute/internal/geo"
	"github.com/droproute/droproute/internal/geocoding"
	"github.com/droproute/droproute/internal/routing"
)

type fakePlanner struct {
	direct    func(ctx context.Context, origin, destination geocoding.LocatedPoint) (routing.Plan, error)
	itinerary func(ctx context.Context, origin string, stops []string, destination string) (routing.Plan, []geocoding.LocatedPoint, error)
	accepted  func(ctx context.Context, origin string) (routing.Plan, []geocoding.LocatedPoint, error)
}

func (f *fakePlanner) PlanToDestination(ctx context.Context, origin, destination geocoding.LocatedPoint) (routing.Plan, error) {
	return f.direct(ctx, origin, destination)
}

func (f *fakePlanner) PlanItinerary(ctx context.Context, origin string, stops []string, destination string) (routing.Plan, []geocoding.LocatedPoint, error) {
	return f.itinerary(ctx, origin, stops, destination)
}

func (f *fakePlanner) PlanAccepted(ctx context.Context, origin string) (routing.Plan, []geocoding.LocatedPoint, error) {
	return f.accepted(ctx, origin)
}

func point(name string, lat, lon float64) geocoding.LocatedPoint {
	return geocoding.LocatedPoint{DisplayName: name, Coordinate: geo.Coordinate{Lat: lat, Lon: lon}}
}

func leg(index int, from, to geocoding.LocatedPoint, meters, seconds float64) routing.Leg {
	return routing.Leg{
		Index:           index,
		From:            from,
		To:              to,
		Path:            []geo.Coordinate{from.Coordinate, to.Coordinate},
		DistanceMeters:  meters,
		DurationSeconds: seconds,
	}
}

var (
	depot   = point("Depot", 41.87747, -87.62721)
	kenmore = point("6230 N Kenmore Ave", 41.99386, -87.65353)
	wrigley = point("2250 N Sheffield Ave", 41.92298, -87.65385)
)

// serve routes req through a chi router so URL params resolve.
func serve(t *testing.T, method, pattern string, h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.MethodFunc(method, pattern, h)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}
