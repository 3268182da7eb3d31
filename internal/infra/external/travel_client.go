package external

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/KasumiMercury/primind-reminder-delivery/internal/app"
	"github.com/KasumiMercury/primind-reminder-delivery/internal/domain"
)

var ErrInvalidEstimate = errors.New("invalid travel estimate")

type travelResponse struct {
	DurationSeconds int     `json:"duration_seconds"`
	DistanceMeters  float64 `json:"distance_meters"`
	Congestion      string  `json:"congestion"`
}

// TravelClient estimates door-to-door travel time through the routing provider.
type TravelClient struct {
	client *client
	now    func() time.Time
}

var _ app.TravelTimeService = (*TravelClient)(nil)

func NewTravelClient(cfg ClientConfig) (*TravelClient, error) {
	c, err := newClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("travel client: %w", err)
	}

	return &TravelClient{client: c, now: time.Now}, nil
}

func (t *TravelClient) EstimateTravel(ctx context.Context, origin domain.GeoPoint, destination string) (domain.TrafficInfo, error) {
	query := url.Values{}
	query.Set("origin_lat", strconv.FormatFloat(origin.Lat, 'f', -1, 64))
	query.Set("origin_lng", strconv.FormatFloat(origin.Lng, 'f', -1, 64))
	query.Set("destination", destination)

	var resp travelResponse
	if err := t.client.getJSON(ctx, "/v1/travel", query, &resp); err != nil {
		return domain.TrafficInfo{}, err
	}

	if resp.DurationSeconds < 0 || resp.DistanceMeters < 0 {
		return domain.TrafficInfo{}, fmt.Errorf("%w: duration %ds, distance %.0fm",
			ErrInvalidEstimate, resp.DurationSeconds, resp.DistanceMeters)
	}

	return domain.TrafficInfo{
		DurationMinutes: (resp.DurationSeconds + 59) / 60,
		DistanceKm:      resp.DistanceMeters / 1000,
		Congestion:      domain.NewCongestionLevel(resp.Congestion),
		CapturedAt:      t.now().UTC(),
	}, nil
}
