package external

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/KasumiMercury/primind-reminder-delivery/internal/app"
	"github.com/KasumiMercury/primind-reminder-delivery/internal/domain"
)

type weatherResponse struct {
	TemperatureC float64 `json:"temperature_c"`
	Description  string  `json:"description"`
}

type WeatherClient struct {
	client *client
	now    func() time.Time
}

var _ app.WeatherService = (*WeatherClient)(nil)

func NewWeatherClient(cfg ClientConfig) (*WeatherClient, error) {
	c, err := newClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("weather client: %w", err)
	}

	return &WeatherClient{client: c, now: time.Now}, nil
}

func (w *WeatherClient) CurrentWeather(ctx context.Context, at domain.GeoPoint) (domain.WeatherInfo, error) {
	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(at.Lat, 'f', -1, 64))
	query.Set("lng", strconv.FormatFloat(at.Lng, 'f', -1, 64))

	var resp weatherResponse
	if err := w.client.getJSON(ctx, "/v1/current", query, &resp); err != nil {
		return domain.WeatherInfo{}, err
	}

	return domain.WeatherInfo{
		TemperatureC: resp.TemperatureC,
		Description:  resp.Description,
		CapturedAt:   w.now().UTC(),
	}, nil
}
