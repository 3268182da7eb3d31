package external_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KasumiMercury/primind-reminder-delivery/internal/domain"
	"github.com/KasumiMercury/primind-reminder-delivery/internal/infra/external"
)

func TestNewTravelClientRequiresBaseURL(t *testing.T) {
	_, err := external.NewTravelClient(external.ClientConfig{BaseURL: "  "})

	assert.Error(t, err)
}

func TestTravelClientEstimateTravel(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		expected   domain.TrafficInfo
		expectErr  error
		anyErr     bool
		checkQuery bool
	}{
		{
			name:   "rounds duration up to whole minutes",
			status: http.StatusOK,
			body:   `{"duration_seconds": 1150, "distance_meters": 7200, "congestion": "Heavy"}`,
			expected: domain.TrafficInfo{
				DurationMinutes: 20,
				DistanceKm:      7.2,
				Congestion:      domain.CongestionHeavy,
			},
			checkQuery: true,
		},
		{
			name:   "unknown congestion label",
			status: http.StatusOK,
			body:   `{"duration_seconds": 600, "distance_meters": 1000, "congestion": "gridlock"}`,
			expected: domain.TrafficInfo{
				DurationMinutes: 10,
				DistanceKm:      1,
				Congestion:      domain.CongestionUnknown,
			},
		},
		{
			name:      "negative duration is rejected",
			status:    http.StatusOK,
			body:      `{"duration_seconds": -60, "distance_meters": 1000}`,
			expectErr: external.ErrInvalidEstimate,
		},
		{
			name:      "provider error status",
			status:    http.StatusTooManyRequests,
			body:      `quota exceeded`,
			expectErr: external.ErrProviderStatus,
		},
		{
			name:   "malformed body",
			status: http.StatusOK,
			body:   `{"duration_seconds":`,
			anyErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/travel", r.URL.Path)
				assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

				if tt.checkQuery {
					assert.Equal(t, "35.681", r.URL.Query().Get("origin_lat"))
					assert.Equal(t, "139.767", r.URL.Query().Get("origin_lng"))
					assert.Equal(t, "12 Elm St", r.URL.Query().Get("destination"))
				}

				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, err := external.NewTravelClient(external.ClientConfig{
				BaseURL:    server.URL + "/",
				APIKey:     "secret",
				RatePerSec: 100,
			})
			require.NoError(t, err)

			info, err := client.EstimateTravel(context.Background(), domain.GeoPoint{Lat: 35.681, Lng: 139.767}, "12 Elm St")

			if tt.expectErr != nil || tt.anyErr {
				require.Error(t, err)

				if tt.expectErr != nil {
					assert.ErrorIs(t, err, tt.expectErr)
				}

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected.DurationMinutes, info.DurationMinutes)
			assert.InDelta(t, tt.expected.DistanceKm, info.DistanceKm, 0.0001)
			assert.Equal(t, tt.expected.Congestion, info.Congestion)
			assert.False(t, info.CapturedAt.IsZero())
		})
	}
}

func TestTravelClientHonoursContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	client, err := external.NewTravelClient(external.ClientConfig{BaseURL: server.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = client.EstimateTravel(ctx, domain.GeoPoint{}, "anywhere")

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
