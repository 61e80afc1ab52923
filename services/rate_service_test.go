package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const keyRateFeed = `<?xml version="1.0" encoding="utf-8"?>
<KeyRate>
  <KR><DT>2024-07-26T00:00:00+03:00</DT><Rate>18.00</Rate></KR>
  <KR><DT>2024-09-13T00:00:00+03:00</DT><Rate>19,00</Rate></KR>
  <KR><DT>2024-06-07T00:00:00+03:00</DT><Rate>16.00</Rate></KR>
  <KR><DT>not a date</DT><Rate>99</Rate></KR>
</KeyRate>`

func TestParseRateFeed(t *testing.T) {
	date, rate, err := ParseRateFeed([]byte(keyRateFeed))
	require.NoError(t, err)

	assert.Equal(t, 19.0, rate)
	assert.Equal(t, 2024, date.Year())
	assert.Equal(t, time.September, date.Month())
}

func TestParseRateFeed_Errors(t *testing.T) {
	_, _, err := ParseRateFeed([]byte("<KeyRate></KeyRate>"))
	assert.ErrorIs(t, err, ErrNoRates)

	_, _, err = ParseRateFeed([]byte("<<not xml"))
	assert.Error(t, err)
}

func TestRateService_SuggestedRate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(keyRateFeed))
	}))
	defer server.Close()

	quote, err := NewRateService(server.URL, 3.5, time.Second).SuggestedRate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 19.0, quote.ReferenceRate)
	assert.Equal(t, 3.5, quote.Spread)
	assert.Equal(t, 22.5, quote.SuggestedRate)
}

func TestRateService_UpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewRateService(server.URL, 3, time.Second).SuggestedRate(context.Background())
	assert.ErrorContains(t, err, "unexpected status 503")
}

func TestRateService_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	_, err := NewRateService(server.URL, 3, 20*time.Millisecond).SuggestedRate(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
