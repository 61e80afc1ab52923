package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/spf13/cast"
)

var ErrNoRates = errors.New("rate feed has no usable records")

// RateQuote is a suggested consolidation rate derived from a reference rate
type RateQuote struct {
	Date          time.Time `json:"date"`
	ReferenceRate float64   `json:"referenceRate"`
	Spread        float64   `json:"spread"`
	SuggestedRate float64   `json:"suggestedRate"`
}

// RateService reads a key rate feed. Each record is a KR element holding a DT
// date and a Rate value.
type RateService struct {
	client  *http.Client
	feedURL string
	spread  float64
	timeout time.Duration
}

func NewRateService(feedURL string, spread float64, timeout time.Duration) *RateService {
	return &RateService{
		client:  &http.Client{},
		feedURL: feedURL,
		spread:  spread,
		timeout: timeout,
	}
}

// SuggestedRate fetches the feed and returns its latest rate plus the spread
func (s *RateService) SuggestedRate(ctx context.Context) (RateQuote, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.feedURL, nil)
	if err != nil {
		return RateQuote{}, fmt.Errorf("build rate request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return RateQuote{}, fmt.Errorf("fetch rate feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return RateQuote{}, fmt.Errorf("fetch rate feed: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return RateQuote{}, fmt.Errorf("read rate feed: %w", err)
	}

	date, rate, err := ParseRateFeed(body)
	if err != nil {
		return RateQuote{}, err
	}
	return RateQuote{
		Date:          date,
		ReferenceRate: rate,
		Spread:        s.spread,
		SuggestedRate: roundRate(rate + s.spread),
	}, nil
}

// ParseRateFeed returns the most recent record of an XML key rate feed
func ParseRateFeed(data []byte) (time.Time, float64, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return time.Time{}, 0, fmt.Errorf("parse rate feed: %w", err)
	}

	var (
		latest time.Time
		rate   float64
		found  bool
	)
	for _, record := range doc.FindElements("//KR") {
		dateEl := record.SelectElement("DT")
		rateEl := record.SelectElement("Rate")
		if dateEl == nil || rateEl == nil {
			continue
		}
		date, err := parseFeedDate(dateEl.Text())
		if err != nil {
			continue
		}
		value, err := cast.ToFloat64E(strings.Replace(strings.TrimSpace(rateEl.Text()), ",", ".", 1))
		if err != nil || value < 0 {
			continue
		}
		if !found || date.After(latest) {
			latest, rate, found = date, value, true
		}
	}
	if !found {
		return time.Time{}, 0, ErrNoRates
	}
	return latest, rate, nil
}

var feedDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02.01.2006",
}

func parseFeedDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range feedDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

func roundRate(v float64) float64 {
	return math.Round(v*1000) / 1000
}
