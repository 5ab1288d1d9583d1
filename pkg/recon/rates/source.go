package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	reconerr "github.com/glbonus/reconciler/pkg/recon/errors"
)

// PortalSource fetches rates from the company portal's JSON endpoint. The
// portal answers GET <BaseURL>?day=DD.MM.YYYY&currency=XXX with a rate
// payload, or 404 when no rate is published for the day yet.
type PortalSource struct {
	BaseURL string

	// Client defaults to http.DefaultClient. Request deadlines come from
	// the caller's context.
	Client *http.Client
}

// ExchangeRate implements Source.
func (s *PortalSource) ExchangeRate(ctx context.Context, day time.Time, currency string) (float64, error) {
	query := url.Values{}
	query.Set("day", day.Format("02.01.2006"))
	query.Set("currency", currency)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"?"+query.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("building rate portal request: %w", err)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	budget := "unbounded"
	if deadline, ok := ctx.Deadline(); ok {
		budget = time.Until(deadline).Round(time.Millisecond).String()
	}

	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return 0, &reconerr.TimeoutError{Operation: "exchange rate fetch", Duration: budget}
		}
		return 0, fmt.Errorf("rate portal request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return 0, &reconerr.NoDataError{Source: "exchange rate"}
	default:
		return 0, fmt.Errorf("rate portal returned %s", resp.Status)
	}

	var payload struct {
		Rate float64 `json:"rate"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("decoding rate portal response: %w", err)
	}
	return payload.Rate, nil
}

// NoPortal is a Source for installations without a rate portal. Every fetch
// reports no data, so runs only succeed with a manually entered rate.
type NoPortal struct{}

// ExchangeRate implements Source.
func (NoPortal) ExchangeRate(context.Context, time.Time, string) (float64, error) {
	return 0, &reconerr.NoDataError{Source: "exchange rate"}
}
