package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/example/referdby/internal/config"
)

// RateProvider returns how many units of each currency one unit of base buys.
type RateProvider interface {
	Latest(ctx context.Context, base string) (map[string]decimal.Decimal, error)
}

type exchangeRateAPIResponse struct {
	Result          string                     `json:"result"`
	ErrorType       string                     `json:"error-type,omitempty"`
	BaseCode        string                     `json:"base_code"`
	ConversionRates map[string]decimal.Decimal `json:"conversion_rates"`
}

// ExchangeRateAPIProvider talks to an exchangerate-api.com compatible endpoint.
type ExchangeRateAPIProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
}

// NewExchangeRateAPIProvider builds a throttled provider from config.
func NewExchangeRateAPIProvider(cfg config.RatesConfig) *ExchangeRateAPIProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 30
	}
	return &ExchangeRateAPIProvider{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  strings.TrimSpace(cfg.APIKey),
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
	}
}

// Latest fetches GET {base}/{key}/latest/{currency}.
func (p *ExchangeRateAPIProvider) Latest(ctx context.Context, base string) (map[string]decimal.Decimal, error) {
	if p.baseURL == "" {
		return nil, errors.New("exchange rate URL is not configured")
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for rate provider budget: %w", err)
	}

	segments := []string{p.baseURL}
	if p.apiKey != "" {
		segments = append(segments, url.PathEscape(p.apiKey))
	}
	segments = append(segments, "latest", url.PathEscape(NormalizeCurrency(base)))
	targetURL := strings.Join(segments, "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create rate request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute rate request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read rate response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("rate request failed: status %d, body: %s", resp.StatusCode, string(body))
	}

	var parsed exchangeRateAPIResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal rate response: %w", err)
	}
	if parsed.Result != "success" {
		return nil, fmt.Errorf("rate provider returned %q (%s)", parsed.Result, parsed.ErrorType)
	}
	if len(parsed.ConversionRates) == 0 {
		return nil, errors.New("rate provider returned no conversion_rates")
	}

	rates := make(map[string]decimal.Decimal, len(parsed.ConversionRates))
	for code, value := range parsed.ConversionRates {
		if !value.IsPositive() {
			continue
		}
		rates[NormalizeCurrency(code)] = value
	}
	return rates, nil
}
