package registry

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// MeterRecord is a raw registry record. Field presence is not guaranteed;
// the resolver applies fallbacks, this layer only decodes.
type MeterRecord struct {
	ID               int            `json:"id"`
	NodeName         string         `json:"node__name"`
	TypeName         string         `json:"type__name"`
	ResourceTypeName string         `json:"resource_type__name"`
	DeviceEUI        string         `json:"device__eui"`
	DeviceTypeName   string         `json:"device__type__name"`
	Street           string         `json:"street"`
	House            string         `json:"house"`
	Apartment        string         `json:"apartment"`
	Reading          float64        `json:"reading"`
	ReadingDT        string         `json:"reading_dt"`
	SerialNumber     string         `json:"serial_number"`
	Description      string         `json:"description"`
	JoinDate         string         `json:"join_date"`
	CheckDate        string         `json:"check_date"`
	JoinReading      float64        `json:"join_reading"`
	SentDate         string         `json:"sent_date"`
	LastReading      float64        `json:"last_reading"`
	IsActive         bool           `json:"is_active"`
	Consumer         string         `json:"consumer"`
	Phone            string         `json:"phone"`
	AccountID        string         `json:"account_id"`
	Coverage         string         `json:"coverage"`
	History          []HistoryEntry `json:"history"`
}

// HistoryEntry is a registry-supplied consumption history point. The
// production registry does not send these yet; the field is decoded so the
// resolver prefers real history the day it appears.
type HistoryEntry struct {
	Date        string  `json:"date"`
	Reading     float64 `json:"reading"`
	Consumption float64 `json:"consumption"`
}

// SearchPage is the paginated envelope the registry wraps results in.
type SearchPage struct {
	Count    int           `json:"count"`
	Next     string        `json:"next"`
	Previous string        `json:"previous"`
	Results  []MeterRecord `json:"results"`
}

// TransportError covers network failures and non-2xx registry responses.
// A 404 or an empty page is not a transport error: "not found" is decided
// by the caller on a zero-match result set.
type TransportError struct {
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("registry transport error: %v", e.Err)
	}
	return fmt.Sprintf("registry returned status %d", e.StatusCode)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Client talks to the remote meter registry.
type Client struct {
	httpClient *resty.Client
}

// NewClient creates a registry client. The token is sent as the
// registry's bearer-style "Token" scheme on every request.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	if token != "" {
		client.SetHeader("Authorization", "Token "+token)
	}

	return &Client{httpClient: client}
}

// Search issues the registry's free-text search. Serial and account
// lookups both route through the same `search` parameter; the registry
// does not distinguish them.
func (c *Client) Search(ctx context.Context, value string) (*SearchPage, error) {
	var page SearchPage
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("search", value).
		SetResult(&page).
		Get("/meter/")

	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode() == http.StatusNotFound {
		// Some registry deployments 404 on unknown identifiers instead of
		// returning an empty page. Treat both the same way.
		return &SearchPage{}, nil
	}

	if resp.IsError() {
		return nil, &TransportError{StatusCode: resp.StatusCode()}
	}

	return &page, nil
}
