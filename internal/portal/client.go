package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/lcrivelli/energybuddy/internal/metrics"
	"github.com/lcrivelli/energybuddy/internal/models"
)

const DefaultBaseURL = "https://energybuddy.ail.ch"

const (
	loginPath    = "/it/Security/LoginForm"
	readingsPath = "/api/v2/service/MeterService/getReadingsByScaleAndTimeRange"
)

var (
	tokenRe = regexp.MustCompile(`aWattgarde\.config\.token\s*=\s*"([^"]+)"`)
	meterRe = regexp.MustCompile(`"ID":\s*(\d+)`)
)

// Client talks to the EnergyBuddy portal. Login establishes a cookie-backed
// session plus an embedded API token and meter ID scraped from the login
// response; FetchReadings pulls raw interval readings for a time window.
// The portal expires sessions aggressively, so callers re-login every cycle.
type Client struct {
	baseURL  string
	email    string
	password string
	client   *http.Client

	token   string
	meterID string
}

func NewClient(email, password string) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		baseURL:  DefaultBaseURL,
		email:    email,
		password: password,
		client: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
	}
}

// SetBaseURL overrides the portal base URL, for tests.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = strings.TrimSuffix(u, "/")
}

// MeterID returns the meter identifier scraped at login, empty before Login.
func (c *Client) MeterID() string {
	return c.meterID
}

// Login authenticates against the portal and captures the session token and
// meter ID from the response body. A missing token or meter marker is an
// *AuthError, not a transport failure: the portal serves the login form again
// with status 200 when credentials are rejected.
func (c *Client) Login(ctx context.Context) error {
	form := url.Values{
		"AuthenticationMethod": {"CustomMemberAuthenticator"},
		"Email":                {c.email},
		"Password":             {c.password},
		"action_dologin":       {"Accedi"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+loginPath, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		metrics.PortalCallsTotal.WithLabelValues("login", "error").Inc()
		return fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()
	metrics.PortalCallLatency.WithLabelValues("login").Observe(time.Since(start).Seconds())
	metrics.PortalCallsTotal.WithLabelValues("login", fmt.Sprint(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		return &AuthError{Reason: fmt.Sprintf("login status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read login response: %w", err)
	}

	token := tokenRe.FindSubmatch(body)
	meter := meterRe.FindSubmatch(body)
	if token == nil || meter == nil {
		return &AuthError{Reason: "session token or meter ID not found in login response"}
	}

	c.token = string(token[1])
	c.meterID = string(meter[1])
	return nil
}

type readingsRequest struct {
	MeterID             string    `json:"meterID"`
	Scale               string    `json:"scale"`
	TimeFrame           timeFrame `json:"timeFrame"`
	ForceWholeTimeFrame bool      `json:"forceWholeTimeFrame"`
	HoursPrecision      bool      `json:"hoursPrecision"`
	FetchPreviousYear   bool      `json:"fetchPreviousYearData"`
}

type timeFrame struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type readingsResponse struct {
	Response []readingRecord `json:"response"`
}

type readingRecord struct {
	Day           *float64 `json:"day"`
	Night         *float64 `json:"night"`
	From          string   `json:"from"`
	To            string   `json:"to"`
	IsPending     bool     `json:"isPending"`
	ReadingsCount *int     `json:"readingsCount"`
}

const portalTimeLayout = "2006-01-02 15:04:05"

// FetchReadings returns the raw interval readings for [from, to). The portal
// may silently cap the window; the result is returned as-is and completeness
// is judged downstream. Transient statuses are retried with exponential
// backoff; anything else surfaces immediately as *TransportError.
func (c *Client) FetchReadings(ctx context.Context, from, to time.Time) ([]models.RawReading, error) {
	if c.token == "" {
		return nil, ErrNotLoggedIn
	}
	if !from.Before(to) {
		return nil, fmt.Errorf("portal: invalid window %s -> %s", from, to)
	}

	payload, err := json.Marshal(readingsRequest{
		MeterID:        c.meterID,
		Scale:          "hours",
		TimeFrame:      timeFrame{From: from.Format(portalTimeLayout), To: to.Format(portalTimeLayout)},
		HoursPrecision: true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal readings request: %w", err)
	}

	endpoint := c.baseURL + readingsPath + "?token=" + url.QueryEscape(c.token)

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build readings request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")

		start := time.Now()
		resp, err := c.client.Do(req)
		if err != nil {
			metrics.PortalCallsTotal.WithLabelValues("readings", "error").Inc()
			return backoff.Permanent(fmt.Errorf("fetch readings: %w", err))
		}
		defer resp.Body.Close()
		metrics.PortalCallLatency.WithLabelValues("readings").Observe(time.Since(start).Seconds())
		metrics.PortalCallsTotal.WithLabelValues("readings", fmt.Sprint(resp.StatusCode)).Inc()

		switch resp.StatusCode {
		case http.StatusOK:
		case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return &TransportError{Endpoint: "readings", Status: resp.StatusCode}
		default:
			return backoff.Permanent(&TransportError{Endpoint: "readings", Status: resp.StatusCode})
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("read body: %w", err))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 2 * time.Minute
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}

	var data readingsResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, &DataError{Endpoint: "readings", Err: err}
	}
	if data.Response == nil {
		return nil, &DataError{Endpoint: "readings", Err: fmt.Errorf("missing response field")}
	}

	readings := make([]models.RawReading, 0, len(data.Response))
	for i, rec := range data.Response {
		start, err := time.Parse(portalTimeLayout, rec.From)
		if err != nil {
			return nil, &DataError{Endpoint: "readings", Err: fmt.Errorf("record %d: parse from: %w", i, err)}
		}
		end, err := time.Parse(portalTimeLayout, rec.To)
		if err != nil {
			return nil, &DataError{Endpoint: "readings", Err: fmt.Errorf("record %d: parse to: %w", i, err)}
		}

		r := models.RawReading{
			IntervalStart: start,
			IntervalEnd:   end,
			Pending:       rec.IsPending,
		}
		if rec.Day != nil {
			r.Day = *rec.Day
		}
		if rec.Night != nil {
			r.Night = *rec.Night
		}
		if rec.ReadingsCount != nil {
			r.SampleCount = *rec.ReadingsCount
		}
		readings = append(readings, r)
	}
	return readings, nil
}
