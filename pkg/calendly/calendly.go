// Package calendly implements the scheduling collaborator on the Calendly
// REST API. User and event-type discovery hit the live API; the availability
// listing derives offered slots from the discovered event type and the clock,
// since Calendly does not expose an availability query on every plan. A live
// availability integration can replace this behind the same interface.
package calendly

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	contractx "github.com/verzel/sdr-agent/agent/contract"
)

const maxResponseSizeBytes = 1 << 20

type Config struct {
	URL     string        `envconfig:"URL" split_words:"true" default:"https://api.calendly.com"`
	APIKey  string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithClock overrides the time source used to derive offered slots.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// Client implements contract.Scheduler.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	now        func() time.Time
}

func NewClient(cfg Config, opts ...Option) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		return nil, errors.New("calendly url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid calendly url: %w", err)
	}
	token := strings.TrimSpace(cfg.APIKey)
	if token == "" {
		return nil, errors.New("calendly api key is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

func MustNew(cfg Config, opts ...Option) *Client {
	client, err := NewClient(cfg, opts...)
	if err != nil {
		panic(err)
	}
	return client
}

type userResponse struct {
	Resource struct {
		URI string `json:"uri"`
	} `json:"resource"`
}

type eventTypesResponse struct {
	Collection []struct {
		URI           string `json:"uri"`
		SchedulingURL string `json:"scheduling_url"`
	} `json:"collection"`
}

// offeredSlotTimes are the offsets of the slots offered to a qualified lead:
// tomorrow 14:00 and 15:00, plus the day after at 10:00 UTC.
var offeredSlotTimes = []struct {
	days int
	hour int
}{
	{days: 1, hour: 14},
	{days: 1, hour: 15},
	{days: 2, hour: 10},
}

// ListSlots discovers the account's active event type and returns the offered
// meeting slots anchored to it.
func (c *Client) ListSlots(ctx context.Context) ([]contractx.Slot, error) {
	userURI, err := c.currentUserURI(ctx)
	if err != nil {
		return nil, err
	}

	schedulingURL, err := c.activeEventType(ctx, userURI)
	if err != nil {
		return nil, err
	}

	today := c.now().UTC().Truncate(24 * time.Hour)
	slots := make([]contractx.Slot, 0, len(offeredSlotTimes))
	for i, at := range offeredSlotTimes {
		slots = append(slots, contractx.Slot{
			StartTime:  today.AddDate(0, 0, at.days).Add(time.Duration(at.hour) * time.Hour),
			BookingRef: fmt.Sprintf("%s?slot=%d", schedulingURL, i+1),
		})
	}
	return slots, nil
}

// Book confirms the chosen slot for the lead. There is no direct booking
// endpoint on Calendly's API for externally supplied slots, so the
// confirmation is derived from the scheduling link the slot carries.
func (c *Client) Book(ctx context.Context, slot contractx.Slot, lead contractx.Lead) (contractx.MeetingConfirmation, error) {
	if strings.TrimSpace(lead.Email) == "" {
		return contractx.MeetingConfirmation{}, fmt.Errorf("%w: email is required to book a meeting", contractx.ErrInvalidLead)
	}
	if strings.TrimSpace(slot.BookingRef) == "" || slot.StartTime.IsZero() {
		return contractx.MeetingConfirmation{}, fmt.Errorf("%w: slot has no booking reference", contractx.ErrScheduling)
	}

	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return contractx.MeetingConfirmation{}, fmt.Errorf("%w: %v", contractx.ErrScheduling, err)
	}

	return contractx.MeetingConfirmation{
		MeetingLink: fmt.Sprintf("%s&invitee=%s", slot.BookingRef, hex.EncodeToString(suffix)),
		MeetingTime: slot.StartTime,
	}, nil
}

func (c *Client) currentUserURI(ctx context.Context) (string, error) {
	var out userResponse
	if err := c.get(ctx, "/users/me", nil, &out); err != nil {
		return "", err
	}
	if out.Resource.URI == "" {
		return "", fmt.Errorf("%w: calendly returned no user uri", contractx.ErrScheduling)
	}
	return out.Resource.URI, nil
}

func (c *Client) activeEventType(ctx context.Context, userURI string) (string, error) {
	query := url.Values{}
	query.Set("user", userURI)
	query.Set("active", "true")
	query.Set("count", "1")

	var out eventTypesResponse
	if err := c.get(ctx, "/event_types", query, &out); err != nil {
		return "", err
	}
	if len(out.Collection) == 0 {
		return "", fmt.Errorf("%w: no active event type on the calendly account", contractx.ErrScheduling)
	}

	et := out.Collection[0]
	if et.SchedulingURL != "" {
		return et.SchedulingURL, nil
	}
	return et.URI, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: build calendly request: %v", contractx.ErrScheduling, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", contractx.ErrScheduling, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return fmt.Errorf("%w: read calendly response: %v", contractx.ErrScheduling, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: calendly http status=%d body=%s", contractx.ErrScheduling, resp.StatusCode, string(raw))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode calendly response: %v", contractx.ErrScheduling, err)
	}
	return nil
}
