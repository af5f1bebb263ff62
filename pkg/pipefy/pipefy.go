// Package pipefy implements the CRM collaborator on the Pipefy GraphQL API:
// card creation for new leads and the meeting-info update after booking.
package pipefy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/verzel/sdr-agent/agent/contract"
)

const maxResponseSizeBytes = 2 << 20

type Config struct {
	URL     string        `envconfig:"URL" split_words:"true" default:"https://api.pipefy.com/graphql"`
	APIKey  string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	PipeID  string        `envconfig:"PIPE_ID" split_words:"true" required:"true"`
	PhaseID string        `envconfig:"PHASE_ID" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"15s"`

	// Custom field ids of the lead pipe.
	FieldName        string `envconfig:"FIELD_NAME" split_words:"true" required:"true"`
	FieldEmail       string `envconfig:"FIELD_EMAIL" split_words:"true" required:"true"`
	FieldCompany     string `envconfig:"FIELD_COMPANY" split_words:"true" required:"true"`
	FieldNeed        string `envconfig:"FIELD_NEED" split_words:"true" required:"true"`
	FieldInterest    string `envconfig:"FIELD_INTEREST" split_words:"true" required:"true"`
	FieldMeetingLink string `envconfig:"FIELD_MEETING_LINK" split_words:"true" required:"true"`
	FieldMeetingTime string `envconfig:"FIELD_MEETING_TIME" split_words:"true" required:"true"`
}

// Option customizes the Client.
type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// Client implements contract.CRM.
type Client struct {
	endpoint   string
	token      string
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config, opts ...Option) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.URL)
	if endpoint == "" {
		return nil, errors.New("pipefy graphql url is required")
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("invalid pipefy url: %w", err)
	}
	token := strings.TrimSpace(cfg.APIKey)
	if token == "" {
		return nil, errors.New("pipefy api key is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	c := &Client{
		endpoint: endpoint,
		token:    token,
		cfg:      cfg,
		httpClient: &http.Client{
			Timeout: timeout,
		},
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

const createCardMutation = `mutation createLeadCard($input: CardInput!) {
  createCard(input: $input) {
    card { id title url }
  }
}`

const updateFieldsMutation = `mutation updateMeetingFields($input: UpdateFieldsValuesInput!) {
  updateFieldsValues(input: $input) {
    success
  }
}`

type fieldAttribute struct {
	FieldID    string `json:"field_id"`
	FieldValue string `json:"field_value"`
}

type createCardData struct {
	CreateCard struct {
		Card struct {
			ID    string `json:"id"`
			Title string `json:"title"`
			URL   string `json:"url"`
		} `json:"card"`
	} `json:"createCard"`
}

type updateFieldsData struct {
	UpdateFieldsValues struct {
		Success bool `json:"success"`
	} `json:"updateFieldsValues"`
}

// CreateCard creates a lead card on the configured pipe and phase. It is
// called for every recognized trigger, complete or not.
func (c *Client) CreateCard(ctx context.Context, lead contractx.Lead) (contractx.CardRef, error) {
	input := map[string]any{
		"pipe_id":  c.cfg.PipeID,
		"phase_id": c.cfg.PhaseID,
		"fields_attributes": []fieldAttribute{
			{FieldID: c.cfg.FieldName, FieldValue: lead.Name},
			{FieldID: c.cfg.FieldEmail, FieldValue: lead.Email},
			{FieldID: c.cfg.FieldCompany, FieldValue: lead.Company},
			{FieldID: c.cfg.FieldNeed, FieldValue: lead.Need},
			{FieldID: c.cfg.FieldInterest, FieldValue: strconv.FormatBool(lead.InterestConfirmed)},
		},
	}

	var data createCardData
	if err := c.exec(ctx, createCardMutation, map[string]any{"input": input}, &data); err != nil {
		return contractx.CardRef{}, err
	}

	card := data.CreateCard.Card
	if card.ID == "" {
		return contractx.CardRef{}, fmt.Errorf("%w: createCard returned no card", contractx.ErrCRM)
	}
	log.Debug().Str("card_id", card.ID).Msg("pipefy card created")

	return contractx.CardRef{ID: card.ID, URL: card.URL}, nil
}

// UpdateCardMeeting writes the meeting link and time onto an existing card.
func (c *Client) UpdateCardMeeting(ctx context.Context, cardID string, conf contractx.MeetingConfirmation) error {
	if strings.TrimSpace(cardID) == "" {
		return fmt.Errorf("%w: card id is empty", contractx.ErrCRM)
	}

	input := map[string]any{
		"nodeId": cardID,
		"values": []map[string]string{
			{"fieldId": c.cfg.FieldMeetingLink, "value": conf.MeetingLink},
			{"fieldId": c.cfg.FieldMeetingTime, "value": conf.MeetingTime.UTC().Format(time.RFC3339)},
		},
	}

	var data updateFieldsData
	if err := c.exec(ctx, updateFieldsMutation, map[string]any{"input": input}, &data); err != nil {
		return err
	}
	if !data.UpdateFieldsValues.Success {
		return fmt.Errorf("%w: updateFieldsValues reported success=false for card %s", contractx.ErrCRM, cardID)
	}
	return nil
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors"`
}

type gqlError struct {
	Message string `json:"message"`
}

func (c *Client) exec(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(gqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("%w: marshal graphql request: %v", contractx.ErrCRM, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build graphql request: %v", contractx.ErrCRM, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", contractx.ErrCRM, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return fmt.Errorf("%w: read graphql response: %v", contractx.ErrCRM, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: pipefy http status=%d body=%s", contractx.ErrCRM, resp.StatusCode, string(raw))
	}

	var parsed gqlResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("%w: decode graphql response: %v", contractx.ErrCRM, err)
	}
	if len(parsed.Errors) > 0 {
		return fmt.Errorf("%w: %s", contractx.ErrCRM, parsed.Errors[0].Message)
	}
	if out != nil && len(parsed.Data) > 0 {
		if err := json.Unmarshal(parsed.Data, out); err != nil {
			return fmt.Errorf("%w: decode graphql data: %v", contractx.ErrCRM, err)
		}
	}
	return nil
}
