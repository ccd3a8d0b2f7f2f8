// Package vapi places outbound calls through the Vapi REST API.
package vapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/acme/bulk-caller/internal/config"
	"github.com/acme/bulk-caller/internal/domain"
)

// maxErrorBodyBytes bounds how much of a failed response is kept. Success
// bodies are always read in full.
const maxErrorBodyBytes = 1 << 20

const truncatedMarker = "...(truncated)"

// Client submits call-placement requests.
type Client struct {
	endpoint    string
	apiKey      string
	assistantID string
	twilio      phoneNumber
	http        *http.Client
}

type callRequest struct {
	AssistantID        string             `json:"assistantId"`
	Customer           customer           `json:"customer"`
	PhoneNumber        phoneNumber        `json:"phoneNumber"`
	AssistantOverrides assistantOverrides `json:"assistantOverrides"`
}

type customer struct {
	Number string `json:"number"`
}

type phoneNumber struct {
	TwilioAccountSID  string `json:"twilioAccountSid"`
	TwilioAuthToken   string `json:"twilioAuthToken"`
	TwilioPhoneNumber string `json:"twilioPhoneNumber"`
}

type assistantOverrides struct {
	FirstMessage string `json:"firstMessage"`
}

// NewClient builds a client from the Vapi and Twilio credentials.
func NewClient(vcfg config.VapiConfig, tcfg config.TwilioConfig) *Client {
	timeout := vcfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return NewClientWithHTTP(vcfg, tcfg, &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     90 * time.Second,
		},
	})
}

// NewClientWithHTTP builds a client around a caller-supplied http.Client.
func NewClientWithHTTP(vcfg config.VapiConfig, tcfg config.TwilioConfig, httpClient *http.Client) *Client {
	return &Client{
		endpoint:    strings.TrimRight(vcfg.BaseURL, "/") + "/call",
		apiKey:      vcfg.APIKey,
		assistantID: vcfg.AssistantID,
		twilio: phoneNumber{
			TwilioAccountSID:  tcfg.AccountSID,
			TwilioAuthToken:   tcfg.AuthToken,
			TwilioPhoneNumber: tcfg.PhoneNumber,
		},
		http: httpClient,
	}
}

// PlaceCall posts one call request. 200 and 201 are the only success codes.
func (c *Client) PlaceCall(ctx context.Context, req domain.CallRequest) domain.Outcome {
	payload, err := json.Marshal(callRequest{
		AssistantID:        c.assistantID,
		Customer:           customer{Number: req.Number},
		PhoneNumber:        c.twilio,
		AssistantOverrides: assistantOverrides{FirstMessage: req.FirstMessage},
	})
	if err != nil {
		return domain.Failed(domain.NewTransportError(fmt.Errorf("encode request: %w", err)))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return domain.Failed(domain.NewTransportError(err))
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return domain.Failed(domain.NewTransportError(err))
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return domain.Failed(domain.NewTransportError(fmt.Errorf("read response: %w", err)))
		}
		if !json.Valid(body) {
			return domain.Failed(domain.NewTransportError(errors.New("decode response: body is not valid JSON")))
		}
		return domain.Succeeded(json.RawMessage(body))
	default:
		body, err := readErrorBody(resp.Body)
		if err != nil {
			return domain.Failed(domain.NewTransportError(fmt.Errorf("read response: %w", err)))
		}
		return domain.Failed(domain.NewServiceError(resp.StatusCode, body))
	}
}

// readErrorBody reads up to maxErrorBodyBytes and marks the text when the
// body was longer.
func readErrorBody(r io.Reader) (string, error) {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodyBytes+1))
	if err != nil {
		return "", err
	}
	if len(body) > maxErrorBodyBytes {
		return string(body[:maxErrorBodyBytes]) + truncatedMarker, nil
	}
	return string(body), nil
}
