// Package twilio checks the telephony account the assistant dials out from.
package twilio

import (
	"context"
	"fmt"

	twilioclient "github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/acme/bulk-caller/internal/config"
	apperrors "github.com/acme/bulk-caller/pkg/errors"
)

// NumberLister is the subset of the Twilio REST API the verifier needs.
type NumberLister interface {
	ListIncomingPhoneNumber(params *openapi.ListIncomingPhoneNumberParams) ([]openapi.ApiV2010IncomingPhoneNumber, error)
}

// Verifier confirms the configured origin number is owned by the configured
// account before any batch is accepted.
type Verifier struct {
	api    NumberLister
	number string
}

// NewVerifier builds a verifier backed by the Twilio REST client.
func NewVerifier(cfg config.TwilioConfig) *Verifier {
	client := twilioclient.NewRestClientWithParams(twilioclient.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return NewVerifierWithAPI(client.Api, cfg.PhoneNumber)
}

// NewVerifierWithAPI builds a verifier around any NumberLister.
func NewVerifierWithAPI(api NumberLister, number string) *Verifier {
	return &Verifier{api: api, number: number}
}

// Verify returns nil when the origin number is listed on the account.
func (v *Verifier) Verify(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &openapi.ListIncomingPhoneNumberParams{}
	params.SetPhoneNumber(v.number)
	params.SetLimit(20)

	numbers, err := v.api.ListIncomingPhoneNumber(params)
	if err != nil {
		return apperrors.Wrap(err, "twilio preflight: list incoming numbers")
	}

	for _, n := range numbers {
		if n.PhoneNumber != nil && *n.PhoneNumber == v.number {
			return nil
		}
	}
	return fmt.Errorf("%w: twilio preflight: %s is not an incoming number on this account", apperrors.ErrNotFound, v.number)
}
