package twilio

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	apperrors "github.com/acme/bulk-caller/pkg/errors"
)

type fakeLister struct {
	numbers []string
	err     error
	filter  string
}

func (f *fakeLister) ListIncomingPhoneNumber(params *openapi.ListIncomingPhoneNumberParams) ([]openapi.ApiV2010IncomingPhoneNumber, error) {
	if params.PhoneNumber != nil {
		f.filter = *params.PhoneNumber
	}
	if f.err != nil {
		return nil, f.err
	}
	out := make([]openapi.ApiV2010IncomingPhoneNumber, 0, len(f.numbers))
	for _, n := range f.numbers {
		n := n
		out = append(out, openapi.ApiV2010IncomingPhoneNumber{PhoneNumber: &n})
	}
	return out, nil
}

func TestVerifyFindsNumber(t *testing.T) {
	api := &fakeLister{numbers: []string{"+15550001111"}}
	v := NewVerifierWithAPI(api, "+15550001111")

	require.NoError(t, v.Verify(context.Background()))
	assert.Equal(t, "+15550001111", api.filter)
}

func TestVerifyMissingNumber(t *testing.T) {
	v := NewVerifierWithAPI(&fakeLister{numbers: []string{"+15559990000"}}, "+15550001111")

	err := v.Verify(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestVerifyAPIError(t *testing.T) {
	boom := errors.New("authenticate: 401")
	v := NewVerifierWithAPI(&fakeLister{err: boom}, "+15550001111")

	err := v.Verify(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
}

func TestVerifyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	v := NewVerifierWithAPI(&fakeLister{}, "+15550001111")
	assert.ErrorIs(t, v.Verify(ctx), context.Canceled)
}
