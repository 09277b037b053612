package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/turtacn/KeyIP-CostEngine/pkg/errors"
)

// Calculate runs and stores a full calculation. email, when non-empty, is
// recorded with it. The request is never retried on server errors.
func (c *Client) Calculate(ctx context.Context, in CalculationInput, email string) (*Calculation, error) {
	var out Calculation
	req := calculateRequest{CalculationInput: in, Email: strings.TrimSpace(email)}
	if err := c.do(ctx, http.MethodPost, "/calculations", req, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// Preview runs the free preview. Nothing is stored, so it is retried like a
// read.
func (c *Client) Preview(ctx context.Context, in CalculationInput) (*Preview, error) {
	var out Preview
	if err := c.do(ctx, http.MethodPost, "/previews", in, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCalculation fetches a stored calculation.
func (c *Client) GetCalculation(ctx context.Context, id string) (*Calculation, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.InvalidParam("calculation id is required")
	}
	var out Calculation
	if err := c.do(ctx, http.MethodGet, "/calculations/"+url.PathEscape(id), nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCalculation patches the email or status of a stored calculation.
func (c *Client) UpdateCalculation(ctx context.Context, id string, upd CalculationUpdate) (*Calculation, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.InvalidParam("calculation id is required")
	}
	var out Calculation
	if err := c.do(ctx, http.MethodPatch, "/calculations/"+url.PathEscape(id), upd, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListFees returns the fee records in force for one office. An empty ipType
// means patent.
func (c *Client) ListFees(ctx context.Context, jurisdiction, ipType string) ([]FeeRecord, error) {
	if strings.TrimSpace(jurisdiction) == "" {
		return nil, errors.InvalidParam("jurisdiction is required")
	}
	q := url.Values{"jurisdiction": {jurisdiction}}
	if ipType != "" {
		q.Set("ip_type", ipType)
	}
	var out feeListResponse
	if err := c.do(ctx, http.MethodGet, "/fees?"+q.Encode(), nil, &out, true); err != nil {
		return nil, err
	}
	return out.Fees, nil
}

// Jurisdictions lists the supported offices.
func (c *Client) Jurisdictions(ctx context.Context) ([]Jurisdiction, error) {
	var out jurisdictionListResponse
	if err := c.do(ctx, http.MethodGet, "/jurisdictions", nil, &out, true); err != nil {
		return nil, err
	}
	return out.Jurisdictions, nil
}

//Personal.AI order the ending
