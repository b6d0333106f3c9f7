// File: internal/infra/adapters/checkout/gopay_gateway.go
package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"telegram-offer-relay/internal/domain/ports/adapter"
)

var _ adapter.CheckoutGateway = (*GopayGateway)(nil)

// GopayGateway forwards confirmed purchases to the external checkout endpoint.
type GopayGateway struct {
	baseURL string
	client  *http.Client
}

func NewGopayGateway(baseURL string) (*GopayGateway, error) {
	if baseURL == "" {
		return nil, errors.New("checkout base url empty")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid checkout base url: %w", err)
	}
	return &GopayGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// Forward POSTs {email, paymentData, purchaseCode} to /checkout with the
// buyer's locale in the Accept-Language header.
func (g *GopayGateway) Forward(ctx context.Context, req adapter.CheckoutRequest) error {
	b, err := json.Marshal(req)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/checkout", bytes.NewReader(b))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if req.Lang != "" {
		httpReq.Header.Set("Accept-Language", req.Lang)
	}
	resp, err := g.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("checkout http %d", resp.StatusCode)
	}
	return nil
}
