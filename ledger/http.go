package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"example.com/shipchain/services/shipment/config"
)

// HTTPClient talks to the wallet-signing ledger gateway over HTTP. The
// gateway holds the signing capability; this service never sees keys.
type HTTPClient struct {
	baseURL       string
	httpClient    *http.Client
	submitTimeout time.Duration
	queryTimeout  time.Duration
}

// NewHTTPClient creates a ledger client from configuration.
func NewHTTPClient(cfg config.Config) (*HTTPClient, error) {
	if cfg.LedgerGatewayURL == "" {
		return nil, fmt.Errorf("ledger gateway URL is required")
	}
	if _, err := url.Parse(cfg.LedgerGatewayURL); err != nil {
		return nil, fmt.Errorf("invalid ledger gateway URL: %w", err)
	}

	return &HTTPClient{
		baseURL: cfg.LedgerGatewayURL,
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
			},
		},
		submitTimeout: cfg.LedgerSubmitTimeout,
		queryTimeout:  cfg.LedgerQueryTimeout,
	}, nil
}

type gatewayError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SubmitLock submits the signed state-locking transaction and blocks
// until the gateway reports inclusion.
func (c *HTTPClient) SubmitLock(ctx context.Context, req LockRequest) (*Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, c.submitTimeout)
	defer cancel()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal lock request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/locks", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build lock request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		log.Warn().Err(err).Str("shipmentHash", req.ShipmentHash).Msg("Ledger submit failed")
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		var receipt Receipt
		if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
			return nil, fmt.Errorf("failed to decode lock receipt: %w", err)
		}
		return &receipt, nil
	case http.StatusConflict:
		return nil, ErrDuplicateLock
	case http.StatusForbidden:
		// The gateway reports a wallet-holder decline as forbidden.
		return nil, ErrSigningDeclined
	case http.StatusBadRequest:
		return nil, fmt.Errorf("ledger rejected lock parameters: %s", readGatewayError(resp.Body))
	default:
		return nil, fmt.Errorf("%w: gateway returned %d", ErrUnavailable, resp.StatusCode)
	}
}

// Exists checks whether the ledger already holds a record for the
// shipment hash. The ledger, not the off-chain store, is the source of
// truth for duplicate detection.
func (c *HTTPClient) Exists(ctx context.Context, shipmentHash string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/v1/locks/"+url.PathEscape(shipmentHash), nil)
	if err != nil {
		return false, fmt.Errorf("failed to build exists request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("%w: gateway returned %d", ErrUnavailable, resp.StatusCode)
	}
}

// GetRecord fetches the on-chain record for a shipment hash.
func (c *HTTPClient) GetRecord(ctx context.Context, shipmentHash string) (*Record, error) {
	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/locks/"+url.PathEscape(shipmentHash), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build record request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var record Record
		if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
			return nil, fmt.Errorf("failed to decode ledger record: %w", err)
		}
		return &record, nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("%w: gateway returned %d", ErrUnavailable, resp.StatusCode)
	}
}

func readGatewayError(r io.Reader) string {
	var ge gatewayError
	if err := json.NewDecoder(r).Decode(&ge); err != nil {
		return "unparseable gateway error"
	}
	return ge.Message
}
