package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/marketbay/marketd/internal/ports"
)

var log = logrus.WithField("component", "gateway")

// Client talks to the asset custody service over HTTP. The custody
// service is the authority on ownership: it enforces the expected-owner
// check itself and rejects the transfer otherwise.
type Client struct {
	client *resty.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	baseURL = strings.TrimSuffix(baseURL, "/")
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second)
	return &Client{client: client}
}

type transferRequest struct {
	AssetID       string `json:"asset_id"`
	Recipient     string `json:"recipient"`
	ExpectedOwner string `json:"expected_owner"`
	Memo          string `json:"memo"`
}

type transferResponse struct {
	Transferred bool   `json:"transferred"`
	Reason      string `json:"reason"`
}

// AttemptTransfer posts the transfer to the custody service for the
// asset's service id. Transport errors, timeouts and non-2xx responses
// all come back as failed outcomes so settlement can compensate.
func (c *Client) AttemptTransfer(ctx context.Context, req ports.TransferRequest) (ports.TransferOutcome, error) {
	var out transferResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(transferRequest{
			AssetID:       req.AssetID,
			Recipient:     req.Recipient,
			ExpectedOwner: req.ExpectedOwner,
			Memo:          req.Memo,
		}).
		SetResult(&out).
		Post(fmt.Sprintf("/services/%s/transfers", req.ServiceID))
	if err != nil {
		return ports.TransferOutcome{Transferred: false, Reason: "gateway unreachable"},
			errors.Wrap(err, "gateway: transfer request")
	}
	if resp.IsError() {
		reason := fmt.Sprintf("gateway returned %d", resp.StatusCode())
		log.WithField("status", resp.StatusCode()).Warn("transfer rejected by gateway")
		return ports.TransferOutcome{Transferred: false, Reason: reason}, nil
	}
	if !out.Transferred && out.Reason == "" {
		out.Reason = "transfer rejected"
	}
	return ports.TransferOutcome{Transferred: out.Transferred, Reason: out.Reason}, nil
}
