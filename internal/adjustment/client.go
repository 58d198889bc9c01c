package adjustment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Wire constants for the stock-adjustment API.
const (
	callIncludeStockAdjustment = "IncludeStockAdjustment"
	originAdjustment           = "ADJ"
	movementExit               = "EXIT"
	reasonInventory            = "INV"

	// DateLayout is the day/month/year format the API and the receipt
	// share.
	DateLayout = "02/01/2006"

	requestTimeout = 10 * time.Second
)

// Client calls the external inventory system to decrement stock.
// One request is issued per committed line; the committer decides what
// to do with failures.
type Client struct {
	url        string
	appKey     string
	appSecret  string
	httpClient *http.Client
}

// NewClient creates a stock-adjustment client for the given endpoint.
func NewClient(url, appKey, appSecret string) *Client {
	return &Client{
		url:        url,
		appKey:     appKey,
		appSecret:  appSecret,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// --- Request / Response types ---

type adjustmentRequest struct {
	Call      string            `json:"call"`
	AppKey    string            `json:"app_key"`
	AppSecret string            `json:"app_secret"`
	Params    []adjustmentParam `json:"param"`
}

type adjustmentParam struct {
	LocationCode int    `json:"location_code"`
	ItemCode     int    `json:"item_code"`
	Date         string `json:"date"`
	Quantity     string `json:"quantity"`
	Note         string `json:"note"`
	Origin       string `json:"origin"`
	MovementType string `json:"movement_type"`
	Reason       string `json:"reason"`
}

type faultResponse struct {
	FaultCode   string `json:"faultcode"`
	FaultString string `json:"faultstring"`
}

// Adjust posts one exit movement for an item. It returns nil on a 200
// response without a fault marker. Fault responses, non-200 statuses
// and transport errors (timeouts included) all come back as plain
// errors for the caller to record.
func (c *Client) Adjust(ctx context.Context, itemCode, quantity int, date time.Time, note string) error {
	body, err := json.Marshal(adjustmentRequest{
		Call:      callIncludeStockAdjustment,
		AppKey:    c.appKey,
		AppSecret: c.appSecret,
		Params: []adjustmentParam{{
			LocationCode: 0,
			ItemCode:     itemCode,
			Date:         date.Format(DateLayout),
			Quantity:     fmt.Sprintf("%d", quantity),
			Note:         note,
			Origin:       originAdjustment,
			MovementType: movementExit,
			Reason:       reasonInventory,
		}},
	})
	if err != nil {
		return fmt.Errorf("marshal adjustment request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build adjustment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call adjustment API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("adjustment API returned HTTP %d", resp.StatusCode)
	}

	// Any 200 body without a fault marker is a success, whatever else
	// it contains.
	var fault faultResponse
	if err := json.NewDecoder(resp.Body).Decode(&fault); err != nil {
		return nil
	}
	if fault.FaultCode != "" {
		msg := fault.FaultString
		if msg == "" {
			msg = fault.FaultCode
		}
		return fmt.Errorf("adjustment API fault: %s", msg)
	}
	return nil
}
