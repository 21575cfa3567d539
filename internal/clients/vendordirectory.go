package clients

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/parlakisik/event-escrow/internal/httpclient"
	"github.com/parlakisik/event-escrow/internal/model"
)

// VendorDirectoryClient reads vendor records from the remote directory.
type VendorDirectoryClient struct {
	http *httpclient.Client
}

func NewVendorDirectoryClient(baseURL string, timeout time.Duration, auth httpclient.AuthProvider) *VendorDirectoryClient {
	return &VendorDirectoryClient{http: httpclient.New("vendor-directory", baseURL, timeout, auth)}
}

func (c *VendorDirectoryClient) LookupVendors(ctx context.Context, category, city string) ([]model.Vendor, error) {
	var out struct {
		Vendors []model.Vendor `json:"vendors"`
	}
	q := url.Values{"category": {category}, "city": {city}}
	if err := c.http.GetJSON(ctx, "/v1/vendors", q, &out); err != nil {
		return nil, fmt.Errorf("lookup vendors: %w", err)
	}
	return out.Vendors, nil
}
