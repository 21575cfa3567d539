package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/parlakisik/event-escrow/internal/model"
)

// LoadVendors saves every vendor from a JSON array and returns the count.
// Existing records with the same id are replaced.
func LoadVendors(ctx context.Context, st VendorStore, r io.Reader) (int, error) {
	var vendors []model.Vendor
	if err := json.NewDecoder(r).Decode(&vendors); err != nil {
		return 0, fmt.Errorf("decode vendor seed: %w", err)
	}
	for i, v := range vendors {
		if v.ID == "" || v.Name == "" {
			return i, fmt.Errorf("vendor seed entry %d: id and name are required", i)
		}
		if err := st.SaveVendor(ctx, v); err != nil {
			return i, fmt.Errorf("save vendor %s: %w", v.ID, err)
		}
	}
	return len(vendors), nil
}
