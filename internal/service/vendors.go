package service

import (
	"context"
	"sort"

	"github.com/parlakisik/event-escrow/internal/model"
)

const topPicksLimit = 5

// SearchVendors is the raw directory listing, banned vendors included.
func (s *Service) SearchVendors(ctx context.Context, category, city string) ([]model.Vendor, error) {
	return dispatch(ctx, s, "search vendors", func(ctx context.Context) ([]model.Vendor, error) {
		out, err := s.vendors.LookupVendors(ctx, category, city)
		if err != nil {
			return nil, remoteErr("lookup vendors", err)
		}
		return out, nil
	})
}

// TopPicks recommends the best rated clean-record vendors of a category,
// cheapest first among equals.
func (s *Service) TopPicks(ctx context.Context, category, city string) ([]model.Vendor, error) {
	return dispatch(ctx, s, "top picks", func(ctx context.Context) ([]model.Vendor, error) {
		all, err := s.vendors.LookupVendors(ctx, category, city)
		if err != nil {
			return nil, remoteErr("lookup vendors", err)
		}

		picks := make([]model.Vendor, 0, len(all))
		for _, v := range all {
			if v.Recommendable() {
				picks = append(picks, v)
			}
		}
		sort.SliceStable(picks, func(i, j int) bool {
			if picks[i].Rating != picks[j].Rating {
				return picks[i].Rating > picks[j].Rating
			}
			pi, pj := amount(picks[i].StartingPrice), amount(picks[j].StartingPrice)
			if !pi.Equal(pj) {
				return pi.LessThan(pj)
			}
			return picks[i].Name < picks[j].Name
		})
		if len(picks) > topPicksLimit {
			picks = picks[:topPicksLimit]
		}
		return picks, nil
	})
}
