package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/parlakisik/event-escrow/internal/model"
	"github.com/shopspring/decimal"
)

const maxAlternatives = 3

type AllocationRequest struct {
	Categories  []model.CategoryWeight `json:"categories"`
	TotalBudget decimal.Decimal        `json:"total_budget"`
	City        string                 `json:"city,omitempty"`
}

// ProposeAllocation splits the budget across categories by weight and
// matches the priciest affordable vendor in each.
func (s *Service) ProposeAllocation(ctx context.Context, actor model.Actor, req AllocationRequest) (model.Proposal, error) {
	return dispatch(ctx, s, "propose allocation", func(ctx context.Context) (model.Proposal, error) {
		if err := requireRole(actor, model.RoleAgent); err != nil {
			return model.Proposal{}, err
		}
		return s.propose(ctx, newID("prop"), req)
	})
}

// ReviseProposal recomputes a proposal from scratch with the changed inputs.
// Omitted inputs fall back to the previous proposal's.
func (s *Service) ReviseProposal(ctx context.Context, actor model.Actor, prev model.Proposal, req AllocationRequest) (model.Proposal, error) {
	return dispatch(ctx, s, "revise proposal", func(ctx context.Context) (model.Proposal, error) {
		if err := requireRole(actor, model.RoleAgent); err != nil {
			return model.Proposal{}, err
		}
		if len(req.Categories) == 0 {
			req.Categories = prev.Categories
		}
		if req.TotalBudget.IsZero() {
			req.TotalBudget = prev.TotalBudget
		}
		if req.City == "" {
			req.City = prev.City
		}
		id := prev.ID
		if id == "" {
			id = newID("prop")
		}
		return s.propose(ctx, id, req)
	})
}

func (s *Service) propose(ctx context.Context, id string, req AllocationRequest) (model.Proposal, error) {
	weights, err := s.resolveWeights(req.Categories)
	if err != nil {
		return model.Proposal{}, err
	}
	if !req.TotalBudget.IsPositive() {
		return model.Proposal{}, fmt.Errorf("%w: total budget must be positive", ErrValidation)
	}

	amounts := splitBudget(req.TotalBudget, weights)
	results := make([]model.CategoryResult, 0, len(weights))
	for i, cw := range weights {
		res, err := s.matchCategory(ctx, cw, amounts[i], req.City)
		if err != nil {
			return model.Proposal{}, err
		}
		results = append(results, res)
	}

	p := model.Proposal{
		ID:          id,
		TotalBudget: req.TotalBudget,
		City:        req.City,
		Categories:  weights,
		Results:     results,
		ComputedAt:  s.now(),
	}
	slog.InfoContext(ctx, "allocation_proposed",
		"proposal_id", p.ID,
		"total_budget", p.TotalBudget.String(),
		"categories", len(weights),
	)
	return p, nil
}

// resolveWeights canonicalizes category names and fills default weights.
func (s *Service) resolveWeights(in []model.CategoryWeight) ([]model.CategoryWeight, error) {
	if len(in) == 0 {
		return nil, fmt.Errorf("%w: select at least one category", ErrValidation)
	}
	seen := make(map[string]bool, len(in))
	out := make([]model.CategoryWeight, 0, len(in))
	for _, cw := range in {
		name := strings.TrimSpace(cw.Category)
		if name == "" {
			return nil, fmt.Errorf("%w: category name is required", ErrValidation)
		}
		canonical, def, known := s.defaultWeight(name)
		if known {
			name = canonical
		}
		key := strings.ToLower(name)
		if seen[key] {
			return nil, fmt.Errorf("%w: category %q selected twice", ErrValidation, name)
		}
		seen[key] = true

		w := cw.Weight
		switch {
		case w < 0:
			return nil, fmt.Errorf("%w: weight for %q must be positive", ErrValidation, name)
		case w == 0 && !known:
			return nil, fmt.Errorf("%w: unknown category %q needs an explicit weight", ErrValidation, name)
		case w == 0:
			w = def
		}
		if w <= 0 {
			return nil, fmt.Errorf("%w: weight for %q must be positive", ErrValidation, name)
		}
		out = append(out, model.CategoryWeight{Category: name, Weight: w})
	}
	return out, nil
}

func (s *Service) defaultWeight(name string) (string, float64, bool) {
	for cat, w := range s.settings.CategoryWeights {
		if strings.EqualFold(cat, name) {
			return cat, w, true
		}
	}
	return "", 0, false
}

// splitBudget rounds each share to cents; the last share takes the
// remainder so the shares always sum to total. A share never exceeds what
// is left, so tiny budgets cannot drive the remainder negative.
func splitBudget(total decimal.Decimal, weights []model.CategoryWeight) []decimal.Decimal {
	sum := decimal.Zero
	for _, cw := range weights {
		sum = sum.Add(decimal.NewFromFloat(cw.Weight))
	}

	out := make([]decimal.Decimal, len(weights))
	remaining := total
	for i, cw := range weights {
		if i == len(weights)-1 {
			out[i] = remaining
			break
		}
		share := decimal.Min(total.Mul(decimal.NewFromFloat(cw.Weight)).Div(sum).Round(2), remaining)
		out[i] = share
		remaining = remaining.Sub(share)
	}
	return out
}

func (s *Service) matchCategory(ctx context.Context, cw model.CategoryWeight, allocated decimal.Decimal, city string) (model.CategoryResult, error) {
	res := model.CategoryResult{
		Category:        cw.Category,
		Weight:          cw.Weight,
		AllocatedAmount: allocated,
		Alternatives:    []model.Vendor{},
	}

	vendors, err := s.vendors.LookupVendors(ctx, cw.Category, city)
	if err != nil {
		return model.CategoryResult{}, remoteErr("lookup vendors", err)
	}
	candidates := affordable(vendors, cw.Category, allocated)
	if len(candidates) == 0 {
		res.Warning = fmt.Sprintf("no %s vendor fits a budget of %s", cw.Category, allocated.StringFixed(2))
		return res, nil
	}

	match := candidates[0].vendor
	res.Match = &match
	for _, c := range candidates[1:min(len(candidates), maxAlternatives+1)] {
		res.Alternatives = append(res.Alternatives, c.vendor)
	}
	res.IsPadded = allocated.GreaterThan(s.settings.PaddingThreshold.Mul(candidates[0].price))
	return res, nil
}

type priced struct {
	vendor model.Vendor
	price  decimal.Decimal
}

// affordable keeps recommendable vendors of the category priced within
// budget, most expensive first, then best rated, then by name.
func affordable(vendors []model.Vendor, category string, budget decimal.Decimal) []priced {
	var out []priced
	for _, v := range vendors {
		if v.Role != "" && !strings.EqualFold(v.Role, string(model.RoleVendor)) {
			continue
		}
		if !strings.EqualFold(v.Category, category) || !v.Recommendable() {
			continue
		}
		price, err := decimal.NewFromString(v.StartingPrice)
		if err != nil {
			slog.Warn("vendor has invalid starting price", "vendor_id", v.ID, "value", v.StartingPrice)
			continue
		}
		if price.GreaterThan(budget) {
			continue
		}
		out = append(out, priced{vendor: v, price: price})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].price.Equal(out[j].price) {
			return out[i].price.GreaterThan(out[j].price)
		}
		if out[i].vendor.Rating != out[j].vendor.Rating {
			return out[i].vendor.Rating > out[j].vendor.Rating
		}
		return out[i].vendor.Name < out[j].vendor.Name
	})
	return out
}
