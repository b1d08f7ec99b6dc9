package utils

import (
	"github.com/lakecrest/podstay-backend/internal/models"
	"github.com/shopspring/decimal"
)

// PriceLineItem is one row of the computed breakdown
type PriceLineItem struct {
	Label     string          `json:"label"`
	Qty       int             `json:"qty"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Total     decimal.Decimal `json:"total"`
}

// PriceResult contains the calculated total and breakdown
type PriceResult struct {
	Breakdown   []PriceLineItem `json:"breakdown"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	ExtrasTotal decimal.Decimal `json:"extrasTotal"`
	Total       decimal.Decimal `json:"total"`
}

// GuestCounts is the guest composition at booking time
type GuestCounts struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
	Toddlers int `json:"toddlers"`
	Infants  int `json:"infants"`
}

// ExtraSelection is one chosen extra with its own unit price
type ExtraSelection struct {
	ExtraID   uint            `json:"id"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// PriceInput bundles everything CalculatePrice needs
type PriceInput struct {
	Pod        *models.Pod
	BoardType  models.BoardType
	Guests     GuestCounts
	PopUpBeds  int
	Extras     []ExtraSelection
	PriceRules []models.PodPriceRule
}

var (
	halfBoardMultiplier = decimal.NewFromFloat(0.9)
	hundred             = decimal.NewFromInt(100)
	defaultChildPct     = decimal.NewFromInt(75)
	defaultToddlerPct   = decimal.NewFromInt(50)
)

// CalculatePrice computes the priced breakdown for a stay. Pure function:
// no I/O, deterministic for a given input. Discounts and vouchers are not
// applied here; the returned total is the pre-discount amount.
func CalculatePrice(in PriceInput) PriceResult {
	adultRate := decimal.Zero
	if in.Pod != nil {
		adultRate = in.Pod.BaseAdultPrice
	}

	// Base rate assumes full board; half board reduces by 10%.
	boardMultiplier := decimal.NewFromInt(1)
	if in.BoardType == models.BoardTypeHalf {
		boardMultiplier = halfBoardMultiplier
	}

	rules := map[string]decimal.Decimal{}
	for _, r := range in.PriceRules {
		rules[r.GuestType] = r.PricePercentage
	}

	var breakdown []PriceLineItem
	subtotal := decimal.Zero

	adultUnit := adultRate.Mul(boardMultiplier).Round(2)
	if in.Guests.Adults > 0 {
		total := adultUnit.Mul(decimal.NewFromInt(int64(in.Guests.Adults)))
		breakdown = append(breakdown, PriceLineItem{
			Label:     "Adult (per person)",
			Qty:       in.Guests.Adults,
			UnitPrice: adultUnit,
			Total:     total,
		})
		subtotal = subtotal.Add(total)
	}

	childPct := defaultChildPct
	if pct, ok := rules["child"]; ok {
		childPct = pct
	}
	if in.Guests.Children > 0 {
		childUnit := adultUnit.Mul(childPct.Div(hundred)).Round(2)
		total := childUnit.Mul(decimal.NewFromInt(int64(in.Guests.Children)))
		breakdown = append(breakdown, PriceLineItem{
			Label:     "Child (per person)",
			Qty:       in.Guests.Children,
			UnitPrice: childUnit,
			Total:     total,
		})
		subtotal = subtotal.Add(total)
	}

	toddlerPct := defaultToddlerPct
	if pct, ok := rules["toddler"]; ok {
		toddlerPct = pct
	}
	if in.Guests.Toddlers > 0 {
		toddlerUnit := adultUnit.Mul(toddlerPct.Div(hundred)).Round(2)
		total := toddlerUnit.Mul(decimal.NewFromInt(int64(in.Guests.Toddlers)))
		breakdown = append(breakdown, PriceLineItem{
			Label:     "Toddler (per person)",
			Qty:       in.Guests.Toddlers,
			UnitPrice: toddlerUnit,
			Total:     total,
		})
		subtotal = subtotal.Add(total)
	}

	// Infants stay free regardless of price rules, but are listed.
	if in.Guests.Infants > 0 {
		breakdown = append(breakdown, PriceLineItem{
			Label:     "Infant (per person)",
			Qty:       in.Guests.Infants,
			UnitPrice: decimal.Zero,
			Total:     decimal.Zero,
		})
	}

	// Pop-up beds are charged at the full adult unit.
	if in.PopUpBeds > 0 {
		total := adultUnit.Mul(decimal.NewFromInt(int64(in.PopUpBeds)))
		breakdown = append(breakdown, PriceLineItem{
			Label:     "Pop-up bed (per night)",
			Qty:       in.PopUpBeds,
			UnitPrice: adultUnit,
			Total:     total,
		})
		subtotal = subtotal.Add(total)
	}

	extrasTotal := decimal.Zero
	for _, e := range in.Extras {
		qty := e.Quantity
		if qty <= 0 {
			qty = 1
		}
		extrasTotal = extrasTotal.Add(e.Price.Mul(decimal.NewFromInt(int64(qty))))
	}

	return PriceResult{
		Breakdown:   breakdown,
		Subtotal:    subtotal,
		ExtrasTotal: extrasTotal,
		Total:       subtotal.Add(extrasTotal),
	}
}
