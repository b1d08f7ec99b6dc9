package utils

import (
	"testing"

	"github.com/lakecrest/podstay-backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPod(baseAdult int64) *models.Pod {
	return &models.Pod{
		PodName:        "Forest Pod",
		BaseAdultPrice: decimal.NewFromInt(baseAdult),
		MaxAdults:      4,
	}
}

func TestCalculatePriceAdultsOnly(t *testing.T) {
	pod := testPod(250000)

	result := CalculatePrice(PriceInput{
		Pod:       pod,
		BoardType: models.BoardTypeFull,
		Guests:    GuestCounts{Adults: 2},
	})

	assert.True(t, result.Total.Equal(decimal.NewFromInt(500000)),
		"expected 500000, got %s", result.Total)
	assert.True(t, result.Subtotal.Equal(result.Total))
	require.Len(t, result.Breakdown, 1)
	assert.Equal(t, "Adult (per person)", result.Breakdown[0].Label)
	assert.Equal(t, 2, result.Breakdown[0].Qty)
}

func TestCalculatePriceHalfBoard(t *testing.T) {
	pod := testPod(100000)

	result := CalculatePrice(PriceInput{
		Pod:       pod,
		BoardType: models.BoardTypeHalf,
		Guests:    GuestCounts{Adults: 1},
	})

	assert.True(t, result.Total.Equal(decimal.NewFromInt(90000)),
		"half board should be 90%% of the adult rate, got %s", result.Total)
}

func TestCalculatePriceDefaultChildAndToddlerRates(t *testing.T) {
	pod := testPod(1000)

	result := CalculatePrice(PriceInput{
		Pod:       pod,
		BoardType: models.BoardTypeFull,
		Guests:    GuestCounts{Adults: 1, Children: 1, Toddlers: 1},
	})

	// 1000 + 750 + 500
	assert.True(t, result.Total.Equal(decimal.NewFromInt(2250)), "got %s", result.Total)
}

func TestCalculatePricePodRulesOverrideDefaults(t *testing.T) {
	pod := testPod(1000)
	rules := []models.PodPriceRule{
		{GuestType: "child", PricePercentage: decimal.NewFromInt(50)},
		{GuestType: "toddler", PricePercentage: decimal.NewFromInt(25)},
	}

	result := CalculatePrice(PriceInput{
		Pod:        pod,
		BoardType:  models.BoardTypeFull,
		Guests:     GuestCounts{Adults: 1, Children: 2, Toddlers: 1},
		PriceRules: rules,
	})

	// 1000 + 2x500 + 250
	assert.True(t, result.Total.Equal(decimal.NewFromInt(2250)), "got %s", result.Total)
}

func TestCalculatePriceInfantsAreFreeButListed(t *testing.T) {
	pod := testPod(1000)

	withInfants := CalculatePrice(PriceInput{
		Pod:       pod,
		BoardType: models.BoardTypeFull,
		Guests:    GuestCounts{Adults: 2, Infants: 3},
	})
	withoutInfants := CalculatePrice(PriceInput{
		Pod:       pod,
		BoardType: models.BoardTypeFull,
		Guests:    GuestCounts{Adults: 2},
	})

	assert.True(t, withInfants.Subtotal.Equal(withoutInfants.Subtotal),
		"infants must never affect the subtotal")

	var infantLine *PriceLineItem
	for i := range withInfants.Breakdown {
		if withInfants.Breakdown[i].Label == "Infant (per person)" {
			infantLine = &withInfants.Breakdown[i]
		}
	}
	require.NotNil(t, infantLine, "infants should appear in the breakdown")
	assert.Equal(t, 3, infantLine.Qty)
	assert.True(t, infantLine.Total.IsZero())
}

func TestCalculatePricePopUpBedsAtAdultRate(t *testing.T) {
	pod := testPod(1000)

	result := CalculatePrice(PriceInput{
		Pod:       pod,
		BoardType: models.BoardTypeFull,
		Guests:    GuestCounts{Adults: 1},
		PopUpBeds: 2,
	})

	assert.True(t, result.Total.Equal(decimal.NewFromInt(3000)), "got %s", result.Total)
}

func TestCalculatePriceExtras(t *testing.T) {
	pod := testPod(250000)

	result := CalculatePrice(PriceInput{
		Pod:       pod,
		BoardType: models.BoardTypeFull,
		Guests:    GuestCounts{Adults: 2},
		Extras: []ExtraSelection{
			{ExtraID: 1, Price: decimal.NewFromInt(5000), Quantity: 2},
		},
	})

	assert.True(t, result.ExtrasTotal.Equal(decimal.NewFromInt(10000)), "got %s", result.ExtrasTotal)
	assert.True(t, result.Total.Equal(decimal.NewFromInt(510000)), "got %s", result.Total)
}

func TestCalculatePriceZeroQuantityExtraCountsAsOne(t *testing.T) {
	pod := testPod(100)

	result := CalculatePrice(PriceInput{
		Pod:       pod,
		BoardType: models.BoardTypeFull,
		Guests:    GuestCounts{Adults: 1},
		Extras: []ExtraSelection{
			{ExtraID: 1, Price: decimal.NewFromInt(50), Quantity: 0},
		},
	})

	assert.True(t, result.ExtrasTotal.Equal(decimal.NewFromInt(50)))
}

func TestCalculatePriceDeterministic(t *testing.T) {
	pod := testPod(123456)
	input := PriceInput{
		Pod:       pod,
		BoardType: models.BoardTypeHalf,
		Guests:    GuestCounts{Adults: 2, Children: 1, Toddlers: 1, Infants: 1},
		PopUpBeds: 1,
		Extras: []ExtraSelection{
			{ExtraID: 7, Price: decimal.NewFromInt(999), Quantity: 3},
		},
	}

	first := CalculatePrice(input)
	second := CalculatePrice(input)

	assert.True(t, first.Total.Equal(second.Total))
	assert.Equal(t, len(first.Breakdown), len(second.Breakdown))
}
