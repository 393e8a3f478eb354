package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/yourwae/fastget-backend/internal/cart"
	"github.com/yourwae/fastget-backend/pkg/db/models"
	"github.com/yourwae/fastget-backend/pkg/fees"
	"github.com/yourwae/fastget-backend/pkg/types"
)

type totals struct {
	subtotal decimal.Decimal
	fee      fees.Quote
	tax      decimal.Decimal
	total    decimal.Decimal
}

// computeTotals sums the lines and applies the delivery fee and tax:
// total = subtotal + fee + subtotal*taxRate.
func computeTotals(lines []cart.Line, fee fees.Quote, taxRate float64) totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.LineTotal())
	}
	subtotal = types.Money(subtotal)
	tax := decimal.Zero
	if taxRate > 0 {
		tax = types.Money(subtotal.Mul(decimal.NewFromFloat(taxRate)))
	}
	return totals{
		subtotal: subtotal,
		fee:      fee,
		tax:      tax,
		total:    types.Money(subtotal.Add(fee.Fee).Add(tax)),
	}
}

// feeInput picks the delivery town: the drop-off city when it is a served
// town, otherwise the store's own town.
func feeInput(store *models.Store, townName string, dropoff types.Address) fees.Input {
	town := townName
	if fees.IsKnownTown(dropoff.City) {
		town = dropoff.City
	}
	return fees.Input{
		Town:       town,
		Store:      fees.Point{Lat: store.Address.Latitude, Lng: store.Address.Longitude},
		Dropoff:    fees.Point{Lat: dropoff.Latitude, Lng: dropoff.Longitude},
		StoreBase:  store.BaseDeliveryFee,
		StorePerKm: store.PerKmFee,
	}
}

func quoteLines(lines []cart.Line) ([]QuoteLineDTO, int) {
	out := make([]QuoteLineDTO, 0, len(lines))
	count := 0
	for _, l := range lines {
		out = append(out, QuoteLineDTO{
			CartItemID:         l.Item.ID,
			ProductID:          l.Product.ID,
			Name:               l.Product.Name,
			Price:              l.Product.Price,
			Quantity:           l.Item.Quantity,
			SelectedVariations: l.Item.SelectedVariations,
			LineTotal:          types.Money(l.LineTotal()),
		})
		count += l.Item.Quantity
	}
	return out, count
}
