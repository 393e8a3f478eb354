package fees

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/yourwae/fastget-backend/pkg/config"
)

type Model string

const (
	ModelTown     Model = config.FeeModelTown
	ModelDistance Model = config.FeeModelDistance
)

// Point is a coordinate pair; the zero value means unknown.
type Point struct {
	Lat float64
	Lng float64
}

func (p Point) known() bool {
	return p.Lat != 0 || p.Lng != 0
}

// Input carries everything either model may need. Zero store rates use the
// calculator defaults.
type Input struct {
	Town       string
	Store      Point
	Dropoff    Point
	StoreBase  decimal.Decimal
	StorePerKm decimal.Decimal
}

// Quote is a computed fee. DistanceKm is filled whenever both points are
// known, even in town mode, so it can be recorded on the delivery.
type Quote struct {
	Model      Model
	Fee        decimal.Decimal
	DistanceKm float64
}

// Calculator applies the configured authoritative fee model.
type Calculator struct {
	model      Model
	defaultFee float64
	baseFee    float64
	perKm      float64
}

func NewCalculator(cfg config.DeliveryConfig) *Calculator {
	model := Model(strings.ToLower(strings.TrimSpace(cfg.FeeModel)))
	if model != ModelDistance {
		model = ModelTown
	}
	return &Calculator{
		model:      model,
		defaultFee: cfg.DefaultTownFee,
		baseFee:    cfg.BaseFee,
		perKm:      cfg.PerKmFee,
	}
}

func (c *Calculator) Model() Model {
	return c.model
}

// Compute returns the delivery fee for in. Distance mode degrades to the
// town table when either point is unknown.
func (c *Calculator) Compute(in Input) Quote {
	q := Quote{Model: c.model}
	haveDistance := in.Store.known() && in.Dropoff.known()
	var km float64
	if haveDistance {
		km = Distance(in.Store.Lat, in.Store.Lng, in.Dropoff.Lat, in.Dropoff.Lng)
		q.DistanceKm = round2(km)
	}

	if c.model == ModelDistance && haveDistance {
		base := c.baseFee
		if in.StoreBase.IsPositive() {
			base = in.StoreBase.InexactFloat64()
		}
		perKm := c.perKm
		if in.StorePerKm.IsPositive() {
			perKm = in.StorePerKm.InexactFloat64()
		}
		q.Fee = decimal.NewFromFloat(DistanceFee(km, base, perKm)).Round(2)
		return q
	}

	q.Model = ModelTown
	fee := TownFee(in.Town)
	if !IsKnownTown(in.Town) && c.defaultFee > 0 {
		fee = c.defaultFee
	}
	q.Fee = decimal.NewFromFloat(fee).Round(2)
	return q
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
