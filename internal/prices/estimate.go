package prices

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// LaptopBaseCost is added to every laptop estimate for assembly.
const LaptopBaseCost = 15000

type PCBuild struct {
	CPU         string  `json:"cpu"`
	GPU         string  `json:"gpu"`
	Motherboard string  `json:"mb"`
	Case        string  `json:"case"`
	RAMGB       float64 `json:"ramGB"`
	StorageGB   float64 `json:"storageGB"`
	PSUWatts    float64 `json:"psuWatts"`
}

type LaptopBuild struct {
	CPU       string  `json:"cpu"`
	GPU       string  `json:"gpu"`
	Brand     string  `json:"brand"`
	Display   string  `json:"display"`
	RAMGB     float64 `json:"ramGB"`
	StorageGB float64 `json:"storageGB"`
}

type EstimateLine struct {
	Item  string  `json:"item"`
	Price float64 `json:"price"`
}

type Estimate struct {
	Lines []EstimateLine `json:"lines"`
	Total float64        `json:"total"`
}

type estimator struct {
	c     Catalog
	lines []EstimateLine
	total decimal.Decimal
}

func (e *estimator) add(item string, d decimal.Decimal) {
	d = d.Round(2)
	e.lines = append(e.lines, EstimateLine{Item: item, Price: d.InexactFloat64()})
	e.total = e.total.Add(d)
}

func (e *estimator) component(item, category, productID string) {
	e.add(item, decimal.NewFromFloat(e.c.Resolve(category, productID)))
}

func (e *estimator) rate(item string, qty decimal.Decimal, category, unit string) {
	e.add(item, qty.Mul(decimal.NewFromFloat(e.c.Resolve(category, unit))))
}

func (e *estimator) result() Estimate {
	return Estimate{Lines: e.lines, Total: e.total.Round(2).InexactFloat64()}
}

// EstimatePC prices a desktop build. The PSU is billed per started 100 W.
func EstimatePC(c Catalog, b PCBuild) (Estimate, error) {
	if err := nonNegative("ramGB", b.RAMGB); err != nil {
		return Estimate{}, err
	}
	if err := nonNegative("storageGB", b.StorageGB); err != nil {
		return Estimate{}, err
	}
	if err := nonNegative("psuWatts", b.PSUWatts); err != nil {
		return Estimate{}, err
	}

	e := &estimator{c: c}
	e.component("cpu", "cpu", b.CPU)
	e.component("gpu", "gpu", b.GPU)
	e.rate("ram", decimal.NewFromFloat(b.RAMGB), "ram", "perGB")
	e.rate("storage", decimal.NewFromFloat(b.StorageGB), "storage", "perGB")
	e.component("mb", "mb", b.Motherboard)
	e.rate("psu", decimal.NewFromFloat(b.PSUWatts).Div(decimal.NewFromInt(100)).Ceil(), "psu", "per100W")
	e.component("case", "case", b.Case)
	return e.result(), nil
}

func EstimateLaptop(c Catalog, b LaptopBuild) (Estimate, error) {
	if err := nonNegative("ramGB", b.RAMGB); err != nil {
		return Estimate{}, err
	}
	if err := nonNegative("storageGB", b.StorageGB); err != nil {
		return Estimate{}, err
	}

	e := &estimator{c: c}
	e.add("base", decimal.NewFromInt(LaptopBaseCost))
	e.component("cpu", "laptopCpu", b.CPU)
	e.rate("ram", decimal.NewFromFloat(b.RAMGB), "laptopRam", "perGB")
	e.rate("storage", decimal.NewFromFloat(b.StorageGB), "laptopStorage", "perGB")
	e.component("display", "laptopDisplay", b.Display)
	e.component("gpu", "laptopGpu", b.GPU)
	e.component("brand", "laptopBrand", b.Brand)
	return e.result(), nil
}

func nonNegative(field string, v float64) error {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be non-negative", ErrValidation, field)
	}
	return nil
}
