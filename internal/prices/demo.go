package prices

import "time"

const (
	DemoSource  = "demo-prices (February 2026)"
	DemoVersion = "1.0"
)

// DemoCatalog is served when no durable document exists yet.
func DemoCatalog(now time.Time) Catalog {
	legacy := func(m map[string]float64) Table {
		t := make(Table, len(m))
		for id, p := range m {
			t[id] = Legacy(p)
		}
		return t
	}

	return Catalog{
		Tables: map[string]Table{
			"cpu": legacy(map[string]float64{
				"i3-13100":       14500,
				"i5-13400":       24800,
				"i5-13600k":      34500,
				"i7-13700k":      44900,
				"ryzen5-7600":    21800,
				"ryzen7-7800x3d": 41500,
			}),
			"gpu": legacy(map[string]float64{
				"rtx3060":  34800,
				"rtx4060":  39500,
				"rtx4070":  64800,
				"rx7600":   31800,
				"rx7800xt": 54500,
			}),
			"mb": legacy(map[string]float64{
				"b660": 11800,
				"b760": 14800,
				"b650": 12900,
				"x670": 17800,
			}),
			"case": legacy(map[string]float64{
				"budget":  4800,
				"mid":     7800,
				"premium": 14800,
			}),
			"laptopCpu": legacy(map[string]float64{
				"i5-1335u":     19800,
				"i7-1360p":     34500,
				"ryzen5-7530u": 21800,
				"ryzen7-7730u": 31800,
			}),
			"laptopGpu": legacy(map[string]float64{
				"integrated": 0,
				"mx550":      7800,
				"rtx3050":    19800,
				"rtx4060":    34800,
			}),
			"laptopBrand": legacy(map[string]float64{
				"asus":   4800,
				"lenovo": 3800,
				"hp":     4300,
				"dell":   5800,
				"acer":   3300,
				"msi":    6800,
			}),
			"ram":           legacy(map[string]float64{"perGB": 480}),
			"storage":       legacy(map[string]float64{"perGB": 2.8}),
			"psu":           legacy(map[string]float64{"per100W": 1450}),
			"laptopRam":     legacy(map[string]float64{"perGB": 580}),
			"laptopStorage": legacy(map[string]float64{"perGB": 3.8}),
			"laptopDisplay": legacy(map[string]float64{
				"14":   14800,
				"15.6": 17800,
				"16":   21800,
				"17.3": 24800,
			}),
		},
		Metadata: &Metadata{
			LastUpdated: now.UTC(),
			Source:      DemoSource,
			Version:     DemoVersion,
		},
	}
}
