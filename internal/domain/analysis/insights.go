package analysis

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/okian/leadtime/internal/domain/model"
)

// DatasetSummary counts orders and distinct non-empty categorical values.
type DatasetSummary struct {
	TotalOrders       int `json:"total_orders"`
	UniqueSuppliers   int `json:"unique_suppliers"`
	ProductCategories int `json:"product_categories"`
	TransportModes    int `json:"transport_modes"`
}

// Summarize returns headline counts for ds.
func Summarize(ds model.Dataset) DatasetSummary {
	suppliers := make(map[string]struct{})
	categories := make(map[string]struct{})
	modes := make(map[string]struct{})
	for i := 0; i < ds.Len(); i++ {
		r := ds.At(i)
		addNonEmpty(suppliers, r.Value(model.FieldSupplier))
		addNonEmpty(categories, r.Value(model.FieldProductCategory))
		addNonEmpty(modes, r.Value(model.FieldTransportMode))
	}
	return DatasetSummary{
		TotalOrders:       ds.Len(),
		UniqueSuppliers:   len(suppliers),
		ProductCategories: len(categories),
		TransportModes:    len(modes),
	}
}

func addNonEmpty(set map[string]struct{}, v string) {
	if v == "" {
		return
	}
	set[v] = struct{}{}
}

// Seasonality is the mean lead time per order month.
type Seasonality struct {
	// Months run January to December; months without data are omitted.
	Months   []GroupSummary `json:"months"`
	Seasonal bool           `json:"seasonal"`
	Peak     string         `json:"peak,omitempty"`
	Trough   string         `json:"trough,omitempty"`
	Spread   float64        `json:"spread"`
}

// SeasonalProfile averages lead time by the calendar month of Order_Date.
// With fewer than two months there is nothing to compare and Seasonal is
// false.
func SeasonalProfile(ds model.Dataset) Seasonality {
	groups := GroupAndSummarize(ds, MonthName(model.FieldOrderDate), OrderLeadTime.Compute)
	byName := make(map[string]GroupSummary, len(groups))
	for _, g := range groups {
		byName[g.Key] = g
	}

	var s Seasonality
	for m := time.January; m <= time.December; m++ {
		if g, ok := byName[m.String()]; ok {
			s.Months = append(s.Months, g)
		}
	}
	if len(s.Months) < 2 {
		return s
	}
	peak, _ := SelectExtremum(s.Months, Max)
	trough, _ := SelectExtremum(s.Months, Min)
	s.Seasonal = true
	s.Peak = peak.Key
	s.Trough = trough.Key
	s.Spread = round1(peak.Mean - trough.Mean)
	return s
}

// MonthlyFlow is the demand and order volume of one order month.
type MonthlyFlow struct {
	Month    string  `json:"month"`
	Demand   float64 `json:"demand"`
	Quantity float64 `json:"quantity"`
}

// BullwhipReport compares order volatility with demand volatility.
type BullwhipReport struct {
	Status        Status        `json:"status"`
	Months        []MonthlyFlow `json:"months"`
	DemandCV      float64       `json:"demand_cv"`
	OrderCV       float64       `json:"order_cv"`
	Amplification float64       `json:"amplification"`
	Detected      bool          `json:"detected"`
}

// Bullwhip sums Customer_Demand and Order_Quantity per YYYY-MM order month
// and compares their coefficients of variation. Amplification above one
// means orders swing more than demand.
func Bullwhip(ds model.Dataset) BullwhipReport {
	flows := make(map[string]*MonthlyFlow)
	for i := 0; i < ds.Len(); i++ {
		r := ds.At(i)
		t, ok := r.Date(model.FieldOrderDate)
		if !ok {
			continue
		}
		key := fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
		f, ok := flows[key]
		if !ok {
			f = &MonthlyFlow{Month: key}
			flows[key] = f
		}
		if v, ok := r.Number(model.FieldCustomerDemand); ok {
			f.Demand += v
		}
		if v, ok := r.Number(model.FieldOrderQuantity); ok {
			f.Quantity += v
		}
	}

	rep := BullwhipReport{Status: StatusInsufficientData}
	keys := make([]string, 0, len(flows))
	for k := range flows {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	demand := make([]float64, 0, len(keys))
	orders := make([]float64, 0, len(keys))
	for _, k := range keys {
		f := *flows[k]
		if !finite(f.Demand) || !finite(f.Quantity) {
			return BullwhipReport{Status: StatusInsufficientData}
		}
		rep.Months = append(rep.Months, f)
		demand = append(demand, f.Demand)
		orders = append(orders, f.Quantity)
	}
	if len(keys) < 2 {
		return rep
	}

	demandCV, ok := coefficientOfVariation(demand)
	if !ok || demandCV == 0 {
		return rep
	}
	orderCV, ok := coefficientOfVariation(orders)
	if !ok {
		return rep
	}
	amplification := orderCV / demandCV
	if !finite(amplification) {
		return rep
	}
	rep.Status = StatusAnswered
	rep.DemandCV = demandCV
	rep.OrderCV = orderCV
	rep.Amplification = amplification
	rep.Detected = rep.Amplification > 1
	return rep
}

// coefficientOfVariation is the population standard deviation over the
// mean. A zero mean or a sum that overflowed has no defined ratio.
func coefficientOfVariation(xs []float64) (float64, bool) {
	mean, err := stats.Mean(xs)
	if err != nil || mean == 0 || !finite(mean) {
		return 0, false
	}
	sd, err := stats.StandardDeviationPopulation(xs)
	if err != nil || !finite(sd) {
		return 0, false
	}
	cv := sd / mean
	return cv, finite(cv)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
