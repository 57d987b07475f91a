// Package sampledata generates synthetic procurement datasets for demos,
// load tests and examples.
package sampledata

import (
	"encoding/binary"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/okian/leadtime/internal/domain/model"
)

// Generate builds a dataset with the canonical procurement columns. Rows
// are deterministic for a given Config.
func Generate(cfg Config) (model.Dataset, error) {
	if cfg.Rows <= 0 {
		return model.SampleDataset(), nil
	}
	if cfg.Days <= 0 {
		cfg.Days = DefaultDays
	}
	if cfg.Start.IsZero() {
		cfg.Start = DefaultConfig().Start
	}

	var seed [32]byte
	binary.LittleEndian.PutUint64(seed[:8], uint64(cfg.Seed)) //nolint:gosec // seed bits only
	src := rand.NewChaCha8(seed)
	rng := rand.New(src)

	rows := make([][]string, cfg.Rows)
	for i := range rows {
		id, err := uuid.NewRandomFromReader(src)
		if err != nil {
			return model.Dataset{}, err
		}
		rows[i] = generateRow(rng, cfg, id)
	}
	return model.DatasetFromRows(model.ProcurementColumns(), rows), nil
}

// generateRow draws one order. Expected delivery follows supplier and
// transport lead times; actual delivery adds a disruption dependent delay.
func generateRow(rng *rand.Rand, cfg Config, id uuid.UUID) []string {
	supplier := suppliers[rng.IntN(len(suppliers))]
	mode := transportModes[rng.IntN(len(transportModes))]
	disruption := disruptions[0]
	if rng.Float64() >= noDisruptionShare {
		disruption = disruptions[1+rng.IntN(len(disruptions)-1)]
	}

	ordered := cfg.Start.AddDate(0, 0, rng.IntN(cfg.Days))
	lead := max(1, supplier.offset+mode.offset+rng.IntN(5))
	expected := ordered.AddDate(0, 0, lead)
	delay := rng.IntN(5) - 2
	if disruption.offset > 0 {
		delay = disruption.offset + rng.IntN(disruption.offset+1)
	}
	actual := expected.AddDate(0, 0, delay)

	demand := 50 + rng.IntN(451)
	quantity := int(float64(demand) * (0.7 + 0.7*rng.Float64()))

	return []string{
		"ORD-" + id.String()[:8],
		supplier.name,
		formatDate(ordered),
		formatDate(expected),
		formatDate(actual),
		categories[rng.IntN(len(categories))],
		mode.name,
		locations[rng.IntN(len(locations))],
		disruption.name,
		strconv.Itoa(demand),
		strconv.Itoa(quantity),
	}
}

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}
