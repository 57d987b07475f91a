package sampledata

import "time"

// Config holds the parameters of a generated dataset.
type Config struct {
	Rows  int       // Number of orders; 0 yields the built-in two-order sample
	Seed  int64     // Seed of the pseudo-random source; equal seeds give equal data
	Start time.Time // Earliest order date
	Days  int       // Order dates fall within [Start, Start+Days)
}

// Default generation parameters.
const (
	DefaultRows = 500
	DefaultSeed = 1
	DefaultDays = 365
)

// DefaultConfig returns a year of orders starting 2024-01-01.
func DefaultConfig() Config {
	return Config{
		Rows:  DefaultRows,
		Seed:  DefaultSeed,
		Start: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		Days:  DefaultDays,
	}
}

// profile describes how a dimension value shifts lead time or delay.
type profile struct {
	name   string
	offset int
}

var (
	suppliers = []profile{
		{"Supplier A", 10},
		{"Supplier B", 14},
		{"Supplier C", 7},
		{"Supplier D", 21},
		{"Supplier E", 12},
	}
	transportModes = []profile{
		{"Air", -5},
		{"Road", 0},
		{"Rail", 3},
		{"Sea", 12},
	}
	disruptions = []profile{
		{"None", 0},
		{"Weather", 4},
		{"Port Congestion", 7},
		{"Labor Strike", 10},
		{"Customs Delay", 5},
	}
	categories = []string{"Electronics", "Textiles", "Furniture", "Food", "Chemicals", "Machinery"}
	locations  = []string{"China", "India", "Vietnam", "Mexico", "Germany", "Brazil"}
)

// noDisruptionShare is the fraction of orders without a disruption.
const noDisruptionShare = 0.6

const dateLayout = "2006-01-02"
