package model

// SampleDataset returns the built-in two-order procurement sample.
func SampleDataset() Dataset {
	header := ProcurementColumns()
	rows := [][]string{
		{"ORD001", "Supplier A", "2024-01-15", "2024-01-25", "2024-01-28", "Electronics", "Air", "China", "Weather", "100", "120"},
		{"ORD002", "Supplier B", "2024-01-20", "2024-02-05", "2024-02-03", "Textiles", "Sea", "India", "None", "200", "180"},
	}
	return DatasetFromRows(header, rows)
}
