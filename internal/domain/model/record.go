// Package model contains domain models passed between layers.
package model

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Canonical procurement columns.
const (
	FieldOrderID          = "Order_ID"
	FieldSupplier         = "Supplier"
	FieldOrderDate        = "Order_Date"
	FieldExpectedDelivery = "Expected_Delivery_Date"
	FieldActualDelivery   = "Actual_Delivery_Date"
	FieldProductCategory  = "Product_Category"
	FieldTransportMode    = "Transportation_Mode"
	FieldSupplierLocation = "Supplier_Location"
	FieldDisruptionType   = "Disruption_Type"
	FieldCustomerDemand   = "Customer_Demand"
	FieldOrderQuantity    = "Order_Quantity"
)

// ProcurementColumns lists the canonical columns in file order.
func ProcurementColumns() []string {
	return []string{
		FieldOrderID,
		FieldSupplier,
		FieldOrderDate,
		FieldExpectedDelivery,
		FieldActualDelivery,
		FieldProductCategory,
		FieldTransportMode,
		FieldSupplierLocation,
		FieldDisruptionType,
		FieldCustomerDemand,
		FieldOrderQuantity,
	}
}

// Record is one procurement order: an immutable field -> value mapping.
// The zero value is an empty record.
type Record struct {
	fields map[string]string
}

// NewRecord copies fields into a new Record.
func NewRecord(fields map[string]string) Record {
	cp := make(map[string]string, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	return Record{fields: cp}
}

// Get returns the raw value of a field and whether it is present.
func (r Record) Get(field string) (string, bool) {
	v, ok := r.fields[field]
	return v, ok
}

// Value returns the raw value of a field, or "" when absent.
func (r Record) Value(field string) string {
	return r.fields[field]
}

// Date parses a field as a calendar date. Missing or malformed values
// report false; they are never coerced to a zero time.
func (r Record) Date(field string) (time.Time, bool) {
	v, ok := r.fields[field]
	if !ok {
		return time.Time{}, false
	}
	return ParseDate(v)
}

// Number parses a field as a finite float. Missing, malformed, NaN and
// infinite values report false.
func (r Record) Number(field string) (float64, bool) {
	v, ok := r.fields[field]
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Len returns the number of fields.
func (r Record) Len() int {
	return len(r.fields)
}

// Fields returns a copy of the underlying mapping.
func (r Record) Fields() map[string]string {
	cp := make(map[string]string, len(r.fields))
	for k, v := range r.fields {
		cp[k] = v
	}
	return cp
}
