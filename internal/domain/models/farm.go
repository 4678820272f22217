package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Batch is a cohort of hens tracked together from start to close date.
type Batch struct {
	ID        string     `bson:"_id" json:"id"`
	Name      string     `bson:"name" json:"name"`
	StartDate time.Time  `bson:"startDate" json:"startDate"`
	EndDate   *time.Time `bson:"endDate,omitempty" json:"endDate,omitempty"`
	IsActive  bool       `bson:"isActive" json:"isActive"`
	HensCount int        `bson:"hensCount" json:"hensCount"`
	Notes     string     `bson:"notes,omitempty" json:"notes,omitempty"`
}

// Close marks the batch as finished. Closing is irreversible.
func (b *Batch) Close(at time.Time) {
	end := DayOf(at)
	b.EndDate = &end
	b.IsActive = false
}

// EggType is a catalogue entry whose name is the classification used by
// production records and sales.
type EggType struct {
	ID           string `bson:"_id" json:"id"`
	Name         string `bson:"name" json:"name"`
	Description  string `bson:"description,omitempty" json:"description,omitempty"`
	IsActive     bool   `bson:"isActive" json:"isActive"`
	DisplayOrder int    `bson:"displayOrder" json:"displayOrder"`
}

// EggProduction captures eggs collected for a batch on a day.
type EggProduction struct {
	ID             string    `bson:"_id" json:"id"`
	HenBatchID     string    `bson:"henBatchId" json:"henBatchId"`
	Date           time.Time `bson:"date" json:"date"`
	Classification string    `bson:"classification" json:"classification"`
	Quantity       int       `bson:"quantity" json:"quantity"`
	RegisteredByID string    `bson:"registeredById" json:"registeredById"`
}

// Customer buys eggs, on cash or on credit.
type Customer struct {
	ID       string `bson:"_id" json:"id"`
	Name     string `bson:"name" json:"name"`
	Phone    string `bson:"phone,omitempty" json:"phone,omitempty"`
	Email    string `bson:"email,omitempty" json:"email,omitempty"`
	Address  string `bson:"address,omitempty" json:"address,omitempty"`
	IsActive bool   `bson:"isActive" json:"isActive"`
}

// Supply is feed, medication or any other input bought for a batch.
type Supply struct {
	ID             string           `bson:"_id" json:"id"`
	HenBatchID     string           `bson:"henBatchId" json:"henBatchId"`
	Date           time.Time        `bson:"date" json:"date"`
	Name           string           `bson:"name" json:"name"`
	Quantity       decimal.Decimal  `bson:"quantity" json:"quantity"`
	Unit           string           `bson:"unit" json:"unit"`
	Cost           *decimal.Decimal `bson:"cost,omitempty" json:"cost,omitempty"`
	RegisteredByID string           `bson:"registeredById" json:"registeredById"`
}

// CostOrZero returns the supply cost, zero when unknown.
func (s Supply) CostOrZero() decimal.Decimal {
	if s.Cost == nil {
		return decimal.Zero
	}
	return *s.Cost
}

// DayOf drops the time-of-day of t, keeping its calendar date.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
