package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyReport represents the aggregated daily data to be stored in MongoDB.
type DailyReport struct {
	Date          time.Time       `bson:"date" json:"date"`
	EggsCollected int             `bson:"eggs_collected" json:"eggsCollected"`
	EggsSold      int             `bson:"eggs_sold" json:"eggsSold"`
	SalesAmount   decimal.Decimal `bson:"sales_amount" json:"salesAmount"`
	Collected     decimal.Decimal `bson:"collected" json:"collected"`
	UnpaidBalance decimal.Decimal `bson:"unpaid_balance" json:"unpaidBalance"`
	Expenses      decimal.Decimal `bson:"expenses" json:"expenses"`
	Profit        decimal.Decimal `bson:"profit" json:"profit"`
	CreatedAt     time.Time       `bson:"created_at" json:"createdAt"`
}

// ProfitSummary is the sales minus supply cost over some scope.
type ProfitSummary struct {
	TotalSales        decimal.Decimal `json:"totalSales"`
	TotalSuppliesCost decimal.Decimal `json:"totalSuppliesCost"`
	Profit            decimal.Decimal `json:"profit"`
}

// MonthlyProfit is a ProfitSummary restricted to one calendar month.
type MonthlyProfit struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	ProfitSummary
}
