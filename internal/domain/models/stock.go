package models

// StockLevel is the egg stock of one classification within a batch.
type StockLevel struct {
	Classification string `json:"classification"`
	Available      int    `json:"available"`
	Produced       int    `json:"produced"`
	Sold           int    `json:"sold"`
}
