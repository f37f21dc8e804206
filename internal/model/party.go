package model

// Vendor is deduplicated by exact, case-sensitive Name.
type Vendor struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	PartyNumber *string `json:"partyNumber"`
	Address     *string `json:"address"`
	TaxID       *string `json:"taxId"`
}

// Customer rows are created per invoice and never deduplicated.
type Customer struct {
	ID      string  `json:"id"`
	Name    *string `json:"name"`
	Address *string `json:"address"`
}
