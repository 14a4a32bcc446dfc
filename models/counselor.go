package models

// Counselor represents a bookable counselor sourced from the ledger.
// Counselor rows are read-only from the bot's perspective.
type Counselor struct {
	ID          string `bson:"id" json:"id"`
	Name        string `bson:"name" json:"name"`
	ImageURL    string `bson:"image_url" json:"image_url,omitempty"`
	Description string `bson:"description" json:"description"`
	IsActive    bool   `bson:"is_active" json:"is_active"`
}
