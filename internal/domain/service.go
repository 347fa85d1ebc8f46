package domain

import (
	"time"
)

// Service is a pricing tier a student picks when submitting work.
// Tiers are seeded once and are read-only during normal operation.
type Service struct {
	ID              string    `bson:"_id" json:"id"`
	Name            string    `bson:"name" json:"name"`
	Description     string    `bson:"description,omitempty" json:"description,omitempty"`
	UnitPrice       int64     `bson:"unitPrice" json:"unitPrice"` // Cents per started 500-word block
	TurnaroundHours int       `bson:"turnaroundHours" json:"turnaroundHours"`
	IsExpress       bool      `bson:"isExpress" json:"isExpress"`
	CreatedAt       time.Time `bson:"createdAt" json:"createdAt"`
}

// DefaultServices are the tiers installed by the seed tool.
func DefaultServices() []Service {
	return []Service{
		{
			Name:            "Standard Review",
			Description:     "Comprehensive feedback on your essay, including structure, argument, clarity and grammar. Delivered within 72 hours.",
			UnitPrice:       1500,
			TurnaroundHours: 72,
		},
		{
			Name:            "Express Review",
			Description:     "The same in-depth feedback as the standard review, prioritised and delivered within 24 hours.",
			UnitPrice:       3000,
			TurnaroundHours: 24,
			IsExpress:       true,
		},
		{
			Name:            "Statement of Purpose",
			Description:     "Specialised feedback for graduate school applications, focusing on narrative, motivation and fit.",
			UnitPrice:       1500,
			TurnaroundHours: 72,
		},
		{
			Name:            "Research Paper Review",
			Description:     "Detailed review of research papers covering methodology, citations and academic style.",
			UnitPrice:       1500,
			TurnaroundHours: 72,
		},
	}
}
