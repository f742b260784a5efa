package model

import (
	"time"

	"github.com/google/uuid"
)

// ReviewStatus is the moderation state of a review.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// IsValid reports whether s is a known status.
func (s ReviewStatus) IsValid() bool {
	switch s {
	case ReviewPending, ReviewApproved, ReviewRejected:
		return true
	}
	return false
}

// Review is a customer rating of a product.
type Review struct {
	ID        uuid.UUID    `json:"id" db:"id"`
	ProductID string       `json:"productId" db:"product_id"`
	UserID    string       `json:"userId" db:"user_id"`
	Rating    int          `json:"rating" db:"rating"`
	Comment   string       `json:"comment" db:"comment"`
	Status    ReviewStatus `json:"status" db:"status"`
	CreatedAt time.Time    `json:"createdAt" db:"created_at"`
}

// ReviewForm is the request body for a new review.
type ReviewForm struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=1000"`
}

// ReviewStatusUpdate is the admin request body for moderation.
type ReviewStatusUpdate struct {
	Status ReviewStatus `json:"status" validate:"required"`
}
