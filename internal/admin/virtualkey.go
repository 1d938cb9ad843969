package admin

import (
	"time"

	"github.com/google/uuid"
)

// CreateRequest is the JSON body for POST /admin/virtual-keys.
type CreateRequest struct {
	Name        string   `json:"name" validate:"required"`
	Environment string   `json:"environment" validate:"required"`
	Tags        []string `json:"tags"`
	PolicyID    string   `json:"policy_id" validate:"required,uuid"`
}

// Response is the JSON response for a single virtual key (without the raw
// key, which is only ever returned once at creation).
type Response struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Environment string    `json:"environment"`
	Tags        []string  `json:"tags"`
	Enabled     bool      `json:"enabled"`
	PolicyID    uuid.UUID `json:"policy_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateResponse includes the raw key, shown exactly once.
type CreateResponse struct {
	Response
	Key string `json:"key"`
}
