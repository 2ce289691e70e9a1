package models

import "time"

// APIKey is a provisioned SDK key as stored by the dev server. Only the
// bcrypt hash of the secret half is persisted.
type APIKey struct {
	ID         string    `json:"id" bson:"_id"`
	SecretHash string    `json:"-" bson:"secret_hash"`
	Label      string    `json:"label" bson:"label"`
	Active     bool      `json:"active" bson:"active"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}
