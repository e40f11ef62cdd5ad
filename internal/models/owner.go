package models

import (
	"fmt"
	"time"
)

// Owner represents a migrating user, identified by an opaque stable id.
//
// Created on first interaction and never mutated afterwards.
type Owner struct {
	UserID    string
	CreatedAt time.Time
}

// Validate checks the owner record for required fields.
func (o Owner) Validate() error {
	if o.UserID == "" {
		return fmt.Errorf("owner user_id is required")
	}
	return nil
}
