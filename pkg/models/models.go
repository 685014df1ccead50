package models

import (
	"encoding/json"
	"time"
)

// User represents an authenticated person, synced from the external identity
// source on first login. Identity issuance itself happens outside this service.
type User struct {
	ID          string    `json:"id" db:"id"`
	EmployeeID  string    `json:"employee_id" db:"employee_id"`
	DisplayName string    `json:"display_name" db:"display_name"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Project is the authorization boundary. Projects and their member lists are
// owned externally; this service only reads membership.
type Project struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// ReviewSpace is a named container of review targets scoped to one project.
type ReviewSpace struct {
	ID          string    `json:"id" db:"id"`
	ProjectID   string    `json:"project_id" db:"project_id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// ReviewTarget is one submitted artifact moving through the Q&A pipeline.
// Immutable after submission; its lifecycle lives in the QaHistory trail.
type ReviewTarget struct {
	ID            string    `json:"id" db:"id"`
	ReviewSpaceID string    `json:"review_space_id" db:"review_space_id"`
	ArtifactRef   string    `json:"artifact_ref" db:"artifact_ref"`
	SubmittedAt   time.Time `json:"submitted_at" db:"submitted_at"`
}

// QaHistory is one analysis attempt for a review target. Outcome is set only
// once the attempt completes; ErrorDetail only once it fails.
type QaHistory struct {
	ID             string          `json:"id" db:"id"`
	ReviewTargetID string          `json:"review_target_id" db:"review_target_id"`
	Status         string          `json:"status" db:"status"`
	Outcome        json.RawMessage `json:"outcome,omitempty" db:"outcome"`
	ErrorDetail    *string         `json:"error_detail,omitempty" db:"error_detail"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// ReviewResult is the derived view of a target's latest analysis attempt.
// Never persisted, always rebuilt from the QaHistory trail.
type ReviewResult struct {
	Status      string          `json:"status"`
	Outcome     json.RawMessage `json:"outcome,omitempty"`
	ErrorDetail *string         `json:"error_detail,omitempty"`
}

// ReviewTargetView bundles a target with its current result for retrieval.
type ReviewTargetView struct {
	Target ReviewTarget `json:"target"`
	Result ReviewResult `json:"result"`
}
