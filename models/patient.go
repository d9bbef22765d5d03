package models

import "time"

// Patient is a single active case shown on the waiting room roster.
type Patient struct {
	ID             int64     `db:"id" json:"id"`
	DocumentNumber string    `db:"document_number" json:"document_number"`
	Name           string    `db:"name" json:"name"`
	Procedure      string    `db:"procedure_description" json:"procedure"`
	Stage          string    `db:"stage" json:"stage"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// PatientInput is the writable subset of a Patient accepted from admin forms
type PatientInput struct {
	DocumentNumber string `json:"document_number"`
	Name           string `json:"name"`
	Procedure      string `json:"procedure"`
	Stage          string `json:"stage"`
}

// StageUpdate changes only the clinical stage of a patient. It is what
// external systems send through the webhook and MQTT ingestion paths.
type StageUpdate struct {
	PatientID int64  `json:"patient_id"`
	Stage     string `json:"stage"`
}
