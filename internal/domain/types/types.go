// Package types contains read-side shapes shared by the service and the API.
package types

import "github.com/okian/wardflow/internal/domain/model"

// Bed is one slot of the bed map.
type Bed struct {
	Unit      model.Unit `json:"unit"`
	Free      bool       `json:"free"`
	PatientID int        `json:"patient_id,omitempty"`
	Patient   string     `json:"patient,omitempty"`
}

// QueueEntry is a waiting patient with its position in admission order.
type QueueEntry struct {
	Position int    `json:"position"`
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Score    int    `json:"priority_score"`
	Severity string `json:"severity"`
}

// Dashboard summarizes the ward.
type Dashboard struct {
	Beds         []Bed `json:"beds"`
	BedCount     int   `json:"bed_count"`
	BedsOccupied int   `json:"beds_occupied"`
	Waiting      int   `json:"waiting"`
	Active       int   `json:"active"`
	Total        int   `json:"total"`
}

// FreeBeds returns the number of unoccupied beds.
func (d Dashboard) FreeBeds() int { return d.BedCount - d.BedsOccupied }
