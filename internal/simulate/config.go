// Package simulate drives a running scheduler through its HTTP API: it
// registers synthetic patients, drains admissions batch by batch and checks
// that every batch was admitted in non-increasing score order.
package simulate

import (
	"errors"
	"time"
)

// ErrInvalidConfig is returned by Run when the configuration cannot work.
var ErrInvalidConfig = errors.New("invalid simulation config")

// ErrOrderViolation reports a batch admitted out of score order.
var ErrOrderViolation = errors.New("admission order violated")

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL  string        // Base URL of the service
	Patients int           // Number of synthetic patients to register
	FirstID  int           // ID of the first synthetic patient
	Workers  int           // Number of concurrent registration workers
	Timeout  time.Duration // HTTP request timeout
	Username string        // Admin account used to discharge between batches
	Password string
	LogFile  string // Log file for run output
	Verbose  bool   // Log every admission
}

func (c *Config) validate() error {
	switch {
	case c.BaseURL == "":
		return errors.Join(ErrInvalidConfig, errors.New("base url is required"))
	case c.Patients <= 0:
		return errors.Join(ErrInvalidConfig, errors.New("patients must be positive"))
	case c.FirstID <= 0:
		return errors.Join(ErrInvalidConfig, errors.New("first id must be positive"))
	case c.Workers <= 0:
		return errors.Join(ErrInvalidConfig, errors.New("workers must be positive"))
	}
	return nil
}

// Stats holds run statistics.
type Stats struct {
	Registered     int
	RegisterFailed int
	Admitted       int
	Discharged     int
	Batches        int
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
}
