package simulate

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/wardflow/pkg/logger"
)

const logFilePermission = 0600

// SetupLogging sends log output to both console and file. If logFile is
// empty, a timestamped filename is generated. The returned func closes the
// file.
func SetupLogging(logFile string) (func() error, error) {
	if logFile == "" {
		logFile = "simulate_" + time.Now().Format("20060102_150405") + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.Init(logger.WithWriter(io.MultiWriter(os.Stdout, file))); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return file.Close, nil
}

// ShowHelp prints usage information for the simulator.
func ShowHelp() {
	os.Stdout.WriteString(`Wardflow Admission Simulator
============================

Registers synthetic patients through the API, drains admissions and checks
that each batch was admitted in non-increasing score order.

Usage:
  go run ./cmd/simulate [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -patients int
        Number of synthetic patients to register (default 200)
  -first-id int
        ID of the first synthetic patient (default 100000)
  -workers int
        Number of concurrent registration workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -user string
        Admin account used to discharge between batches
  -password string
        Password for -user (default $WARDFLOW_SIM_PASSWORD)
  -log string
        Log file for run output (default: simulate_TIMESTAMP.log)
  -verbose
        Log every admission
  -help
        Show this help message

Examples:
  # Fill the ward once and stop when beds run out
  go run ./cmd/simulate -patients 50

  # Cycle through every batch as admin
  go run ./cmd/simulate -patients 500 -user admin -password secret
`)
}
