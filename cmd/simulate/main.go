package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/wardflow/internal/simulate"
)

// Default configuration constants.
const (
	defaultPatients   = 200
	defaultFirstID    = 100000
	defaultWorkers    = 2 // multiplier for runtime.NumCPU()
	defaultTimeout    = 30 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		patients = flag.Int("patients", defaultPatients, "Number of synthetic patients to register")
		firstID  = flag.Int("first-id", defaultFirstID, "ID of the first synthetic patient")
		workers  = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent registration workers")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		user     = flag.String("user", "", "Admin account used to discharge between batches")
		password = flag.String("password", os.Getenv("WARDFLOW_SIM_PASSWORD"), "Password for -user")
		logFile  = flag.String("log", "", "Log file for run output (default: simulate_TIMESTAMP.log)")
		verbose  = flag.Bool("verbose", false, "Log every admission")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		simulate.ShowHelp()
		return
	}

	closeLog, err := simulate.SetupLogging(*logFile)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer closeLog()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	config := &simulate.Config{
		BaseURL:  *baseURL,
		Patients: *patients,
		FirstID:  *firstID,
		Workers:  *workers,
		Timeout:  *timeout,
		Username: *user,
		Password: *password,
		LogFile:  *logFile,
		Verbose:  *verbose,
	}

	if _, err := simulate.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Simulation failed: " + err.Error() + "\n")
		cancel()
		_ = closeLog()
		os.Exit(1)
	}
}
