package simulate

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/wardflow/internal/domain/model"
	"github.com/okian/wardflow/pkg/logger"
)

// Run executes a complete simulation and returns its statistics.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	stats := &Stats{StartTime: time.Now()}
	log := logger.Named("simulate")

	log.Info(ctx, "starting wardflow simulation",
		logger.String("baseURL", config.BaseURL),
		logger.Int("patients", config.Patients),
		logger.Int("firstID", config.FirstID),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout),
		logger.Bool("privileged", config.Username != ""))

	c, err := newClient(config.BaseURL, config.Timeout)
	if err != nil {
		return nil, err
	}

	// Step 1: Check service health
	if err := c.health(ctx); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Sign in so batches can be discharged
	if config.Username != "" {
		if err := c.login(ctx, config.Username, config.Password); err != nil {
			return nil, fmt.Errorf("login failed: %w", err)
		}
	}

	// Step 3: Register synthetic patients concurrently
	registerPatients(ctx, c, config, generatePatients(config.Patients, config.FirstID), stats, log)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Step 4: Drain the queue, verifying each batch
	if err := drain(ctx, c, config, stats, log); err != nil {
		return stats, err
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	log.Info(ctx, "simulation completed",
		logger.Int("registered", stats.Registered),
		logger.Int("registerFailed", stats.RegisterFailed),
		logger.Int("admitted", stats.Admitted),
		logger.Int("discharged", stats.Discharged),
		logger.Int("batches", stats.Batches),
		logger.Duration("duration", stats.Duration))
	return stats, nil
}

func registerPatients(ctx context.Context, c *client, config *Config, patients []registration, stats *Stats, log logger.Logger) {
	var ok, failed int64
	ch := make(chan registration, config.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := range ch {
				if _, err := c.register(ctx, r); err != nil {
					atomic.AddInt64(&failed, 1)
					log.Debug(ctx, "registration failed", logger.Int("id", r.ID), logger.Error(err))
					continue
				}
				atomic.AddInt64(&ok, 1)
			}
		}()
	}

	go func() {
		defer close(ch)
		for _, r := range patients {
			select {
			case <-ctx.Done():
				return
			case ch <- r:
			}
		}
	}()
	wg.Wait()

	stats.Registered = int(atomic.LoadInt64(&ok))
	stats.RegisterFailed = int(atomic.LoadInt64(&failed))
	log.Info(ctx, "registration completed",
		logger.Int("registered", stats.Registered),
		logger.Int("failed", stats.RegisterFailed))
}

// drain admits until the queue is empty. When the bed pool fills and the run
// is signed in, the batch just admitted is discharged and the next batch
// starts.
func drain(ctx context.Context, c *client, config *Config, stats *Stats, log logger.Logger) error {
	for {
		batch, emptied, err := admitBatch(ctx, c, config.Verbose, log)
		if err != nil {
			return fmt.Errorf("admission failed: %w", err)
		}
		if len(batch) > 0 {
			stats.Batches++
			stats.Admitted += len(batch)
			if err := verifyBatch(batch); err != nil {
				return err
			}
			log.Info(ctx, "batch verified",
				logger.Int("batch", stats.Batches),
				logger.Int("admitted", len(batch)),
				logger.Int("topScore", batch[0].Score))
		}
		if emptied {
			return nil
		}
		if config.Username == "" || len(batch) == 0 {
			log.Warn(ctx, "bed pool full, stopping", logger.Int("admitted", stats.Admitted))
			return nil
		}
		for _, p := range batch {
			if err := c.discharge(ctx, p.ID); err != nil {
				return fmt.Errorf("discharge %d failed: %w", p.ID, err)
			}
			stats.Discharged++
		}
	}
}

// admitBatch calls AdmitNext until the pool is full or the queue is empty.
// emptied reports the latter.
func admitBatch(ctx context.Context, c *client, verbose bool, log logger.Logger) (batch []model.Patient, emptied bool, err error) {
	for {
		p, err := c.admitNext(ctx)
		switch {
		case err == nil:
			if verbose {
				log.Info(ctx, "admitted",
					logger.Int("id", p.ID),
					logger.Int("score", p.Score),
					logger.String("bed", p.Unit.String()))
			}
			batch = append(batch, p)
		case hasCode(err, codeEmptyQueue):
			return batch, true, nil
		case hasCode(err, codePoolFull):
			return batch, false, nil
		default:
			return batch, false, err
		}
	}
}
