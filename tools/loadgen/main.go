package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

var levels = []string{"debug", "info", "warn", "error"}

func main() {
	targetURL := flag.String("url", "http://localhost:8080/api/v1/client-logs", "Target URL for client log reports")
	concurrency := flag.Int("c", 10, "Number of concurrent workers")
	duration := flag.Duration("d", 30*time.Second, "Duration of the load test")
	rps := flag.Int("rps", 500, "Requests per second limit")
	batch := flag.Int("batch", 5, "Reports per request")
	flag.Parse()

	log.Printf("Starting load test on %s", *targetURL)
	log.Printf("Concurrency: %d, Duration: %s, RPS: %d, Batch: %d", *concurrency, *duration, *rps, *batch)

	var wg sync.WaitGroup
	var successCount, errorCount atomic.Int64
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	limiter := rate.NewLimiter(rate.Limit(*rps), 100) // Allow bursts up to 100

	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			client := &http.Client{
				Timeout: 5 * time.Second,
			}
			sessionID := uuid.NewString()

			for {
				select {
				case <-ctx.Done():
					return
				default:
					limiter.Wait(ctx)

					req, err := http.NewRequestWithContext(ctx, http.MethodPost, *targetURL, buildBatch(workerID, sessionID, *batch))
					if err != nil {
						continue // Should not happen
					}
					req.Header.Set("Content-Type", "application/json")

					resp, err := client.Do(req)
					if err != nil {
						errorCount.Add(1)
						continue
					}

					if resp.StatusCode == http.StatusAccepted {
						successCount.Add(1)
					} else {
						errorCount.Add(1)
					}
					resp.Body.Close()
				}
			}
		}(i)
	}

	wg.Wait()

	totalRequests := successCount.Load() + errorCount.Load()
	actualRPS := float64(totalRequests) / duration.Seconds()

	log.Println("Load test finished.")
	log.Printf("Total Requests: %d", totalRequests)
	log.Printf("Successful (202 Accepted): %d", successCount.Load())
	log.Printf("Errors: %d", errorCount.Load())
	log.Printf("Actual RPS: %.2f", actualRPS)
}

func buildBatch(workerID int, sessionID string, size int) *bytes.Buffer {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i := 0; i < size; i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf,
			`{"timestamp":"%s","level":"%s","message":"synthetic report %s from worker %d","context":{"session_id":"%s","seq":%d}}`,
			time.Now().UTC().Format(time.RFC3339Nano),
			levels[rand.Intn(len(levels))],
			uuid.NewString(),
			workerID,
			sessionID,
			i,
		)
	}
	buf.WriteByte(']')
	return &buf
}
