// Command contention fires concurrent reservations for the same seats at a
// running server and checks that exactly one of them wins.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

type ContentionResult struct {
	Worker       int           `json:"worker"`
	StatusCode   int           `json:"status_code"`
	BookingID    string        `json:"booking_id,omitempty"`
	FailedSeats  []int         `json:"failed_seats,omitempty"`
	ResponseTime time.Duration `json:"response_time"`
	Error        string        `json:"error,omitempty"`
}

type ContentionSuite struct {
	BaseURL string
	ShowID  string
	Seats   []int
	Workers int
	client  *http.Client

	mu      sync.Mutex
	Results []ContentionResult
}

type apiResponse struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"status_code"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
}

type outcome struct {
	Status      string `json:"status"`
	BookingID   string `json:"booking_id"`
	FailedSeats []int  `json:"failed_seats"`
}

type availability struct {
	ReservedSeats []int `json:"reserved_seats"`
}

type showSummary struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	AvailableCount int    `json:"available_count"`
}

func main() {
	baseURL := flag.String("url", "http://localhost:4000/api/v1", "API base URL")
	showID := flag.String("show", "", "show ID; defaults to the first show with a free seat")
	seat := flag.Int("seat", 0, "seat to contend for; defaults to the lowest free seat")
	workers := flag.Int("workers", 20, "concurrent reservation attempts")
	flag.Parse()

	suite := &ContentionSuite{
		BaseURL: *baseURL,
		ShowID:  *showID,
		Workers: *workers,
		client:  &http.Client{Timeout: 30 * time.Second},
	}

	fmt.Println("🧪 Starting seat contention check...")
	fmt.Println("===================================")

	ctx := context.Background()
	if err := suite.pickTarget(ctx, *seat); err != nil {
		log.Fatalf("❌ Could not choose a target: %v", err)
	}
	fmt.Printf("🎯 Show %s, seats %v, %d workers\n", suite.ShowID, suite.Seats, suite.Workers)

	if err := suite.race(ctx); err != nil {
		log.Fatalf("❌ Contention run failed: %v", err)
	}

	if !suite.generateReport(ctx) {
		os.Exit(1)
	}
	fmt.Println("\n🎉 Contention check passed")
}

// pickTarget resolves the show and seat when they were not given on the command line
func (s *ContentionSuite) pickTarget(ctx context.Context, seat int) error {
	if s.ShowID == "" {
		var list []showSummary
		if _, err := s.get(ctx, "/shows", &list); err != nil {
			return err
		}
		for _, show := range list {
			if show.AvailableCount > 0 {
				s.ShowID = show.ID
				break
			}
		}
		if s.ShowID == "" {
			return fmt.Errorf("no show has a free seat")
		}
	}

	if seat > 0 {
		s.Seats = []int{seat}
		return nil
	}

	var detail struct {
		AvailableSeats []int `json:"available_seats"`
	}
	if _, err := s.get(ctx, "/shows/"+s.ShowID, &detail); err != nil {
		return err
	}
	if len(detail.AvailableSeats) == 0 {
		return fmt.Errorf("show %s is sold out", s.ShowID)
	}
	s.Seats = []int{detail.AvailableSeats[0]}
	return nil
}

func (s *ContentionSuite) race(ctx context.Context) error {
	start := make(chan struct{})
	g, gctx := errgroup.WithContext(ctx)

	for i := 0; i < s.Workers; i++ {
		worker := i
		g.Go(func() error {
			<-start
			s.record(s.reserve(gctx, worker))
			return nil
		})
	}

	close(start)
	return g.Wait()
}

func (s *ContentionSuite) reserve(ctx context.Context, worker int) ContentionResult {
	body, _ := json.Marshal(map[string]interface{}{
		"seats":     s.Seats,
		"user_name": fmt.Sprintf("contention-%d", worker),
	})

	started := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/shows/"+s.ShowID+"/bookings", bytes.NewReader(body))
	if err != nil {
		return ContentionResult{Worker: worker, Error: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return ContentionResult{Worker: worker, ResponseTime: time.Since(started), Error: err.Error()}
	}
	defer resp.Body.Close()

	result := ContentionResult{
		Worker:       worker,
		StatusCode:   resp.StatusCode,
		ResponseTime: time.Since(started),
	}

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		result.Error = err.Error()
		return result
	}

	var got outcome
	if len(envelope.Data) > 0 && json.Unmarshal(envelope.Data, &got) == nil {
		result.BookingID = got.BookingID
		result.FailedSeats = got.FailedSeats
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusConflict {
		result.Error = envelope.Message
	}
	return result
}

func (s *ContentionSuite) record(result ContentionResult) {
	s.mu.Lock()
	s.Results = append(s.Results, result)
	s.mu.Unlock()

	statusIcon := "✅"
	switch result.StatusCode {
	case http.StatusConflict:
		statusIcon = "🔒"
	case http.StatusCreated:
	default:
		statusIcon = "❌"
	}
	fmt.Printf("   %s worker %2d: HTTP %d in %v\n", statusIcon, result.Worker, result.StatusCode, result.ResponseTime)
}

func (s *ContentionSuite) get(ctx context.Context, path string, dest interface{}) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+path, nil)
	if err != nil {
		return 0, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}
	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, fmt.Errorf("GET %s: HTTP %d", path, resp.StatusCode)
	}

	var envelope apiResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return resp.StatusCode, err
	}
	return resp.StatusCode, json.Unmarshal(envelope.Data, dest)
}

// generateReport prints the tally and reports whether the run upheld single ownership
func (s *ContentionSuite) generateReport(ctx context.Context) bool {
	fmt.Println("\n📊 CONTENTION REPORT")
	fmt.Println("====================")

	var won, lost, errored int
	var winners []string
	var slowest time.Duration
	for _, result := range s.Results {
		switch result.StatusCode {
		case http.StatusCreated:
			won++
			winners = append(winners, result.BookingID)
		case http.StatusConflict:
			lost++
		default:
			errored++
		}
		if result.ResponseTime > slowest {
			slowest = result.ResponseTime
		}
	}
	sort.Strings(winners)

	fmt.Printf("Attempts: %d\n", len(s.Results))
	fmt.Printf("Confirmed: %d %v\n", won, winners)
	fmt.Printf("Conflicts: %d\n", lost)
	fmt.Printf("Errors: %d\n", errored)
	fmt.Printf("Slowest response: %v\n", slowest)

	ok := won == 1 && errored == 0
	if !ok {
		fmt.Println("❌ Expected exactly one confirmed booking and no errors")
	}

	var seatMap availability
	if _, err := s.get(ctx, "/shows/"+s.ShowID+"/availability", &seatMap); err != nil {
		fmt.Printf("⚠️  Could not read availability: %v\n", err)
		return ok
	}
	for _, want := range s.Seats {
		found := false
		for _, seat := range seatMap.ReservedSeats {
			if seat == want {
				found = true
				break
			}
		}
		if !found {
			fmt.Printf("❌ Seat %d is not reserved after the run\n", want)
			ok = false
		}
	}
	return ok
}
