// Benchmark tool for testing Shrike against labeled SMS data.
//
// Usage:
//   go run cmd/benchmark/main.go -csv /path/to/sms.csv -url http://localhost:8080
//
// This tool:
//   1. Reads labeled SMS data (label,sender,text per row; label "smish"/"1" = phishing)
//   2. Sends each message to Shrike for analysis
//   3. Compares Shrike's verdict level with the actual labels
//   4. Calculates precision, recall, F1-score, and confusion matrix
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// LabeledMessage represents a row from the labeled SMS dataset
type LabeledMessage struct {
	Sender  string
	Text    string
	IsSmish bool
}

// AnalyzeRequest is the Shrike API request format
type AnalyzeRequest struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
	Source string `json:"source,omitempty"`
}

// AnalyzeResponse is the Shrike API response format
type AnalyzeResponse struct {
	VerdictID string   `json:"verdictId"`
	Score     int      `json:"score"`
	Level     string   `json:"level"` // "LOW", "MEDIUM", "HIGH"
	Reasons   []string `json:"reasons"`
}

// Metrics tracks benchmark results
type Metrics struct {
	TruePositives  int64 // Smishing flagged at or above the alert level
	FalsePositives int64 // Legitimate flagged at or above the alert level
	TrueNegatives  int64 // Legitimate below the alert level
	FalseNegatives int64 // Smishing below the alert level (missed!)

	TotalProcessed int64
	TotalSmish     int64
	TotalHam       int64
	TotalErrors    int64

	ProcessingTimeMs int64
}

func main() {
	// Parse flags
	csvPath := flag.String("csv", "", "Path to labeled SMS CSV file")
	baseURL := flag.String("url", "http://localhost:8080", "Shrike base URL")
	tenantID := flag.String("tenant", "benchmark-test", "Tenant ID for requests")
	limit := flag.Int("limit", 10000, "Maximum messages to process (0 = all)")
	workers := flag.Int("workers", 10, "Number of concurrent workers")
	smishOnly := flag.Bool("smish-only", false, "Only test smishing messages")
	alertLevel := flag.String("level", "MEDIUM", "Level treated as a positive verdict (MEDIUM or HIGH)")
	sampleRate := flag.Float64("sample", 1.0, "Sample rate for legitimate messages (0.0-1.0)")
	verbose := flag.Bool("verbose", false, "Print each message result")
	flag.Parse()

	if *csvPath == "" {
		fmt.Println("Usage: benchmark -csv /path/to/sms.csv [-url http://localhost:8080]")
		fmt.Println("\nFlags:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	fmt.Println("╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║          SHRIKE BENCHMARK - SMS Phishing Detection            ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")
	fmt.Printf("\nCSV File:    %s\n", *csvPath)
	fmt.Printf("Shrike URL:  %s\n", *baseURL)
	fmt.Printf("Tenant ID:   %s\n", *tenantID)
	fmt.Printf("Workers:     %d\n", *workers)
	fmt.Printf("Limit:       %d\n", *limit)
	fmt.Printf("Smish Only:  %v\n", *smishOnly)
	fmt.Printf("Alert Level: %s\n", *alertLevel)
	fmt.Printf("Sample Rate: %.2f\n", *sampleRate)
	fmt.Println()

	// Check Shrike is running
	if err := checkHealth(*baseURL); err != nil {
		fmt.Printf("ERROR: Shrike not reachable at %s: %v\n", *baseURL, err)
		fmt.Println("\nMake sure Shrike is running:")
		fmt.Println("  cd shrike && go run cmd/shrike/main.go")
		os.Exit(1)
	}
	fmt.Println("✓ Shrike is healthy")

	// Read labeled SMS data
	fmt.Printf("\nReading labeled SMS data from %s...\n", *csvPath)
	messages, err := readLabeledCSV(*csvPath, *limit, *smishOnly, *sampleRate)
	if err != nil {
		fmt.Printf("ERROR: Failed to read CSV: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Loaded %d messages\n", len(messages))

	// Count smish vs legitimate
	smishCount := 0
	for _, m := range messages {
		if m.IsSmish {
			smishCount++
		}
	}
	fmt.Printf("  - Smishing:   %d (%.2f%%)\n", smishCount, 100*float64(smishCount)/float64(len(messages)))
	fmt.Printf("  - Legitimate: %d (%.2f%%)\n", len(messages)-smishCount, 100*float64(len(messages)-smishCount)/float64(len(messages)))

	// Run benchmark
	fmt.Printf("\nRunning benchmark with %d workers...\n", *workers)
	startTime := time.Now()
	metrics := runBenchmark(messages, *baseURL, *tenantID, *workers, strings.ToUpper(*alertLevel), *verbose)
	duration := time.Since(startTime)

	// Print results
	printResults(metrics, duration)
}

func checkHealth(baseURL string) error {
	resp, err := http.Get(baseURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// readLabeledCSV reads rows of label,sender,text. The header row is
// optional; a first column of "1", "smish", or "spam" marks a phishing
// message. Two-column files (label,text) are accepted too.
func readLabeledCSV(path string, limit int, smishOnly bool, sampleRate float64) ([]LabeledMessage, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	var messages []LabeledMessage
	sampleCounter := 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // Skip malformed rows
		}
		if len(record) < 2 {
			continue
		}

		label := strings.ToLower(strings.TrimSpace(record[0]))
		if label == "label" {
			continue // Header row
		}
		isSmish := label == "1" || label == "smish" || label == "spam"

		// Apply filters
		if smishOnly && !isSmish {
			continue
		}

		// Sample legitimate messages
		if !isSmish && sampleRate < 1.0 {
			sampleCounter++
			if float64(sampleCounter%100)/100.0 >= sampleRate {
				continue
			}
		}

		sender := "benchmark"
		text := record[1]
		if len(record) >= 3 {
			sender = record[1]
			text = record[2]
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		messages = append(messages, LabeledMessage{
			Sender:  sender,
			Text:    text,
			IsSmish: isSmish,
		})

		if limit > 0 && len(messages) >= limit {
			break
		}
	}

	return messages, nil
}

func runBenchmark(messages []LabeledMessage, baseURL, tenantID string, numWorkers int, alertLevel string, verbose bool) *Metrics {
	metrics := &Metrics{}

	// Create work channel
	work := make(chan LabeledMessage, 100)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := &http.Client{Timeout: 10 * time.Second}

			for m := range work {
				start := time.Now()
				result, err := analyzeMessage(client, baseURL, tenantID, m)
				elapsed := time.Since(start).Milliseconds()

				atomic.AddInt64(&metrics.ProcessingTimeMs, elapsed)
				atomic.AddInt64(&metrics.TotalProcessed, 1)

				if err != nil {
					atomic.AddInt64(&metrics.TotalErrors, 1)
					if verbose {
						fmt.Printf("ERROR: %s -> %v\n", m.Sender, err)
					}
					continue
				}

				// Track actual labels
				if m.IsSmish {
					atomic.AddInt64(&metrics.TotalSmish, 1)
				} else {
					atomic.AddInt64(&metrics.TotalHam, 1)
				}

				// Calculate confusion matrix
				predicted := levelAtLeast(result.Level, alertLevel)
				actual := m.IsSmish

				if predicted && actual {
					atomic.AddInt64(&metrics.TruePositives, 1)
				} else if predicted && !actual {
					atomic.AddInt64(&metrics.FalsePositives, 1)
				} else if !predicted && !actual {
					atomic.AddInt64(&metrics.TrueNegatives, 1)
				} else { // !predicted && actual
					atomic.AddInt64(&metrics.FalseNegatives, 1)
				}

				if verbose {
					status := "✓"
					if (predicted && !actual) || (!predicted && actual) {
						status = "✗"
					}
					text := m.Text
					if len(text) > 40 {
						text = text[:40]
					}
					fmt.Printf("%s %-40s | Smish: %-5v | Shrike: %-6s (%3d) | %v\n",
						status,
						text,
						m.IsSmish,
						result.Level,
						result.Score,
						result.Reasons,
					)
				}
			}
		}()
	}

	// Send work
	for _, m := range messages {
		work <- m
	}
	close(work)

	// Wait for completion
	wg.Wait()

	return metrics
}

// levelAtLeast orders verdict levels LOW < MEDIUM < HIGH.
func levelAtLeast(level, min string) bool {
	rank := map[string]int{"LOW": 1, "MEDIUM": 2, "HIGH": 3}
	return rank[level] >= rank[min]
}

func analyzeMessage(client *http.Client, baseURL, tenantID string, m LabeledMessage) (*AnalyzeResponse, error) {
	req := AnalyzeRequest{
		Sender: m.Sender,
		Text:   m.Text,
		Source: "benchmark",
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequest(http.MethodPost, baseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Tenant-ID", tenantID)

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var result AnalyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	return &result, nil
}

func printResults(m *Metrics, duration time.Duration) {
	fmt.Println("\n╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                      BENCHMARK RESULTS                        ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")

	fmt.Printf("\n📊 DATASET STATISTICS\n")
	fmt.Printf("   Total Processed:  %d\n", m.TotalProcessed)
	fmt.Printf("   Total Smishing:   %d\n", m.TotalSmish)
	fmt.Printf("   Total Legitimate: %d\n", m.TotalHam)
	fmt.Printf("   Errors:           %d\n", m.TotalErrors)

	fmt.Printf("\n📈 CONFUSION MATRIX\n")
	fmt.Println("                        Predicted")
	fmt.Println("                   FLAG        PASS")
	fmt.Println("              ┌──────────┬──────────┐")
	fmt.Printf("   Actual  S  │ %8d │ %8d │  (TP, FN)\n", m.TruePositives, m.FalseNegatives)
	fmt.Println("              ├──────────┼──────────┤")
	fmt.Printf("           L  │ %8d │ %8d │  (FP, TN)\n", m.FalsePositives, m.TrueNegatives)
	fmt.Println("              └──────────┴──────────┘")

	// Calculate metrics
	precision := float64(0)
	if m.TruePositives+m.FalsePositives > 0 {
		precision = float64(m.TruePositives) / float64(m.TruePositives+m.FalsePositives)
	}

	recall := float64(0)
	if m.TruePositives+m.FalseNegatives > 0 {
		recall = float64(m.TruePositives) / float64(m.TruePositives+m.FalseNegatives)
	}

	f1 := float64(0)
	if precision+recall > 0 {
		f1 = 2 * (precision * recall) / (precision + recall)
	}

	accuracy := float64(0)
	total := m.TruePositives + m.TrueNegatives + m.FalsePositives + m.FalseNegatives
	if total > 0 {
		accuracy = float64(m.TruePositives+m.TrueNegatives) / float64(total)
	}

	fmt.Printf("\n🎯 DETECTION METRICS\n")
	fmt.Printf("   Precision:  %.4f  (of flagged messages, how many were actual smishing)\n", precision)
	fmt.Printf("   Recall:     %.4f  (of smishing, how many did we catch)\n", recall)
	fmt.Printf("   F1-Score:   %.4f  (harmonic mean of precision & recall)\n", f1)
	fmt.Printf("   Accuracy:   %.4f  (overall correct predictions)\n", accuracy)

	// Detection rate analysis
	fmt.Printf("\n🔍 DETECTION ANALYSIS\n")
	if m.TotalSmish > 0 {
		detectionRate := float64(m.TruePositives) / float64(m.TotalSmish) * 100
		missRate := float64(m.FalseNegatives) / float64(m.TotalSmish) * 100
		fmt.Printf("   Smishing Caught:   %d / %d (%.2f%%)\n", m.TruePositives, m.TotalSmish, detectionRate)
		fmt.Printf("   Smishing Missed:   %d / %d (%.2f%%) ⚠️\n", m.FalseNegatives, m.TotalSmish, missRate)
	}
	if m.TotalHam > 0 {
		falseAlarmRate := float64(m.FalsePositives) / float64(m.TotalHam) * 100
		fmt.Printf("   False Alarms:      %d / %d (%.2f%%)\n", m.FalsePositives, m.TotalHam, falseAlarmRate)
	}

	fmt.Printf("\n⏱️  PERFORMANCE\n")
	fmt.Printf("   Total Duration:   %v\n", duration.Round(time.Millisecond))
	if m.TotalProcessed > 0 {
		avgMs := float64(m.ProcessingTimeMs) / float64(m.TotalProcessed)
		mps := float64(m.TotalProcessed) / duration.Seconds()
		fmt.Printf("   Avg Latency:      %.2f ms\n", avgMs)
		fmt.Printf("   Throughput:       %.2f msg/sec\n", mps)
	}

	// Interpretation
	fmt.Printf("\n💡 INTERPRETATION\n")
	if recall >= 0.9 {
		fmt.Println("   ✅ Excellent recall - catching most smishing")
	} else if recall >= 0.7 {
		fmt.Println("   ⚠️  Good recall - but missing some smishing")
	} else if recall >= 0.5 {
		fmt.Println("   ⚠️  Moderate recall - significant smishing being missed")
	} else {
		fmt.Println("   ❌ Poor recall - most smishing is being missed!")
	}

	if precision >= 0.5 {
		fmt.Println("   ✅ Good precision - flags are meaningful")
	} else if precision >= 0.2 {
		fmt.Println("   ⚠️  Low precision - many false alarms")
	} else {
		fmt.Println("   ❌ Very low precision - mostly false alarms")
	}

	fmt.Println()
}
