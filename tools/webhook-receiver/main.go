// webhook-receiver is a local stand-in for the chat webhook: point
// WEBHOOK_URL at /hook and it prints every report it receives, answering
// 204 the way Discord does.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"
)

type report struct {
	Timestamp string `json:"timestamp"`
	Content   string `json:"content"`
}

type stats struct {
	Count       int64    `json:"count"`
	LastReports []report `json:"last_reports"`
	Since       string   `json:"since"`
}

var (
	mu          sync.Mutex
	count       int64
	lastReports []report
	since       time.Time
	maxStored   = 50
)

func main() {
	since = time.Now().UTC()

	addr := ":8080"
	if v := os.Getenv("ADDR"); v != "" {
		addr = v
	}

	http.HandleFunc("/hook", hookHandler)
	http.HandleFunc("/stats", statsHandler)
	http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	http.HandleFunc("/reset", func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		count = 0
		lastReports = nil
		since = time.Now().UTC()
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "reset")
	})

	log.Printf("webhook-receiver listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, nil))
}

func hookHandler(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var payload struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		log.Printf("malformed payload: %v", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	rep := report{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Content:   payload.Content,
	}

	mu.Lock()
	count++
	lastReports = append(lastReports, rep)
	if len(lastReports) > maxStored {
		lastReports = lastReports[len(lastReports)-maxStored:]
	}
	mu.Unlock()

	log.Printf("report received:\n%s", payload.Content)
	w.WriteHeader(http.StatusNoContent)
}

func statsHandler(w http.ResponseWriter, _ *http.Request) {
	mu.Lock()
	s := stats{
		Count:       count,
		LastReports: append([]report(nil), lastReports...),
		Since:       since.Format(time.RFC3339),
	}
	mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s); err != nil {
		log.Printf("encode stats: %v", err)
	}
}
