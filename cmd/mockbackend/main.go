// Package main implements a mock study backend for manual testing of the
// console. It serves the four backend endpoints with canned replies and a few
// magic inputs that simulate failures.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/studychat/console/internal/interfaces"
)

var (
	sessionsMu sync.Mutex
	sessions   = map[string]bool{}
)

func healthHandler(w http.ResponseWriter, r *http.Request) {
	log.Printf("=== HEALTH REQUEST from %s ===", r.RemoteAddr)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(interfaces.HealthResponse{Status: "ok"})
}

func startSessionHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	log.Printf("=== SESSION START REQUEST ===")
	log.Printf("Method: %s, URL: %s, Remote: %s", r.Method, r.URL.Path, r.RemoteAddr)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("ERROR: Failed to read request body: %v", err)
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	log.Printf("Request body: %s", string(body))

	var req interfaces.StartSessionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		log.Printf("ERROR: Failed to decode session start request: %v", err)
		http.Error(w, fmt.Sprintf("JSON decode error: %v", err), http.StatusBadRequest)
		return
	}

	if req.ParticipantID == "" || req.ExperimentID == "" {
		log.Printf("ERROR: Missing pid or experiment_id")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"detail": "pid and experiment_id are required"})
		return
	}

	// Magic participant id to exercise the session-failure path in the UI
	if req.ParticipantID == "FAIL" {
		log.Printf("Simulating session start failure")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"detail": "simulated session failure"})
		return
	}

	sessionID := fmt.Sprintf("mock_%d", time.Now().UnixNano())
	sessionsMu.Lock()
	sessions[sessionID] = true
	sessionsMu.Unlock()

	resp := interfaces.StartSessionResponse{
		ChatSessionID: sessionID,
		ConditionID:   "cond_1",
		ConditionName: "baseline",
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
	log.Printf("=== SESSION START COMPLETED in %v (id=%s) ===\n", time.Since(start), sessionID)
}

func chatHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	log.Printf("=== CHAT REQUEST ===")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("ERROR: Failed to read chat request body: %v", err)
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	log.Printf("Chat request body: %s", string(body))

	var req interfaces.SendMessageRequest
	if err := json.Unmarshal(body, &req); err != nil {
		log.Printf("ERROR: Failed to decode chat request: %v", err)
		http.Error(w, fmt.Sprintf("JSON decode error: %v", err), http.StatusBadRequest)
		return
	}

	sessionsMu.Lock()
	known := sessions[req.ChatSessionID]
	sessionsMu.Unlock()
	if !known {
		log.Printf("ERROR: Unknown chat_session_id: %s", req.ChatSessionID)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"detail": "unknown chat_session_id"})
		return
	}

	log.Printf("Parsed message: '%s' (turn %s)", req.UserMessage, req.ClientTurnID)

	var resp interfaces.SendMessageResponse

	switch req.UserMessage {
	case "error":
		log.Printf("Simulating upstream failure")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]string{"detail": "simulated LLM failure"})
		return

	case "empty":
		log.Printf("Simulating malformed response without the response field")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"model": "mock"})
		return

	case "slow":
		log.Printf("Simulating a slow turn")
		time.Sleep(3 * time.Second)
		resp.Response = "That took a while, sorry."

	default:
		resp.Response = fmt.Sprintf("You said: %q. This is turn %s of our conversation.", req.UserMessage, req.ClientTurnID)
	}
	resp.Model = "mock-llm"

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
	log.Printf("=== CHAT COMPLETED in %v ===\n", time.Since(start))
}

func endSessionHandler(w http.ResponseWriter, r *http.Request) {
	log.Printf("=== SESSION END REQUEST ===")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	log.Printf("Request body: %s", string(body))

	var req interfaces.EndSessionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, fmt.Sprintf("JSON decode error: %v", err), http.StatusBadRequest)
		return
	}

	sessionsMu.Lock()
	delete(sessions, req.ChatSessionID)
	sessionsMu.Unlock()

	resp := interfaces.EndSessionResponse{
		RedirectURL: "https://example.qualtrics.com/jfe/form/SV_mock?sid=" + req.ChatSessionID,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
	log.Printf("Session ended: %s", req.ChatSessionID)
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	http.HandleFunc("/health", healthHandler)
	http.HandleFunc("/session/start", startSessionHandler)
	http.HandleFunc("/chat", chatHandler)
	http.HandleFunc("/session/end", endSessionHandler)

	fmt.Println("Mock study backend starting on :8000...")
	fmt.Println("Available endpoints:")
	fmt.Println("  GET  /health         - Liveness probe")
	fmt.Println("  POST /session/start  - Open a chat session")
	fmt.Println("  POST /chat           - One conversation turn")
	fmt.Println("  POST /session/end    - Close a chat session")
	fmt.Println()
	fmt.Println("Magic inputs after connecting:")
	fmt.Println("  error   - simulated upstream failure (502)")
	fmt.Println("  empty   - response missing the response field")
	fmt.Println("  slow    - 3s delay before replying")
	fmt.Println("  --pid FAIL simulates a session start failure")
	fmt.Println()

	if err := http.ListenAndServe(":8000", nil); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
