package main

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"prompt-forge-server/modules/common/config"
	"prompt-forge-server/modules/common/gemini"
	"prompt-forge-server/modules/common/overrides"
	commonredis "prompt-forge-server/modules/common/redis"
	"prompt-forge-server/modules/fashion"
	"prompt-forge-server/modules/ingest"
	"prompt-forge-server/modules/promptgen"
	"prompt-forge-server/modules/replicate"
	"prompt-forge-server/modules/worker"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for development.
		// Restrict to known domains in production.
		return true
	},
}

// Client - a connected WebSocket client
type Client struct {
	conn      *websocket.Conn
	sessionId string
	userId    string
	send      chan []byte
}

// Session - a group of clients watching the same generation session
type Session struct {
	id           string
	clients      map[string]*Client
	mutex        sync.RWMutex
	createdAt    time.Time
	lastActivity time.Time
}

// SessionManager - tracks active sessions
type SessionManager struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
	metrics  *ServerMetrics
}

// ServerMetrics - server-wide counters
type ServerMetrics struct {
	TotalSessions    int       `json:"totalSessions"`
	ActiveSessions   int       `json:"activeSessions"`
	TotalConnections int       `json:"totalConnections"`
	StartTime        time.Time `json:"startTime"`
	mutex            sync.RWMutex
}

var sessionManager = &SessionManager{
	sessions: make(map[string]*Session),
	metrics: &ServerMetrics{
		StartTime: time.Now(),
	},
}

// Message - WebSocket message envelope
type Message struct {
	Type      string           `json:"type"`
	SessionId string           `json:"sessionId,omitempty"`
	UserId    string           `json:"userId,omitempty"`
	Job       *worker.ImageJob `json:"job,omitempty"`
}

// getOrCreateSession - fetch an existing session or create one
func (sm *SessionManager) getOrCreateSession(sessionId string) *Session {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	session, exists := sm.sessions[sessionId]
	if !exists {
		now := time.Now()
		session = &Session{
			id:           sessionId,
			clients:      make(map[string]*Client),
			createdAt:    now,
			lastActivity: now,
		}
		sm.sessions[sessionId] = session

		sm.metrics.mutex.Lock()
		sm.metrics.TotalSessions++
		sm.metrics.ActiveSessions++
		sm.metrics.mutex.Unlock()

		log.Printf("✅ Created new session: %s (Total: %d, Active: %d)",
			sessionId, sm.metrics.TotalSessions, sm.metrics.ActiveSessions)
	}

	session.lastActivity = time.Now()
	return session
}

// lookupSession - fetch a session without creating it
func (sm *SessionManager) lookupSession(sessionId string) *Session {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return sm.sessions[sessionId]
}

// addClient - register a client in the session
func (s *Session) addClient(client *Client) {
	s.mutex.Lock()
	s.clients[client.userId] = client
	s.lastActivity = time.Now()
	clientCount := len(s.clients)
	s.mutex.Unlock()

	sessionManager.metrics.mutex.Lock()
	sessionManager.metrics.TotalConnections++
	sessionManager.metrics.mutex.Unlock()

	log.Printf("👤 Client %s joined session %s (Clients: %d, Total Connections: %d)",
		client.userId, s.id, clientCount, sessionManager.metrics.TotalConnections)
}

// removeClient - drop a client from the session
func (s *Session) removeClient(userId string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if client, exists := s.clients[userId]; exists {
		close(client.send)
		delete(s.clients, userId)
		s.lastActivity = time.Now()

		log.Printf("👋 Client %s left session %s (Remaining: %d)", userId, s.id, len(s.clients))

		if len(s.clients) == 0 {
			log.Printf("🗑️  Session %s is now empty, will be cleaned up", s.id)
		}
	}
}

// broadcastToAll - send a message to every client in the session
// Slow clients are collected under the read lock and evicted under the
// write lock, so concurrent broadcasts never mutate the map while ranging.
func (s *Session) broadcastToAll(message Message) {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling message: %v", err)
		return
	}

	var stale []*Client
	s.mutex.RLock()
	for _, client := range s.clients {
		select {
		case client.send <- messageBytes:
		default:
			stale = append(stale, client)
		}
	}
	s.mutex.RUnlock()

	if len(stale) == 0 {
		return
	}

	s.mutex.Lock()
	for _, client := range stale {
		// another broadcast or removeClient may have evicted it already
		if s.clients[client.userId] == client {
			close(client.send)
			delete(s.clients, client.userId)
			log.Printf("⚠️ Dropped slow client %s from session %s", client.userId, s.id)
		}
	}
	s.mutex.Unlock()
}

// cleanupEmptySessions - remove sessions with no connected clients
func (sm *SessionManager) cleanupEmptySessions() {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	cleaned := 0
	for sessionId, session := range sm.sessions {
		session.mutex.RLock()
		isEmpty := len(session.clients) == 0
		session.mutex.RUnlock()

		if isEmpty {
			delete(sm.sessions, sessionId)
			cleaned++

			sm.metrics.mutex.Lock()
			sm.metrics.ActiveSessions--
			sm.metrics.mutex.Unlock()

			log.Printf("🧹 Cleaned up empty session: %s", sessionId)
		}
	}

	if cleaned > 0 {
		log.Printf("🗑️  Cleaned up %d empty sessions (Active: %d)", cleaned, sm.metrics.ActiveSessions)
	}
}

// cleanupExpiredSessions - remove sessions older than 24h or idle for 2h
func (sm *SessionManager) cleanupExpiredSessions() {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	now := time.Now()
	expiredThreshold := 24 * time.Hour
	inactiveThreshold := 2 * time.Hour

	cleaned := 0
	for sessionId, session := range sm.sessions {
		session.mutex.RLock()
		isExpired := now.Sub(session.createdAt) > expiredThreshold
		isInactive := now.Sub(session.lastActivity) > inactiveThreshold && len(session.clients) == 0
		session.mutex.RUnlock()

		if isExpired || isInactive {
			session.mutex.Lock()
			for userId, client := range session.clients {
				close(client.send)
				log.Printf("🔌 Disconnecting client %s from expired session %s", userId, sessionId)
			}
			session.mutex.Unlock()

			delete(sm.sessions, sessionId)
			cleaned++

			sm.metrics.mutex.Lock()
			sm.metrics.ActiveSessions--
			sm.metrics.mutex.Unlock()

			reason := "expired"
			if isInactive {
				reason = "inactive"
			}
			log.Printf("⏰ Cleaned up %s session: %s (Age: %v, Inactive: %v)",
				reason, sessionId, now.Sub(session.createdAt), now.Sub(session.lastActivity))
		}
	}

	if cleaned > 0 {
		log.Printf("🧼 Cleaned up %d expired/inactive sessions (Active: %d)", cleaned, sm.metrics.ActiveSessions)
	}
}

// startCleanupRoutine - periodic session cleanup
func (sm *SessionManager) startCleanupRoutine() {
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			sm.cleanupEmptySessions()
		}
	}()

	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			sm.cleanupExpiredSessions()
		}
	}()

	log.Printf("🔄 Started session cleanup routines (Empty: 5min, Expired: 30min)")
}

// notifyJobUpdate - push a job status change to the job's session
func notifyJobUpdate(job worker.ImageJob) {
	if job.SessionID == "" {
		return
	}

	session := sessionManager.lookupSession(job.SessionID)
	if session == nil {
		return
	}

	session.broadcastToAll(Message{
		Type:      "job_update",
		SessionId: job.SessionID,
		Job:       &job,
	})
	log.Printf("📤 Broadcast job_update for job %s (status: %s) to session %s",
		job.ID, job.Status, job.SessionID)
}

// handleWebSocket - upgrade and attach a client to its session
func handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	sessionId := r.URL.Query().Get("session")
	userId := r.URL.Query().Get("user")

	if sessionId == "" || userId == "" {
		log.Printf("Missing session or user parameter")
		conn.Close()
		return
	}

	client := &Client{
		conn:      conn,
		sessionId: sessionId,
		userId:    userId,
		send:      make(chan []byte, 256),
	}

	log.Printf("🔍 New WebSocket connection - Session: %s, User: %s", sessionId, userId)

	session := sessionManager.getOrCreateSession(sessionId)
	session.addClient(client)

	go client.writePump()
	go client.readPump(session)
}

// readPump - drain client messages, keeping the connection alive
func (c *Client) readPump(session *Session) {
	defer func() {
		session.removeClient(c.userId)
		c.conn.Close()
	}()

	for {
		var message Message
		err := c.conn.ReadJSON(&message)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		// Clients only subscribe; job updates flow server to client.
		// Ping keeps the session's activity timestamp fresh.
		if message.Type == "ping" {
			session.mutex.Lock()
			session.lastActivity = time.Now()
			session.mutex.Unlock()
		}
	}
}

// writePump - deliver queued messages to the client
func (c *Client) writePump() {
	defer c.conn.Close()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("WebSocket write error: %v", err)
				return
			}
		}
	}
}

// enableCORS - CORS middleware for all routes
func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// healthCheck - liveness endpoint
func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "prompt-forge-server",
	})
}

// getSessionInfo - inspect a single session
func getSessionInfo(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sessionId := vars["sessionId"]

	session := sessionManager.lookupSession(sessionId)
	if session == nil {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "Session not found",
		})
		return
	}

	session.mutex.RLock()
	clientCount := len(session.clients)
	clientIds := make([]string, 0, len(session.clients))
	for userId := range session.clients {
		clientIds = append(clientIds, userId)
	}
	session.mutex.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"sessionId":    sessionId,
		"clientCount":  clientCount,
		"clients":      clientIds,
		"createdAt":    session.createdAt,
		"lastActivity": session.lastActivity,
		"age":          time.Since(session.createdAt).String(),
		"inactive":     time.Since(session.lastActivity).String(),
	})
}

// getMetrics - server metrics endpoint
func getMetrics(w http.ResponseWriter, r *http.Request) {
	sessionManager.metrics.mutex.RLock()
	metrics := *sessionManager.metrics
	sessionManager.metrics.mutex.RUnlock()

	uptime := time.Since(metrics.StartTime)

	sessionManager.mutex.RLock()
	sessionDetails := make([]map[string]interface{}, 0, len(sessionManager.sessions))
	totalClients := 0

	for sessionId, session := range sessionManager.sessions {
		session.mutex.RLock()
		clientCount := len(session.clients)
		totalClients += clientCount

		sessionDetails = append(sessionDetails, map[string]interface{}{
			"sessionId":    sessionId,
			"clientCount":  clientCount,
			"createdAt":    session.createdAt,
			"lastActivity": session.lastActivity,
			"age":          time.Since(session.createdAt).String(),
			"inactive":     time.Since(session.lastActivity).String(),
		})
		session.mutex.RUnlock()
	}
	sessionManager.mutex.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"server": map[string]interface{}{
			"uptime":           uptime.String(),
			"startTime":        metrics.StartTime,
			"totalSessions":    metrics.TotalSessions,
			"activeSessions":   metrics.ActiveSessions,
			"totalConnections": metrics.TotalConnections,
			"currentClients":   totalClients,
		},
		"sessions": sessionDetails,
	})
}

// forceCleanupSessions - admin endpoint to run cleanup immediately
func forceCleanupSessions(w http.ResponseWriter, r *http.Request) {
	sessionManager.cleanupEmptySessions()
	sessionManager.cleanupExpiredSessions()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "Cleanup completed",
	})
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	rdb, err := commonredis.Connect(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to Redis: %v", err)
	}

	sessionManager.startCleanupRoutine()

	// Prompt generation services
	geminiClient := gemini.NewClient(cfg)
	overrideStore := overrides.NewStore(rdb)

	promptService := promptgen.NewService(geminiClient)
	fashionService := fashion.NewService(geminiClient, overrideStore)

	// Image generation queue worker
	bridge := replicate.NewService(cfg)
	if bridge != nil {
		go worker.StartWorker(rdb, bridge, notifyJobUpdate)
	} else {
		log.Printf("⚠️ Replicate bridge disabled, image generation jobs will not be processed")
	}

	// Router setup
	r := mux.NewRouter()
	r.Use(enableCORS)

	r.HandleFunc("/", healthCheck).Methods("GET")
	r.HandleFunc("/health", healthCheck).Methods("GET")
	r.HandleFunc("/ws", handleWebSocket)
	r.HandleFunc("/session/{sessionId}", getSessionInfo).Methods("GET")
	r.HandleFunc("/metrics", getMetrics).Methods("GET")
	r.HandleFunc("/admin/cleanup", forceCleanupSessions).Methods("POST")

	ingest.NewHandler().RegisterRoutes(r)
	promptgen.NewHandler(promptService).RegisterRoutes(r)
	fashion.NewHandler(fashionService, overrideStore).RegisterRoutes(r)
	if enqueue := worker.NewEnqueueHandler(rdb); enqueue != nil {
		enqueue.RegisterRoutes(r)
	}

	log.Printf("🚀 Prompt Forge Server starting on port %s", cfg.Port)
	log.Printf("📡 WebSocket endpoint: ws://localhost:%s/ws", cfg.Port)
	log.Printf("❤️  Health check: http://localhost:%s/health", cfg.Port)
	log.Printf("📊 Metrics: http://localhost:%s/metrics", cfg.Port)

	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
