package main

import (
	"fmt"
	"sync"
	"testing"
)

func TestBroadcastToAllEvictsSlowClientsConcurrently(t *testing.T) {
	session := &Session{
		id:      "session-1",
		clients: make(map[string]*Client),
	}
	// unbuffered channels with no reader, every client counts as slow
	for i := 0; i < 20; i++ {
		id := fmt.Sprintf("user-%d", i)
		session.clients[id] = &Client{
			sessionId: "session-1",
			userId:    id,
			send:      make(chan []byte),
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session.broadcastToAll(Message{Type: "job_update", SessionId: "session-1"})
		}()
	}
	wg.Wait()

	session.mutex.RLock()
	defer session.mutex.RUnlock()
	if len(session.clients) != 0 {
		t.Fatalf("slow clients remaining = %d, want 0", len(session.clients))
	}
}

func TestBroadcastToAllDeliversToListeningClients(t *testing.T) {
	session := &Session{
		id:      "session-2",
		clients: make(map[string]*Client),
	}
	client := &Client{
		sessionId: "session-2",
		userId:    "listener",
		send:      make(chan []byte, 4),
	}
	session.clients[client.userId] = client

	session.broadcastToAll(Message{Type: "job_update", SessionId: "session-2"})

	select {
	case msg := <-client.send:
		if len(msg) == 0 {
			t.Fatal("empty broadcast payload")
		}
	default:
		t.Fatal("listening client received no message")
	}

	session.mutex.RLock()
	defer session.mutex.RUnlock()
	if len(session.clients) != 1 {
		t.Fatalf("listening client was evicted, clients = %d", len(session.clients))
	}
}
