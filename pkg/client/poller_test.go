package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// messageServer serves /api/v1/dms/{id}/messages from an in-memory slice,
// honoring the `after` cursor the way the real store does.
type messageServer struct {
	mu       sync.Mutex
	messages []Message
	failing  bool
	requests int
}

func (s *messageServer) add(id, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, Message{ID: id, Content: content, CreatedAt: time.Now()})
}

func (s *messageServer) setFailing(failing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing = failing
}

func (s *messageServer) handler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests++

	if s.failing {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{"error": map[string]string{"code": "INTERNAL", "message": "boom"}})
		return
	}

	after := r.URL.Query().Get("after")
	var out []Message
	for _, m := range s.messages {
		if after == "" || m.ID > after {
			out = append(out, m)
		}
	}
	json.NewEncoder(w).Encode(MessageList{Messages: out})
}

func TestMessagePollerEmitsEachMessageOnce(t *testing.T) {
	srv := &messageServer{}
	ts := httptest.NewServer(http.HandlerFunc(srv.handler))
	defer ts.Close()

	srv.add("01AAAAAAAAAAAAAAAAAAAAAAAA", "first")

	c := NewClient(ts.URL, "token")
	p := NewMessagePoller(c, "conv-1", "", 10*time.Millisecond)

	var mu sync.Mutex
	var received []string
	gotFirst := make(chan struct{})
	gotSecond := make(chan struct{})
	p.OnMessages = func(msgs []Message) {
		mu.Lock()
		defer mu.Unlock()
		for _, m := range msgs {
			received = append(received, m.ID)
		}
		switch len(received) {
		case 1:
			close(gotFirst)
		case 2:
			close(gotSecond)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	select {
	case <-gotFirst:
	case <-time.After(2 * time.Second):
		t.Fatal("never received the initial message")
	}

	srv.add("01BBBBBBBBBBBBBBBBBBBBBBBB", "second")

	select {
	case <-gotSecond:
	case <-time.After(2 * time.Second):
		t.Fatal("never received the appended message")
	}

	// Let a few more ticks run: known messages must not be re-emitted.
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop on cancel")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 2 {
		t.Fatalf("received %v, want exactly one emission per message", received)
	}
	if received[0] != "01AAAAAAAAAAAAAAAAAAAAAAAA" || received[1] != "01BBBBBBBBBBBBBBBBBBBBBBBB" {
		t.Errorf("wrong order: %v", received)
	}
	if p.Cursor() != "01BBBBBBBBBBBBBBBBBBBBBBBB" {
		t.Errorf("cursor = %q, want newest id", p.Cursor())
	}
}

func TestMessagePollerSurvivesFailedTicks(t *testing.T) {
	srv := &messageServer{}
	ts := httptest.NewServer(http.HandlerFunc(srv.handler))
	defer ts.Close()

	c := NewClient(ts.URL, "token")
	p := NewMessagePoller(c, "conv-1", "", 5*time.Millisecond)

	got := make(chan struct{})
	var once sync.Once
	p.OnMessages = func(msgs []Message) {
		once.Do(func() { close(got) })
	}

	srv.setFailing(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for !p.Stale() {
		if time.Now().After(deadline) {
			t.Fatal("poller never reported stale under sustained failure")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Recovery: the loop kept ticking, so the next success both delivers
	// and clears the indicator.
	srv.add("01AAAAAAAAAAAAAAAAAAAAAAAA", "late")
	srv.setFailing(false)

	select {
	case <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not recover after failures")
	}

	deadline = time.Now().Add(2 * time.Second)
	for p.Stale() {
		if time.Now().After(deadline) {
			t.Fatal("stale indicator never cleared after success")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	<-done
}

func TestConversationPollerReplacesSnapshot(t *testing.T) {
	var mu sync.Mutex
	summaries := []ConversationSummary{}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		json.NewEncoder(w).Encode(summaries)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "token")
	p := NewConversationPoller(c, 10*time.Millisecond)

	updates := make(chan int, 64)
	p.OnUpdate = func(s []ConversationSummary) {
		updates <- len(s)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	waitFor := func(want int) {
		t.Helper()
		deadline := time.After(2 * time.Second)
		for {
			select {
			case n := <-updates:
				if n == want {
					return
				}
			case <-deadline:
				t.Fatalf("never saw a snapshot with %d summaries", want)
			}
		}
	}

	waitFor(0)

	mu.Lock()
	summaries = append(summaries, ConversationSummary{HasUnread: true})
	mu.Unlock()

	waitFor(1)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop on cancel")
	}
}
