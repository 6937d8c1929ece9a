package http

import (
	"encoding/json"
	"testing"
)

func TestHubDropsOldestFrameForSlowClient(t *testing.T) {
	hub := NewHub(2)
	c := hub.register("c1", "u1")

	hub.EmitToAll("tick", 1)
	hub.EmitToAll("tick", 2)
	hub.EmitToAll("tick", 3)

	if len(c.send) != 2 {
		t.Fatalf("expected buffer to stay at 2, got %d", len(c.send))
	}
	var first outboundMessage
	if err := json.Unmarshal(<-c.send, &first); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if first.Payload.(float64) != 2 {
		t.Fatalf("expected oldest frame dropped, got payload %v", first.Payload)
	}
}

func TestHubEmitToOneAndParticipants(t *testing.T) {
	hub := NewHub(4)
	a := hub.register("c1", "u1")
	b := hub.register("c2", "u1")
	anon := hub.register("c3", "")

	hub.EmitToOne("c2", "hello", "bob")
	if len(a.send) != 0 || len(b.send) != 1 || len(anon.send) != 0 {
		t.Fatalf("expected only c2 to receive, got %d/%d/%d", len(a.send), len(b.send), len(anon.send))
	}
	hub.EmitToOne("missing", "hello", "nobody")

	if n := hub.Participants(); n != 1 {
		t.Fatalf("expected one distinct participant, got %d", n)
	}
	hub.identify("c3", "u2")
	if n := hub.Participants(); n != 2 {
		t.Fatalf("expected two participants after identify, got %d", n)
	}

	hub.unregister("c1")
	hub.unregister("c1")
	if _, ok := <-a.send; ok {
		t.Fatalf("expected send channel closed")
	}
	if n := hub.Connections(); n != 2 {
		t.Fatalf("expected 2 connections, got %d", n)
	}
}
