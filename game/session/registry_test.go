package session

import (
	"testing"

	"github.com/mkowalczyk/seabattle/game/engine"
)

func newParticipants() (*engine.Participant, *engine.Participant) {
	return &engine.Participant{ID: 1, Name: "alice"}, &engine.Participant{ID: 2, Name: "bob"}
}

func TestRegistry_Create(t *testing.T) {
	registry := NewRegistry()

	t.Run("creates and stores a game", func(t *testing.T) {
		p1, p2 := newParticipants()
		g := registry.Create(1, p1, p2)
		if g.ID != 1 {
			t.Errorf("Expected game id 1, got %d", g.ID)
		}
		got, ok := registry.Get(1)
		if !ok || got != g {
			t.Error("Expected Get to return the created game")
		}
	})

	t.Run("overwrites on duplicate id", func(t *testing.T) {
		p1, p2 := newParticipants()
		first := registry.Create(2, p1, p2)
		second := registry.Create(2, &engine.Participant{ID: 3, Name: "carol"}, &engine.Participant{ID: 4, Name: "dave"})
		got, _ := registry.Get(2)
		if got == first || got != second {
			t.Error("Expected duplicate id to replace the old game")
		}
	})
}

func TestRegistry_FindByPlayer(t *testing.T) {
	registry := NewRegistry()
	p1, p2 := newParticipants()
	g := registry.Create(1, p1, p2)

	if found, ok := registry.FindByPlayer(2); !ok || found != g {
		t.Error("Expected to find the game by participant id")
	}
	if _, ok := registry.FindByPlayer(99); ok {
		t.Error("Expected lookup of unknown player to fail")
	}
}

func TestRegistry_Remove(t *testing.T) {
	registry := NewRegistry()
	p1, p2 := newParticipants()
	registry.Create(1, p1, p2)

	if !registry.Remove(1) {
		t.Error("Expected removal of existing game to succeed")
	}
	if registry.Remove(1) {
		t.Error("Expected second removal to report false")
	}
	if _, ok := registry.Get(1); ok {
		t.Error("Expected game to be gone after removal")
	}
}

func TestRegistry_ListAndCount(t *testing.T) {
	registry := NewRegistry()
	if registry.Count() != 0 {
		t.Errorf("Expected empty registry, got %d", registry.Count())
	}

	registry.Create(1, &engine.Participant{ID: 1}, &engine.Participant{ID: 2})
	registry.Create(2, &engine.Participant{ID: 3}, &engine.Participant{ID: 4})

	if registry.Count() != 2 {
		t.Errorf("Expected 2 games, got %d", registry.Count())
	}
	if len(registry.List()) != 2 {
		t.Errorf("Expected List of 2 games, got %d", len(registry.List()))
	}

	registry.Reset()
	if registry.Count() != 0 {
		t.Errorf("Expected empty registry after reset, got %d", registry.Count())
	}
}
