// Package archive persists the observable room snapshot after every domain
// event. The registry stays authoritative in memory; the store is a durable
// shadow for inspection and post-mortems.
package archive

import (
	"context"
	"encoding/json"
	"log"

	"github.com/fableroom/fableroom/internal/event"
	"github.com/fableroom/fableroom/internal/service"
	"github.com/fableroom/fableroom/internal/storage"
)

// Archiver mirrors room state into a snapshot store.
type Archiver struct {
	store storage.SnapshotStore
	svc   *service.Set
}

// New wires an archiver to the bus. Every event carrying a room id
// refreshes that room's snapshot; room deletion removes it.
func New(store storage.SnapshotStore, svc *service.Set, bus *event.Bus) *Archiver {
	a := &Archiver{store: store, svc: svc}

	types := []event.Type{
		event.TypeRoomCreated,
		event.TypePlayerJoined,
		event.TypePlayerLeft,
		event.TypePlayerReady,
		event.TypePlayerKicked,
		event.TypePlayerAction,
		event.TypePlayerDied,
		event.TypeHostTransferred,
		event.TypeMatchStarted,
		event.TypeMatchPaused,
		event.TypeMatchResumed,
		event.TypeMatchEnded,
		event.TypeTurnStarted,
		event.TypeTurnCompleted,
		event.TypeDMNarration,
	}
	for _, t := range types {
		bus.Subscribe(t, func(e event.Event) { a.persist(e.RoomID) })
	}
	bus.Subscribe(event.TypeRoomDeleted, func(e event.Event) { a.remove(e.RoomID) })
	return a
}

func (a *Archiver) persist(roomID string) {
	if roomID == "" {
		return
	}
	out, err := a.svc.GameState.Snapshot(roomID)
	if err != nil {
		log.Printf("archive: snapshot room %s: %v", roomID, err)
		return
	}
	if !out.OK() {
		// The room can vanish between the event and the snapshot.
		return
	}
	payload, err := json.Marshal(out.Payload)
	if err != nil {
		log.Printf("archive: encode room %s: %v", roomID, err)
		return
	}
	record := storage.RoomRecord{RoomID: roomID, Snapshot: payload}
	if err := a.store.SaveSnapshot(context.Background(), record); err != nil {
		log.Printf("archive: save room %s: %v", roomID, err)
	}
}

func (a *Archiver) remove(roomID string) {
	if roomID == "" {
		return
	}
	if err := a.store.DeleteSnapshot(context.Background(), roomID); err != nil {
		log.Printf("archive: delete room %s: %v", roomID, err)
	}
}
