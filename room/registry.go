package room

import (
	"context"
	"crypto/rand"
	"errors"
	"log/slog"
	"sync"
	"time"

	"hanamikoji-server/config"
	"hanamikoji-server/protocol"
	"hanamikoji-server/snapshot"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomClosed   = errors.New("room no longer exists")
)

const (
	roomIDAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	roomIDLength   = 6
)

// Registry tracks every live room in the process and rehydrates rooms from
// the snapshot store when a player rejoins after a server restart or GC.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	cfg   *config.Config
	store snapshot.Store
}

func NewRegistry(cfg *config.Config, store snapshot.Store) *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
		cfg:   cfg,
		store: store,
	}
}

// newRoomID generates a short join code. The alphabet omits easily confused
// characters (0/O, 1/I).
func newRoomID() (string, error) {
	buf := make([]byte, roomIDLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = roomIDAlphabet[int(b)%len(roomIDAlphabet)]
	}
	return string(buf), nil
}

// CreateRoom allocates a room with the creator seated and attached. In "npc"
// mode the AI seat is added immediately and the order decision countdown is
// armed; otherwise the room waits for a second player.
func (reg *Registry) CreateRoom(p protocol.CreateRoomPayload, send chan []byte) (*Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	var id string
	for {
		candidate, err := newRoomID()
		if err != nil {
			return nil, err
		}
		if _, taken := reg.rooms[candidate]; !taken {
			id = candidate
			break
		}
	}

	r := New(id, reg.cfg, reg.store, p.PlayerID, p.PlayerName, p.GeishaSet)
	r.OnEmpty = reg.remove
	r.MarkAttached(p.PlayerID, send)
	if p.Mode == "npc" {
		r.AddAISeat(p.AIDifficulty)
		r.maybeStartOrderDecision()
	}
	reg.rooms[id] = r
	go r.Run()
	slog.Info("room created", "tag", "registry", "roomId", id, "mode", p.Mode)
	return r, nil
}

// Get returns a live room.
func (reg *Registry) Get(roomID string) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	r, ok := reg.rooms[roomID]
	return r, ok
}

// Lookup returns a live room, falling back to the snapshot store so a player
// can rejoin a room whose in-memory actor is gone.
func (reg *Registry) Lookup(ctx context.Context, roomID string) (*Room, error) {
	if r, ok := reg.Get(roomID); ok {
		return r, nil
	}
	if reg.store == nil {
		return nil, ErrRoomNotFound
	}
	data, err := reg.store.Get(ctx, snapshot.RoomKey(roomID))
	if err != nil {
		slog.Error("reading room snapshot", "tag", "registry", "roomId", roomID, "err", err)
		return nil, ErrRoomNotFound
	}
	if data == nil {
		return nil, ErrRoomNotFound
	}
	r, err := Restore(data, reg.cfg, reg.store)
	if err != nil {
		slog.Error("restoring room snapshot", "tag", "registry", "roomId", roomID, "err", err)
		return nil, ErrRoomNotFound
	}
	r.OnEmpty = reg.remove

	reg.mu.Lock()
	if existing, ok := reg.rooms[roomID]; ok {
		// Lost a rehydration race; use the registered room.
		reg.mu.Unlock()
		return existing, nil
	}
	reg.rooms[roomID] = r
	reg.mu.Unlock()

	r.rearmTimers()
	go r.Run()
	slog.Info("room rehydrated", "tag", "registry", "roomId", roomID)
	return r, nil
}

// Count reports the number of live rooms.
func (reg *Registry) Count() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}

// remove is wired as Room.OnEmpty. It unregisters the room and optionally
// deletes the stored snapshot.
func (reg *Registry) remove(roomID string, deleteSnapshot bool) {
	reg.mu.Lock()
	delete(reg.rooms, roomID)
	reg.mu.Unlock()
	if deleteSnapshot && reg.store != nil {
		store := reg.store
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := store.Delete(ctx, snapshot.RoomKey(roomID)); err != nil {
				slog.Warn("deleting room snapshot", "tag", "registry", "roomId", roomID, "err", err)
			}
		}()
	}
}
