package http

import (
	"log/slog"
	"sync"
)

// AllAssets is the subscription key receiving events for every asset.
const AllAssets = "*"

// StreamManager fans asset change events out to SSE subscribers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // AssetID -> Set of Channels
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a channel for assetID. The returned func unregisters and closes it.
func (sm *StreamManager) Subscribe(assetID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[assetID]; !ok {
		sm.subscribers[assetID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[assetID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[assetID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, assetID)
			}
		}
	}
}

// Broadcast sends msg to the subscribers of assetID and to those of AllAssets.
func (sm *StreamManager) Broadcast(assetID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	sm.logger.Debug("StreamManager: Broadcasting", "asset", assetID, "payload_size", len(msg))

	for _, key := range []string{assetID, AllAssets} {
		for ch := range sm.subscribers[key] {
			select {
			case ch <- msg:
			default:
				// Drop message if channel is full (slow client)
				sm.logger.Warn("SSE: Client buffer full, dropping message", "asset", assetID)
			}
		}
	}
}

// Subscribers returns the number of channels registered for assetID.
func (sm *StreamManager) Subscribers(assetID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[assetID])
}
