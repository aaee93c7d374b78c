package room

// RegisterWatcher attaches a lobby-list watcher under watcherID and
// immediately sends it a full rooms_update snapshot (spec.md §4.2.1).
func (c *Coordinator) RegisterWatcher(watcherID string, ch Channel) {
	c.mu.Lock()
	c.lobbyWatchers[watcherID] = ch
	snapshot := &roomsUpdateMsg{Type: OutRoomsUpdate, Rooms: c.roomSnapshots()}
	c.mu.Unlock()

	_ = ch.Send(snapshot)
}

// UnregisterWatcher drops watcherID's channel. Unknown ids are silently
// accepted.
func (c *Coordinator) UnregisterWatcher(watcherID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.lobbyWatchers, watcherID)
}

// broadcastRoomsUpdate fans the current room-list snapshot out to every
// registered lobby watcher. Must be called without holding c.mu.
func (c *Coordinator) broadcastRoomsUpdate() {
	c.mu.Lock()
	targets := snapshotChannels(c.lobbyWatchers)
	msg := &roomsUpdateMsg{Type: OutRoomsUpdate, Rooms: c.roomSnapshots()}
	c.mu.Unlock()

	broadcast(targets, msg, c.UnregisterWatcher)
}
