package room

// broadcast sends msg to every channel in targets, snapshotted by the
// caller, and returns how many sends succeeded. Channels whose Send call
// fails are collected and handed to onFailure after the loop completes,
// so one client's transport error never prevents delivery to its
// siblings (spec.md §4.2.9, §5 failure isolation).
func broadcast(targets map[string]Channel, msg any, onFailure func(id string)) int {
	failed := make([]string, 0)
	sent := 0
	for id, ch := range targets {
		if err := ch.Send(msg); err != nil {
			failed = append(failed, id)
			continue
		}
		sent++
	}
	for _, id := range failed {
		onFailure(id)
	}
	return sent
}

// snapshotChannels copies a channel map so broadcast can iterate it
// without holding the coordinator lock across the onFailure callbacks
// (which themselves need the lock to mutate room state).
func snapshotChannels(src map[string]Channel) map[string]Channel {
	out := make(map[string]Channel, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
