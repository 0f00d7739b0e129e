package dispatch

// Engine-owned hook names. Engine-internal operations resolve these
// through ResolveHook instead of naming author events directly.
const (
	// HookActorEntered fires on the destination place after an actor moves in.
	HookActorEntered = "actor_entered"
	// HookActorLeft fires on the origin place after an actor moves out.
	HookActorLeft = "actor_left"
	// HookVisibilityCheck asks whether an entity is observable.
	HookVisibilityCheck = "visibility_check"
	// HookItemTaken fires on an item after it enters an actor's possession.
	HookItemTaken = "item_taken"
)

// ResolveHook translates a stable engine hook identifier into the
// currently-registered event name. An unclaimed hook returns ("", false):
// the engine operation proceeds without invoking any event, a deliberate
// no-op, because hooks are optional extension points.
func (r *Registry) ResolveHook(hook string) (string, bool) {
	b, ok := r.hookTable[hook]
	if !ok {
		return "", false
	}
	return b.Event, true
}
