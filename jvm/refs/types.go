package refs

// Handle is an opaque reference into a Table.
// Handle 0 is reserved and always invalid.
type Handle uint32

// Scope distinguishes local from global references.
type Scope uint8

const (
	Local Scope = iota
	Global
)

func (s Scope) String() string {
	if s == Global {
		return "global"
	}
	return "local"
}

// EventType identifies a reference lifecycle event.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDeleted
)

// Event describes one reference lifecycle change.
type Event struct {
	Value  any
	Handle Handle
	Scope  Scope
	Type   EventType
}

// Observer receives notifications about reference lifecycle events.
type Observer interface {
	OnRefEvent(Event)
}

// Dropper is optionally implemented by referenced values that need cleanup
// when a reference to them goes away.
type Dropper interface {
	Drop()
}
