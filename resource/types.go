package resource

import "strconv"

// Handle is an opaque reference to a live object in a Registry.
// Handle 0 is reserved and always invalid.
type Handle uint64

// Family is the type tag stored with every handle.
type Family uint32

const (
	FamilyInvalid Family = iota
	FamilyWallet
	FamilyContract
	FamilyInvoice
	FamilyKey
	FamilySession
	FamilyBuffer
	FamilySecret
	FamilyContext
)

var familyNames = [...]string{
	FamilyInvalid:  "invalid",
	FamilyWallet:   "wallet",
	FamilyContract: "contract",
	FamilyInvoice:  "invoice",
	FamilyKey:      "key",
	FamilySession:  "session",
	FamilyBuffer:   "buffer",
	FamilySecret:   "secret",
	FamilyContext:  "context",
}

func (f Family) String() string {
	if int(f) < len(familyNames) {
		return familyNames[f]
	}
	return "family(" + strconv.FormatUint(uint64(f), 10) + ")"
}

// Families lists every handle family in tag order.
func Families() []Family {
	return []Family{
		FamilyWallet, FamilyContract, FamilyInvoice, FamilyKey,
		FamilySession, FamilyBuffer, FamilySecret, FamilyContext,
	}
}

// Access selects how a lease holds its entry.
type Access uint8

const (
	// Shared leases may overlap with other shared leases on the same handle.
	Shared Access = iota
	// Exclusive leases serialize against every other lease on the same handle.
	Exclusive
)

func (a Access) String() string {
	if a == Exclusive {
		return "exclusive"
	}
	return "shared"
}

// Event types for handle lifecycle notifications.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDropped
	EventAcquired
	EventReleased
)

// Event represents a handle lifecycle event.
type Event struct {
	Value  any
	Handle Handle
	Family Family
	Type   EventType
	Access Access
}

// Observer receives notifications about handle lifecycle events.
// Observers are called synchronously and must not call back into the registry.
type Observer interface {
	OnResourceEvent(Event)
}

// Backend provides the underlying storage mechanism for handles.
type Backend interface {
	// Create stores a value and returns a fresh handle.
	Create(fam Family, value any) (Handle, error)

	// Lookup returns the live entry for a handle.
	Lookup(h Handle) (*Entry, bool)

	// Remove unlinks an entry so no new lease can find it.
	Remove(h Handle) (*Entry, bool)

	// Drain unlinks every entry and refuses further creates.
	Drain() []*Entry

	// Len returns the number of live entries.
	Len() int
}

// Dropper is optionally implemented by values that need cleanup when their
// handle is destroyed. Drop is called exactly once.
type Dropper interface {
	Drop()
}
