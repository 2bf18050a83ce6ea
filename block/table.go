package block

import (
	"errors"
	"strings"
	"sync"

	// The world package registers the vanilla block states with the chunk package.
	_ "github.com/df-mc/dragonfly/server/world"
	dfchunk "github.com/df-mc/dragonfly/server/world/chunk"
	"github.com/df-mc/worldupgrader/blockupgrader"
)

// Table is a finalised, read-only mapping between block states and runtime IDs. It is created by
// Builder.Finalise and is safe for concurrent use.
type Table struct {
	useNetworkIDHashes bool

	states     []State
	runtimeIDs []uint32
	// byRuntimeID maps a runtime ID to its position in states. It is only used if runtime IDs are hashes:
	// otherwise the runtime ID is the position itself.
	byRuntimeID map[uint32]int
	byKey       map[string]uint32

	air, unknown uint32
}

func newTable(useNetworkIDHashes bool, n int) *Table {
	t := &Table{
		useNetworkIDHashes: useNetworkIDHashes,
		states:             make([]State, 0, n),
		runtimeIDs:         make([]uint32, 0, n),
		byKey:              make(map[string]uint32, n),
	}
	if useNetworkIDHashes {
		t.byRuntimeID = make(map[uint32]int, n)
	}
	return t
}

func (t *Table) insert(s State, rid uint32, key string) {
	if t.byRuntimeID != nil {
		t.byRuntimeID[rid] = len(t.states)
	}
	t.states = append(t.states, s)
	t.runtimeIDs = append(t.runtimeIDs, rid)
	t.byKey[key] = rid
}

// UseNetworkIDHashes reports if the runtime IDs of the table are network hashes.
func (t *Table) UseNetworkIDHashes() bool {
	return t.useNetworkIDHashes
}

// AirRuntimeID returns the runtime ID of minecraft:air.
func (t *Table) AirRuntimeID() uint32 {
	return t.air
}

// UnknownRuntimeID returns the runtime ID of minecraft:unknown, the placeholder for unregistered states.
func (t *Table) UnknownRuntimeID() uint32 {
	return t.unknown
}

// Len returns the number of states in the table.
func (t *Table) Len() int {
	return len(t.states)
}

// States calls f for every state in the table in sort order, until f returns false. Sort order matches
// runtime ID order unless the table uses network ID hashes.
func (t *Table) States(f func(rid uint32, s State) bool) {
	for i, s := range t.states {
		if !f(t.runtimeIDs[i], s.clone()) {
			return
		}
	}
}

// RuntimeIDToState returns the state registered with the runtime ID passed. The properties returned are a
// copy and may be modified freely.
func (t *Table) RuntimeIDToState(rid uint32) (State, bool) {
	i, ok := t.index(rid)
	if !ok {
		return State{}, false
	}
	return t.states[i].clone(), true
}

// Registered reports if a state is registered with the runtime ID passed.
func (t *Table) Registered(rid uint32) bool {
	_, ok := t.index(rid)
	return ok
}

// index returns the position of rid in t.states.
func (t *Table) index(rid uint32) (int, bool) {
	if t.byRuntimeID != nil {
		i, ok := t.byRuntimeID[rid]
		return i, ok
	}
	if rid >= uint32(len(t.states)) {
		return 0, false
	}
	return int(rid), true
}

// StateToRuntimeID looks up the runtime ID of a state. If no state matches exactly, the state is upgraded
// to the latest schema and looked up again.
func (t *Table) StateToRuntimeID(name string, properties map[string]any) (uint32, bool) {
	return t.StateToRuntimeIDVersion(name, properties, 0)
}

// StateToRuntimeIDVersion looks up the runtime ID of a state written with the block version passed. If no
// state matches exactly, the state is upgraded from that version and looked up again.
func (t *Table) StateToRuntimeIDVersion(name string, properties map[string]any, version int32) (uint32, bool) {
	props, err := normaliseProperties(properties)
	if err != nil {
		return 0, false
	}
	if rid, ok := t.lookup(name, props); ok {
		return rid, true
	}
	if !strings.Contains(name, ":") {
		name = "minecraft:" + name
	}
	upgraded := blockupgrader.Upgrade(blockupgrader.BlockState{
		Name:       name,
		Properties: props,
		Version:    version,
	})
	props, err = normaliseProperties(upgraded.Properties)
	if err != nil {
		return 0, false
	}
	return t.lookup(upgraded.Name, props)
}

func (t *Table) lookup(name string, props map[string]any) (uint32, bool) {
	key, err := identityKey(name, props)
	if err != nil {
		return 0, false
	}
	rid, ok := t.byKey[key]
	return rid, ok
}

var defaultTable = sync.OnceValue(func() *Table {
	b := NewBuilder(true)
	if err := b.registerVanilla(); err != nil {
		panic(err)
	}
	t, err := b.Finalise()
	if err != nil {
		panic(err)
	}
	return t
})

// registerVanilla registers every vanilla block state known to dragonfly at CurrentBlockVersion.
func (b *Builder) registerVanilla() error {
	for rid := uint32(0); ; rid++ {
		name, props, found := dfchunk.RuntimeIDToState(rid)
		if !found {
			return nil
		}
		err := b.RegisterCustomBlock(State{Name: name, Properties: props, Version: CurrentBlockVersion})
		if err != nil && !errors.Is(err, ErrDuplicateState) {
			return err
		}
	}
}

// DefaultTable returns a finalised table using network ID hashes that holds every vanilla block state.
func DefaultTable() *Table {
	return defaultTable()
}
