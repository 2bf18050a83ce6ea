package block

import (
	"bytes"
	"cmp"
	"fmt"
	"slices"
)

// StateEnum holds a block property and every value it may take.
type StateEnum struct {
	Name   string
	Values []any
}

// Builder collects the block states of a Table. States may be registered in any order: Finalise sorts them,
// so that every process that registers the same set of states ends up with the same runtime IDs.
// A Builder is not safe for concurrent use.
type Builder struct {
	useNetworkIDHashes bool

	states []State
	keys   map[string]struct{}

	table *Table
}

// NewBuilder returns a Builder holding only the built-in states, minecraft:air and minecraft:unknown. If
// useNetworkIDHashes is true, the Table it builds uses network hashes as runtime IDs.
func NewBuilder(useNetworkIDHashes bool) *Builder {
	b := &Builder{useNetworkIDHashes: useNetworkIDHashes, keys: make(map[string]struct{})}
	for _, name := range []string{AirName, UnknownName} {
		if err := b.RegisterCustomBlock(State{Name: name, Version: CurrentBlockVersion}); err != nil {
			panic(err)
		}
	}
	return b
}

// UseNetworkIDHashes reports if the Table built will use network hashes as runtime IDs.
func (b *Builder) UseNetworkIDHashes() bool {
	return b.useNetworkIDHashes
}

// Len returns the number of states registered so far, built-in states included.
func (b *Builder) Len() int {
	return len(b.states)
}

// RegisterCustomBlock registers a single block state. It fails if the Builder was finalised, if the state
// is invalid or if a state with the same name and properties was registered before, at any version.
func (b *Builder) RegisterCustomBlock(s State) error {
	if b.table != nil {
		return &RegistrationError{Op: "register custom block", Name: s.Name, Err: ErrFinalised}
	}
	s, key, err := b.prepare(s)
	if err != nil {
		return &RegistrationError{Op: "register custom block", Name: s.Name, Err: err}
	}
	b.add(s, key)
	return nil
}

// RegisterPermutation registers one state for every combination of the values of enums, all sharing name
// and version. Enums are combined in the order passed. No enums registers a single state without
// properties. Either every state is registered, or none is.
func (b *Builder) RegisterPermutation(name string, version int32, enums []StateEnum) error {
	fail := func(err error) error {
		return &RegistrationError{Op: "register permutation", Name: name, Err: err}
	}
	if b.table != nil {
		return fail(ErrFinalised)
	}
	seen := make(map[string]struct{}, len(enums))
	for _, e := range enums {
		if len(e.Values) == 0 {
			return fail(fmt.Errorf("%w: property %q has no possible values", ErrAmbiguousPermutation, e.Name))
		}
		if _, ok := seen[e.Name]; ok {
			return fail(fmt.Errorf("%w: property %q listed twice", ErrAmbiguousPermutation, e.Name))
		}
		seen[e.Name] = struct{}{}
	}

	var (
		states []State
		keys   []string
		batch  = make(map[string]struct{})
		cursor = make([]int, len(enums))
	)
	for {
		props := make(map[string]any, len(enums))
		for i, e := range enums {
			props[e.Name] = e.Values[cursor[i]]
		}
		s, key, err := b.prepare(State{Name: name, Properties: props, Version: version})
		if err != nil {
			return fail(err)
		}
		if _, ok := batch[key]; ok {
			return fail(fmt.Errorf("%w: %v", ErrDuplicateState, s))
		}
		batch[key] = struct{}{}
		states, keys = append(states, s), append(keys, key)

		if !advance(cursor, enums) {
			break
		}
	}
	for i, s := range states {
		b.add(s, keys[i])
	}
	return nil
}

// advance moves cursor to the next combination of enum values, the last enum changing fastest. It returns
// false once every combination was visited.
func advance(cursor []int, enums []StateEnum) bool {
	for i := len(cursor) - 1; i >= 0; i-- {
		cursor[i]++
		if cursor[i] < len(enums[i].Values) {
			return true
		}
		cursor[i] = 0
	}
	return false
}

// prepare validates s and normalises its properties. It returns the lookup key of s.
func (b *Builder) prepare(s State) (State, string, error) {
	if s.Name == "" {
		return s, "", fmt.Errorf("%w: empty name", ErrInvalidState)
	}
	props, err := normaliseProperties(s.Properties)
	if err != nil {
		return s, "", fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	s.Properties = props
	key, err := identityKey(s.Name, s.Properties)
	if err != nil {
		return s, "", fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if _, ok := b.keys[key]; ok {
		return s, "", fmt.Errorf("%w: %v", ErrDuplicateState, s)
	}
	return s, key, nil
}

func (b *Builder) add(s State, key string) {
	b.keys[key] = struct{}{}
	b.states = append(b.states, s)
}

// Finalise sorts the registered states and assigns their runtime IDs, returning the resulting Table. States
// are ordered by the FNV-1 hash of their name, then by name, then by their properties. Runtime IDs are the
// position in that order, or the network hash of the state if network ID hashes are used, in which case
// Finalise fails if two states hash to the same value.
// Calling Finalise again returns the same Table.
func (b *Builder) Finalise() (*Table, error) {
	if b.table != nil {
		return b.table, nil
	}
	type entry struct {
		state State
		order uint64
		props []byte
	}
	entries := make([]entry, len(b.states))
	for i, s := range b.states {
		// Properties were validated on registration.
		p, _ := canonicalProperties(s.Properties)
		entries[i] = entry{state: s, order: nameOrder(s.Name), props: p}
	}
	slices.SortFunc(entries, func(a, b entry) int {
		if c := cmp.Compare(a.order, b.order); c != 0 {
			return c
		}
		if c := cmp.Compare(a.state.Name, b.state.Name); c != 0 {
			return c
		}
		return bytes.Compare(a.props, b.props)
	})

	t := newTable(b.useNetworkIDHashes, len(entries))
	for i, e := range entries {
		rid := uint32(i)
		if b.useNetworkIDHashes {
			rid = NetworkHash(e.state)
			if prev, ok := t.byRuntimeID[rid]; ok {
				return nil, fmt.Errorf("finalise: %w: %v and %v both hash to %v", ErrHashCollision, t.states[prev], e.state, rid)
			}
		}
		t.insert(e.state, rid, string(append([]byte(e.state.Name+"\x00"), e.props...)))
	}
	t.air, _ = t.StateToRuntimeID(AirName, nil)
	t.unknown, _ = t.StateToRuntimeID(UnknownName, nil)

	b.table = t
	return t, nil
}
