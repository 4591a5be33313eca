package param

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// State is the lifecycle state of a registered parameter
type State int

const (
	// StateDefault means the current value equals the declared default
	StateDefault State = iota
	// StateModified means the current value differs from the default
	StateModified
)

// String returns a human-readable state name
func (s State) String() string {
	if s == StateModified {
		return "modified"
	}
	return "default"
}

// ChangeKind records which operation published a value
type ChangeKind int

const (
	ChangeSet ChangeKind = iota
	ChangeReset
	ChangeImport
)

// String returns a short name for the change kind
func (k ChangeKind) String() string {
	switch k {
	case ChangeReset:
		return "reset"
	case ChangeImport:
		return "import"
	default:
		return "set"
	}
}

// Change describes one published value
type Change struct {
	Name    string
	Index   int
	Kind    ChangeKind
	Old     Value
	New     Value
	Changes uint64 // per-parameter change counter after this publish
}

// Watcher is called after every successful publish, on the writer's goroutine
// and outside the writer lock. It must not block.
type Watcher func(Change)

// slot holds the current value of one parameter as a single atomic word so a
// reader always sees either the old or the new value in full.
type slot struct {
	def     *Definition
	index   int
	defBits uint32
	bits    atomic.Uint32
	changes atomic.Uint64
}

func (s *slot) load() Value {
	return fromSlot(s.def.Type, s.bits.Load())
}

// index is the immutable name table. Register replaces it wholesale.
type index struct {
	byName map[string]*slot
	order  []*slot
}

type watcherEntry struct {
	id int
	fn Watcher
}

// Registry owns every parameter definition and current value.
//
// Reads (Get, the typed getters, handles, ExportAll) never lock: they load the
// name table through an atomic pointer and the value through an atomic word.
// Writers (Register, Set, ResetToDefault, ImportAll) serialize on a mutex that
// is held only while a single value is published.
type Registry struct {
	idx atomic.Pointer[index]
	gen atomic.Uint64

	mu       sync.Mutex
	watchers atomic.Pointer[[]watcherEntry]
	nextID   int
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	r := &Registry{}
	r.idx.Store(&index{byName: map[string]*slot{}})
	r.watchers.Store(&[]watcherEntry{})
	return r
}

// Register validates def and adds it to the registry with its default value.
func (r *Registry) Register(def Definition) error {
	return r.RegisterAll([]Definition{def})
}

// MustRegister registers static declaration tables and panics on a
// configuration defect.
func (r *Registry) MustRegister(defs ...Definition) {
	if err := r.RegisterAll(defs); err != nil {
		panic(err)
	}
}

// RegisterAll registers a batch of definitions. It is all-or-nothing: if any
// definition is invalid or duplicated, none of the batch is registered.
func (r *Registry) RegisterAll(defs []Definition) error {
	owned := make([]*Definition, 0, len(defs))
	for i := range defs {
		d := defs[i].clone()
		if err := d.Validate(); err != nil {
			return err
		}
		owned = append(owned, d)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.idx.Load()
	next := &index{
		byName: make(map[string]*slot, len(cur.byName)+len(owned)),
		order:  make([]*slot, len(cur.order), len(cur.order)+len(owned)),
	}
	for name, s := range cur.byName {
		next.byName[name] = s
	}
	copy(next.order, cur.order)

	for _, d := range owned {
		if _, exists := next.byName[d.Name]; exists {
			return newDuplicateError(d.Name)
		}
		s := &slot{
			def:     d,
			index:   len(next.order),
			defBits: d.Default.Bits(),
		}
		s.bits.Store(s.defBits)
		next.byName[d.Name] = s
		next.order = append(next.order, s)
	}

	r.idx.Store(next)
	return nil
}

func (r *Registry) lookup(name string) (*slot, error) {
	s, ok := r.idx.Load().byName[name]
	if !ok {
		return nil, newUnknownError(name)
	}
	return s, nil
}

// Len returns the number of registered parameters
func (r *Registry) Len() int {
	return len(r.idx.Load().order)
}

// Names returns parameter names in registration order
func (r *Registry) Names() []string {
	order := r.idx.Load().order
	names := make([]string, len(order))
	for i, s := range order {
		names[i] = s.def.Name
	}
	return names
}

// Lookup returns a copy of the definition registered under name
func (r *Registry) Lookup(name string) (Definition, error) {
	s, err := r.lookup(name)
	if err != nil {
		return Definition{}, err
	}
	return *s.def.clone(), nil
}

// Definitions returns copies of all definitions in registration order
func (r *Registry) Definitions() []Definition {
	order := r.idx.Load().order
	defs := make([]Definition, len(order))
	for i, s := range order {
		defs[i] = *s.def.clone()
	}
	return defs
}

// IndexOf returns the registration index of name
func (r *Registry) IndexOf(name string) (int, error) {
	s, err := r.lookup(name)
	if err != nil {
		return -1, err
	}
	return s.index, nil
}

// Get returns the current value. It never blocks on a writer.
func (r *Registry) Get(name string) (Value, error) {
	s, err := r.lookup(name)
	if err != nil {
		return Value{}, err
	}
	return s.load(), nil
}

// Float returns the current value of a float parameter
func (r *Registry) Float(name string) (float32, error) {
	v, err := r.typed(name, TypeFloat)
	return v.f, err
}

// Int32 returns the current value of an int32 parameter
func (r *Registry) Int32(name string) (int32, error) {
	v, err := r.typed(name, TypeInt32)
	return v.i, err
}

// Bool returns the current value of a bool parameter
func (r *Registry) Bool(name string) (bool, error) {
	v, err := r.typed(name, TypeBool)
	return v.i != 0, err
}

func (r *Registry) typed(name string, t Type) (Value, error) {
	s, err := r.lookup(name)
	if err != nil {
		return Value{}, err
	}
	if s.def.Type != t {
		return Value{}, newTypeMismatchError(name, s.def.Type, t)
	}
	return s.load(), nil
}

// Option returns the current variant of a selector parameter
func (r *Registry) Option(name string) (Option, error) {
	s, err := r.lookup(name)
	if err != nil {
		return Option{}, err
	}
	if !s.def.IsSelector() {
		return Option{}, &Error{
			Type:     ErrTypeTypeMismatch,
			Name:     name,
			Message:  "parameter has no named options",
			Expected: s.def.Type,
			Got:      s.def.Type,
		}
	}
	v := s.load()
	opt, ok := s.def.optionByValue(v.i)
	if !ok {
		// Unreachable: every published selector value is a declared option.
		return Option{}, fmt.Errorf("parameter %s holds undeclared option %d", name, v.i)
	}
	return opt, nil
}

// State reports whether the parameter currently holds its default
func (r *Registry) State(name string) (State, error) {
	s, err := r.lookup(name)
	if err != nil {
		return StateDefault, err
	}
	if s.bits.Load() == s.defBits {
		return StateDefault, nil
	}
	return StateModified, nil
}

// ChangeCount returns the per-parameter change counter
func (r *Registry) ChangeCount(name string) (uint64, error) {
	s, err := r.lookup(name)
	if err != nil {
		return 0, err
	}
	return s.changes.Load(), nil
}

// ChangedSince reports whether the parameter changed after the caller observed
// counter c, and returns the current counter.
func (r *Registry) ChangedSince(name string, c uint64) (bool, uint64, error) {
	n, err := r.ChangeCount(name)
	if err != nil {
		return false, 0, err
	}
	return n != c, n, nil
}

// Generation is incremented on every publish across the whole registry
func (r *Registry) Generation() uint64 {
	return r.gen.Load()
}

// Set validates v against the definition and publishes it.
// On TypeMismatch or OutOfRange the prior value is retained.
func (r *Registry) Set(name string, v Value) error {
	s, err := r.lookup(name)
	if err != nil {
		return err
	}
	if v.Type() != s.def.Type {
		return newTypeMismatchError(name, s.def.Type, v.Type())
	}
	if perr := s.def.check(v); perr != nil {
		return perr
	}
	r.notify(r.publish(s, v, ChangeSet))
	return nil
}

// SetOption sets a selector parameter by variant label
func (r *Registry) SetOption(name, label string) error {
	s, err := r.lookup(name)
	if err != nil {
		return err
	}
	opt, ok := s.def.OptionByLabel(label)
	if !ok {
		return &Error{
			Type:    ErrTypeOutOfRange,
			Name:    name,
			Message: fmt.Sprintf("%q is not a declared option", label),
			Bound:   BoundOption,
		}
	}
	return r.Set(name, Int32(opt.Value))
}

// ResetToDefault publishes the declared default. The default is valid by
// construction, so this only fails for unknown names.
func (r *Registry) ResetToDefault(name string) error {
	s, err := r.lookup(name)
	if err != nil {
		return err
	}
	r.notify(r.publish(s, s.def.Default, ChangeReset))
	return nil
}

// ResetAll resets every parameter to its default
func (r *Registry) ResetAll() {
	for _, s := range r.idx.Load().order {
		r.notify(r.publish(s, s.def.Default, ChangeReset))
	}
}

// publish stores an already validated value. The critical section is one
// load, one store and two counter increments.
func (r *Registry) publish(s *slot, v Value, kind ChangeKind) Change {
	r.mu.Lock()
	old := s.bits.Swap(v.Bits())
	n := s.changes.Add(1)
	r.gen.Add(1)
	r.mu.Unlock()

	return Change{
		Name:    s.def.Name,
		Index:   s.index,
		Kind:    kind,
		Old:     fromSlot(s.def.Type, old),
		New:     v,
		Changes: n,
	}
}

// Watch registers fn to be called after every publish. The returned function
// removes the watcher. fn runs on the publishing goroutine, so changes from
// concurrent writers can reach it out of order; Change.Changes increases
// with every publish of a parameter and orders them.
func (r *Registry) Watch(fn Watcher) (cancel func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	id := r.nextID
	cur := *r.watchers.Load()
	next := make([]watcherEntry, len(cur), len(cur)+1)
	copy(next, cur)
	next = append(next, watcherEntry{id: id, fn: fn})
	r.watchers.Store(&next)

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		cur := *r.watchers.Load()
		next := make([]watcherEntry, 0, len(cur))
		for _, w := range cur {
			if w.id != id {
				next = append(next, w)
			}
		}
		r.watchers.Store(&next)
	}
}

func (r *Registry) notify(c Change) {
	for _, w := range *r.watchers.Load() {
		w.fn(c)
	}
}
