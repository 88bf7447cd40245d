package ecs

import (
	"reflect"
	"slices"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// data0 and data1 are plain components.
type data0 struct{ V int }

func (d *data0) Clone() Data { c := *d; return &c }

type data1 struct{ V int }

func (d *data1) Clone() Data { c := *d; return &c }

// vdata is versioned.
type vdata struct{ V int }

func (d *vdata) Clone() Data       { c := *d; return &c }
func (d *vdata) CopyFrom(src Data) { d.V = src.(*vdata).V }

// ledger is versioned and concurrent: writers append names, resolution sorts
// them so the outcome does not depend on writer order.
type ledger struct {
	mu       sync.Mutex
	Entries  []string
	resolves *atomic.Int32
}

func newLedger() *ledger { return &ledger{resolves: &atomic.Int32{}} }

func (l *ledger) Append(s string) {
	l.mu.Lock()
	l.Entries = append(l.Entries, s)
	l.mu.Unlock()
}

func (l *ledger) Clone() Data {
	return &ledger{Entries: slices.Clone(l.Entries), resolves: l.resolves}
}

func (l *ledger) CopyFrom(src Data) {
	s := src.(*ledger)
	l.Entries = append(l.Entries[:0], s.Entries...)
	l.resolves = s.resolves
}

func (l *ledger) ResolveConcurrentModifications() {
	slices.Sort(l.Entries)
	l.resolves.Add(1)
}

// tally is concurrent but not versioned: writers add deltas, resolution folds
// them into Value.
type tally struct {
	mu       sync.Mutex
	deltas   []int
	Value    int
	Resolves int
}

func (t *tally) Add(n int) {
	t.mu.Lock()
	t.deltas = append(t.deltas, n)
	t.mu.Unlock()
}

func (t *tally) Clone() Data {
	return &tally{Value: t.Value, deltas: slices.Clone(t.deltas)}
}

func (t *tally) ResolveConcurrentModifications() {
	for _, d := range t.deltas {
		t.Value += d
	}
	t.deltas = t.deltas[:0]
	t.Resolves++
}

type testIDs struct {
	d0, d1, v, l, t ComponentID
}

func newTestRegistry(t *testing.T) (*Registry, testIDs) {
	t.Helper()
	reg := NewRegistry()
	var ids testIDs
	var err error
	ids.d0, err = Register[*data0](reg, "data0")
	require.NoError(t, err)
	ids.d1, err = Register[*data1](reg, "data1")
	require.NoError(t, err)
	ids.v, err = Register[*vdata](reg, "vdata")
	require.NoError(t, err)
	ids.l, err = Register[*ledger](reg, "ledger")
	require.NoError(t, err)
	ids.t, err = Register[*tally](reg, "tally")
	require.NoError(t, err)
	return reg, ids
}

// eventLogger records every callback it receives.
type eventLogger struct {
	required []ComponentID
	events   []string
	updated  []*Entity
}

func (l *eventLogger) ComputeEntityFilter() []ComponentID { return l.required }
func (l *eventLogger) OnAdded(*Entity)                    { l.events = append(l.events, "added") }
func (l *eventLogger) OnRemoved(*Entity)                  { l.events = append(l.events, "removed") }
func (l *eventLogger) OnModified(*Entity)                 { l.events = append(l.events, "modified") }
func (l *eventLogger) OnGlobalPreUpdate()                 { l.events = append(l.events, "pre") }
func (l *eventLogger) OnGlobalPostUpdate()                { l.events = append(l.events, "post") }

func (l *eventLogger) OnUpdate(e *Entity) {
	l.events = append(l.events, "update")
	l.updated = append(l.updated, e)
}

func (l *eventLogger) take() []string {
	out := l.events
	l.events = nil
	l.updated = nil
	return out
}

// updateOnly has no lifecycle or global capabilities.
type updateOnly struct{ n int }

func (u *updateOnly) ComputeEntityFilter() []ComponentID { return nil }
func (u *updateOnly) OnUpdate(*Entity)                   { u.n++ }

type damage struct{ Amount int }

type announce struct{ Text string }

// inputLogger takes damage input for entities holding data0 and global
// announcements.
type inputLogger struct {
	eventLogger
	got []any
}

func (l *inputLogger) InputType() reflect.Type { return reflect.TypeFor[damage]() }

func (l *inputLogger) OnInput(in any, e *Entity) {
	l.events = append(l.events, "input")
	l.got = append(l.got, in)
}

func (l *inputLogger) GlobalInputType() reflect.Type { return reflect.TypeFor[announce]() }

func (l *inputLogger) OnGlobalInput(in any) {
	l.events = append(l.events, "global-input")
	l.got = append(l.got, in)
}
