package rl

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/fxamacker/cbor/v2"
)

const (
	tableFormat  = "qtable"
	tableVersion = 1
)

// ErrCorruptTable is returned by Load when the source is empty, truncated,
// or not an encoded value table.
var ErrCorruptTable = errors.New("rl: corrupt value table")

// encMode uses Core Deterministic Encoding so the same table always
// produces the same bytes.
var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("rl: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("rl: CBOR decoder initialization failed: " + err.Error())
	}
}

// Entry is one stored Q-value.
type Entry[S, A comparable] struct {
	State  S       `cbor:"s" json:"state"`
	Action A       `cbor:"a" json:"action"`
	Value  float64 `cbor:"q" json:"value"`
}

type tableDocument[S, A comparable] struct {
	Format  string        `cbor:"format"`
	Version int           `cbor:"version"`
	Actions []A           `cbor:"actions"`
	Entries []Entry[S, A] `cbor:"entries"`
}

// Entries returns a copy of every stored pair, in encoding order.
func (a *Agent[S, A]) Entries() []Entry[S, A] {
	a.mu.Lock()
	entries := make([]Entry[S, A], 0, len(a.table))
	for k, v := range a.table {
		entries = append(entries, Entry[S, A]{State: k.state, Action: k.action, Value: v})
	}
	a.mu.Unlock()

	sortEntries(entries)
	return entries
}

// Save writes the whole value table to w. The table is copied under the
// agent lock, so concurrent updates never produce a half-written document.
func (a *Agent[S, A]) Save(w io.Writer) error {
	doc := tableDocument[S, A]{
		Format:  tableFormat,
		Version: tableVersion,
		Actions: a.Actions(),
		Entries: a.Entries(),
	}
	data, err := encMode.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode value table: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write value table: %w", err)
	}
	return nil
}

// Load replaces the value table with the one read from r. On any error the
// current table is left untouched.
func (a *Agent[S, A]) Load(r io.Reader) error {
	var doc tableDocument[S, A]
	if err := decMode.NewDecoder(r).Decode(&doc); err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptTable, err)
	}
	if doc.Format != tableFormat {
		return fmt.Errorf("%w: unexpected format %q", ErrCorruptTable, doc.Format)
	}
	if doc.Version != tableVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrCorruptTable, doc.Version)
	}

	table := make(map[key[S, A]]float64, len(doc.Entries))
	for _, e := range doc.Entries {
		if math.IsNaN(e.Value) || math.IsInf(e.Value, 0) {
			return fmt.Errorf("%w: non-finite value for %v/%v", ErrCorruptTable, e.State, e.Action)
		}
		table[key[S, A]{e.State, e.Action}] = e.Value
	}

	a.mu.Lock()
	a.table = table
	a.mu.Unlock()
	return nil
}

// sortEntries orders entries by the CBOR encoding of their (state, action)
// key, which gives a stable order for any comparable key types.
func sortEntries[S, A comparable](entries []Entry[S, A]) {
	keys := make([][]byte, len(entries))
	for i, e := range entries {
		k, err := encMode.Marshal(Entry[S, A]{State: e.State, Action: e.Action})
		if err != nil {
			k = []byte(fmt.Sprint(e.State, e.Action))
		}
		keys[i] = k
	}
	sort.Sort(entrySorter[S, A]{entries: entries, keys: keys})
}

type entrySorter[S, A comparable] struct {
	entries []Entry[S, A]
	keys    [][]byte
}

func (s entrySorter[S, A]) Len() int { return len(s.entries) }

func (s entrySorter[S, A]) Less(i, j int) bool { return bytes.Compare(s.keys[i], s.keys[j]) < 0 }

func (s entrySorter[S, A]) Swap(i, j int) {
	s.entries[i], s.entries[j] = s.entries[j], s.entries[i]
	s.keys[i], s.keys[j] = s.keys[j], s.keys[i]
}
