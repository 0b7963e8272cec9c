package storage

import "github.com/syndtr/goleveldb/leveldb"

// Overlay journals writes on top of a base database so a multi-step state
// transition can be applied speculatively and either committed in full or
// discarded without touching the base. Reads see the journal first, then fall
// through to the base. An Overlay is not safe for concurrent use; the node
// serialises mutating operations before handing one out.
type Overlay struct {
	base   Database
	writes map[string][]byte
	order  []string
}

// NewOverlay creates an empty journal over the provided base database.
func NewOverlay(base Database) *Overlay {
	return &Overlay{
		base:   base,
		writes: make(map[string][]byte),
	}
}

func (o *Overlay) Put(key []byte, value []byte) error {
	k := string(key)
	if _, seen := o.writes[k]; !seen {
		o.order = append(o.order, k)
	}
	o.writes[k] = append([]byte(nil), value...)
	return nil
}

func (o *Overlay) Get(key []byte) ([]byte, error) {
	if value, ok := o.writes[string(key)]; ok {
		return append([]byte(nil), value...), nil
	}
	return o.base.Get(key)
}

// Close satisfies the Database interface. Closing an overlay discards it; the
// base remains open.
func (o *Overlay) Close() {}

// Commit flushes the journal to the base database in write order. When the
// base is a LevelDB instance the flush uses a batch so the whole transition
// lands atomically on disk.
func (o *Overlay) Commit() error {
	if len(o.order) == 0 {
		return nil
	}
	if ldb, ok := o.base.(*LevelDB); ok {
		batch := new(leveldb.Batch)
		for _, k := range o.order {
			batch.Put([]byte(k), o.writes[k])
		}
		if err := ldb.db.Write(batch, nil); err != nil {
			return err
		}
	} else {
		for _, k := range o.order {
			if err := o.base.Put([]byte(k), o.writes[k]); err != nil {
				return err
			}
		}
	}
	o.writes = make(map[string][]byte)
	o.order = nil
	return nil
}

// Discard drops all journaled writes.
func (o *Overlay) Discard() {
	o.writes = make(map[string][]byte)
	o.order = nil
}

// Dirty reports whether the journal holds uncommitted writes.
func (o *Overlay) Dirty() bool {
	return len(o.order) > 0
}
