// Package snapshot saves and restores the contents of a session's value
// store, so a session can be resumed by another process
package snapshot

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/kode4food/argyll/wizard/pkg/api"
	"github.com/kode4food/argyll/wizard/pkg/store"
)

type (
	// Store persists exported value store entries under a session id
	Store interface {
		Save(ctx context.Context, id string, entries []store.Entry) error
		Load(ctx context.Context, id string) ([]store.Entry, error)
		Delete(ctx context.Context, id string) error
		Close() error
	}

	// Record is the stored form of a snapshot
	Record struct {
		Entries []RecordEntry `json:"entries"`
	}

	// RecordEntry is one stored key and raw value
	RecordEntry struct {
		Namespace string   `json:"namespace,omitempty"`
		Name      api.Name `json:"name"`
		Value     string   `json:"value"`
	}
)

var ErrNotFound = errors.New("snapshot not found")

// Capture saves every value held by values under id
func Capture(
	ctx context.Context, st Store, id string, values *store.Store,
) error {
	return st.Save(ctx, id, values.Export())
}

// Restore loads the snapshot saved under id into values. Keys the
// snapshot does not mention keep their current value
func Restore(
	ctx context.Context, st Store, id string, values *store.Store,
) error {
	entries, err := st.Load(ctx, id)
	if err != nil {
		return err
	}
	values.Import(entries)
	return nil
}

func encode(entries []store.Entry) ([]byte, error) {
	rec := Record{Entries: make([]RecordEntry, len(entries))}
	for i, e := range entries {
		rec.Entries[i] = RecordEntry{
			Namespace: e.Key.Namespace,
			Name:      e.Key.Name,
			Value:     e.Value,
		}
	}
	return json.Marshal(rec)
}

func decode(data []byte) ([]store.Entry, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	res := make([]store.Entry, len(rec.Entries))
	for i, e := range rec.Entries {
		res[i] = store.Entry{
			Key:   store.NewKey(e.Namespace, e.Name),
			Value: e.Value,
		}
	}
	return res, nil
}
