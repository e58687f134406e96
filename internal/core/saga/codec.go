package saga

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/yndnr/busstate-go/internal/core/domain"
)

// Codec converts saga data to and from the stored blob.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// JSONCodec encodes saga data as JSON.
type JSONCodec struct{}

// Marshal implements Codec.
func (JSONCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal implements Codec.
func (JSONCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// Instance is a decoded saga together with the version it was loaded at.
type Instance[T any] struct {
	ID      domain.SagaID
	Type    string
	Data    T
	Version uint64
}

// Load fetches and decodes the saga stored under id.
func Load[T any](ctx context.Context, p *Persister, codec Codec, id domain.SagaID) (*Instance[T], error) {
	entry, err := p.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	inst := &Instance[T]{
		ID:      entry.ID,
		Type:    entry.Type,
		Version: entry.Version,
	}
	if err := codec.Unmarshal(entry.State, &inst.Data); err != nil {
		return nil, fmt.Errorf("decode saga %s: %w", id, err)
	}
	return inst, nil
}

// Store encodes inst.Data and saves it at inst.Version. A zero version
// creates the saga. On success inst.Version is advanced.
func Store[T any](ctx context.Context, p *Persister, codec Codec, inst *Instance[T]) error {
	state, err := codec.Marshal(inst.Data)
	if err != nil {
		return fmt.Errorf("encode saga %s: %w", inst.ID, err)
	}

	entry := &Entry{
		ID:    inst.ID,
		Type:  inst.Type,
		State: state,
	}
	if err := p.Save(ctx, entry, inst.Version); err != nil {
		return err
	}

	inst.Version = entry.Version
	return nil
}
