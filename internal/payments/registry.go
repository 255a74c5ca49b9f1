package payments

import (
	"context"
	"errors"
)

// Registry maps account numbers to display names, last write wins.
type Registry struct {
	store Store
}

func NewRegistry(store Store) *Registry {
	return &Registry{store: store}
}

// Upsert records name for account. An empty name leaves any stored name alone.
func (r *Registry) Upsert(ctx context.Context, account, name string) error {
	if name == "" {
		return nil
	}
	if err := r.store.UpsertPerson(ctx, Person{AccountNumber: account, Name: name}); err != nil {
		return storageError("failed to upsert person", err)
	}
	return nil
}

// Name returns the stored name of account, "" when none is known.
func (r *Registry) Name(ctx context.Context, account string) (string, error) {
	person, err := r.store.Person(ctx, account)
	switch {
	case errors.Is(err, ErrNotFound):
		return "", nil
	case err != nil:
		return "", storageError("failed to load person", err)
	}
	return person.Name, nil
}
