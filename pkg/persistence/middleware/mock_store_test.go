package middleware_test

import (
	"context"

	"github.com/aretw0/vaultguard/pkg/domain"
	"github.com/aretw0/vaultguard/pkg/ports"
)

// FailingStore fails every operation with err.
type FailingStore struct {
	err error
}

func (s FailingStore) Save(context.Context, *domain.Session) error { return s.err }

func (s FailingStore) Load(context.Context, string) (*domain.Session, error) { return nil, s.err }

func (s FailingStore) Delete(context.Context, string) error { return s.err }

func (s FailingStore) List(context.Context) ([]string, error) { return nil, s.err }

var _ ports.SessionStore = FailingStore{}
