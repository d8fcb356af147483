package ports_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/vaultguard/pkg/domain"
	"github.com/aretw0/vaultguard/pkg/ports"
)

// jsonStore keeps sessions as encoded bytes, like a remote cache would.
type jsonStore struct {
	data map[string][]byte
}

func (m *jsonStore) Save(_ context.Context, session *domain.Session) error {
	b, err := json.Marshal(session)
	if err != nil {
		return err
	}
	m.data[session.ID] = b
	return nil
}

func (m *jsonStore) Load(_ context.Context, sessionID string) (*domain.Session, error) {
	b, ok := m.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	var s domain.Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *jsonStore) Delete(_ context.Context, sessionID string) error {
	delete(m.data, sessionID)
	return nil
}

func (m *jsonStore) List(_ context.Context) ([]string, error) {
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func TestSessionStore_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, &jsonStore{data: make(map[string][]byte)})
}
