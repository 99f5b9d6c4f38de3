package contracts

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fbn1986/gerenciador-de-contratos/pkg/platform/sentinel"
)

// InMemoryStore keeps the full contract tree in maps. It honors the same
// atomicity contract as the SQL store: audit batches and tree purges apply
// entirely or not at all.
type InMemoryStore struct {
	mu          sync.RWMutex
	contracts   map[string]Contract
	attachments map[string][]Attachment
	audit       map[string][]AuditEntry
	archive     map[string]ArchivedContract
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		contracts:   make(map[string]Contract),
		attachments: make(map[string][]Attachment),
		audit:       make(map[string][]AuditEntry),
		archive:     make(map[string]ArchivedContract),
	}
}

func (s *InMemoryStore) CreateContract(_ context.Context, contract Contract) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.contracts[contract.ID]; exists {
		return sentinel.ErrConflict
	}
	s.contracts[contract.ID] = contract
	return nil
}

func (s *InMemoryStore) UpdateContract(_ context.Context, contract Contract) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.contracts[contract.ID]; !exists {
		return sentinel.ErrNotFound
	}
	s.contracts[contract.ID] = contract
	return nil
}

func (s *InMemoryStore) GetContract(_ context.Context, id string) (*Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	contract, ok := s.contracts[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := contract
	return &c, nil
}

func (s *InMemoryStore) ListContracts(_ context.Context) ([]Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Contract, 0, len(s.contracts))
	for _, c := range s.contracts {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) AddAttachment(_ context.Context, attachment Attachment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.contracts[attachment.ContractID]; !exists {
		return sentinel.ErrNotFound
	}
	s.attachments[attachment.ContractID] = append(s.attachments[attachment.ContractID], attachment)
	return nil
}

func (s *InMemoryStore) DeleteAttachment(_ context.Context, contractID, attachmentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.attachments[contractID]
	for i, att := range list {
		if att.ID == attachmentID {
			s.attachments[contractID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return sentinel.ErrNotFound
}

func (s *InMemoryStore) ListAttachments(_ context.Context, contractID string) ([]Attachment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Attachment{}, s.attachments[contractID]...), nil
}

func (s *InMemoryStore) AppendAuditEntries(_ context.Context, entries []AuditEntry) error {
	if len(entries) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for _, entry := range entries {
		entry.CreatedAt = now
		s.audit[entry.ContractID] = append(s.audit[entry.ContractID], entry)
	}
	return nil
}

func (s *InMemoryStore) ListAuditEntries(_ context.Context, contractID string) ([]AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]AuditEntry{}, s.audit[contractID]...), nil
}

func (s *InMemoryStore) ArchiveContract(_ context.Context, archived ArchivedContract) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.archive[archived.ContractID]; exists {
		return sentinel.ErrConflict
	}
	s.archive[archived.ContractID] = archived
	return nil
}

func (s *InMemoryStore) GetArchivedContract(_ context.Context, contractID string) (*ArchivedContract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	archived, ok := s.archive[contractID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	a := archived
	return &a, nil
}

func (s *InMemoryStore) PurgeContractTree(_ context.Context, contractID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.contracts[contractID]; !exists {
		return sentinel.ErrNotFound
	}
	delete(s.attachments, contractID)
	delete(s.audit, contractID)
	delete(s.contracts, contractID)
	return nil
}
