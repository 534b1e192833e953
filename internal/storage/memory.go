package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/terra-clan/progress-engine/internal/models"
)

// MemoryStore keeps everything in process memory. It satisfies both
// Repository and SubmissionStore and backs STORAGE_DRIVER=memory and tests.
type MemoryStore struct {
	mu          sync.RWMutex
	completions map[string]*models.CompletionRecord
	claims      map[string]*models.CertificationClaim
	ledgers     map[string][]*models.CertificationClaim
	clients     map[string]*models.ApiClient
	submissions map[string]*models.ChallengeSubmission
	now         func() time.Time
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		completions: make(map[string]*models.CompletionRecord),
		claims:      make(map[string]*models.CertificationClaim),
		ledgers:     make(map[string][]*models.CertificationClaim),
		clients:     make(map[string]*models.ApiClient),
		submissions: make(map[string]*models.ChallengeSubmission),
		now:         time.Now,
	}
}

func key(userAddress, moduleID string) string {
	return userAddress + "/" + moduleID
}

// AddClient registers an API client
func (m *MemoryStore) AddClient(client *models.ApiClient) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *client
	m.clients[client.ApiKey] = &c
}

// --- CompletionStore ---

func (m *MemoryStore) GetCompletion(ctx context.Context, userAddress, moduleID string) (*models.CompletionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.completions[key(userAddress, moduleID)].Clone(), nil
}

func (m *MemoryStore) SaveCompletion(ctx context.Context, rec *models.CompletionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := key(rec.UserAddress, rec.ModuleID)
	var stored int64
	if cur, ok := m.completions[k]; ok {
		stored = cur.Version
	}
	if stored != rec.Version {
		return models.ErrVersionConflict
	}

	rec.Version++
	m.completions[k] = rec.Clone()
	return nil
}

func (m *MemoryStore) ListCompletions(ctx context.Context, moduleID string) ([]*models.CompletionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*models.CompletionRecord
	for _, rec := range m.completions {
		if rec.ModuleID == moduleID {
			out = append(out, rec.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserAddress < out[j].UserAddress })
	return out, nil
}

// --- ClaimStore ---

func (m *MemoryStore) FindClaim(ctx context.Context, userAddress, moduleID string) (*models.CertificationClaim, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.claims[key(userAddress, moduleID)]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (m *MemoryStore) InsertClaim(ctx context.Context, claim *models.CertificationClaim) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key(claim.UserAddress, claim.ModuleID)
	if _, ok := m.claims[k]; ok {
		return false, nil
	}
	c := *claim
	m.claims[k] = &c
	return true, nil
}

func (m *MemoryStore) FindLedgerClaim(ctx context.Context, userAddress, moduleID string) (*models.CertificationClaim, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.ledgers[userAddress] {
		if c.ModuleID == moduleID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) AppendLedgerClaim(ctx context.Context, claim *models.CertificationClaim) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.ledgers[claim.UserAddress] {
		if c.ModuleID == claim.ModuleID {
			return false, nil
		}
	}
	c := *claim
	m.ledgers[claim.UserAddress] = append(m.ledgers[claim.UserAddress], &c)
	return true, nil
}

func (m *MemoryStore) ListLedgerClaims(ctx context.Context, userAddress string) ([]*models.CertificationClaim, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.CertificationClaim, 0, len(m.ledgers[userAddress]))
	for _, c := range m.ledgers[userAddress] {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

// --- ClientStore ---

func (m *MemoryStore) GetClientByApiKey(ctx context.Context, apiKey string) (*models.ApiClient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.clients[apiKey]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (m *MemoryStore) UpdateClientLastUsed(ctx context.Context, apiKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.clients[apiKey]; ok {
		t := m.now()
		c.LastUsedAt = &t
	}
	return nil
}

// --- SubmissionStore ---

func (m *MemoryStore) CreateSubmission(ctx context.Context, sub *models.ChallengeSubmission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := *sub
	m.submissions[sub.ID] = &s
	return nil
}

func (m *MemoryStore) GetSubmission(ctx context.Context, id string) (*models.ChallengeSubmission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.submissions[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

func (m *MemoryStore) ReviewSubmission(ctx context.Context, id string, action models.ReviewAction, reviewer string) (*models.ChallengeSubmission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.submissions[id]
	if !ok {
		return nil, nil
	}
	if s.ReviewAction != models.ReviewPending {
		return nil, models.ErrAlreadyReviewed
	}
	t := m.now()
	s.ReviewAction = action
	s.ReviewedAt = &t
	s.ReviewedBy = reviewer
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) QueryAccepted(ctx context.Context, userAddress string, challengeIDs ...string) ([]*models.ChallengeSubmission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var filter map[string]struct{}
	if len(challengeIDs) > 0 {
		filter = make(map[string]struct{}, len(challengeIDs))
		for _, id := range challengeIDs {
			filter[id] = struct{}{}
		}
	}

	var out []*models.ChallengeSubmission
	for _, s := range m.submissions {
		if s.UserAddress != userAddress || !s.IsAccepted() {
			continue
		}
		if filter != nil {
			if _, ok := filter[s.ChallengeID]; !ok {
				continue
			}
		}
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].SubmittedAt.Before(out[j].SubmittedAt)
	})
	return out, nil
}

func (m *MemoryStore) Ping(ctx context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }

var (
	_ Repository      = (*MemoryStore)(nil)
	_ SubmissionStore = (*MemoryStore)(nil)
	_ Repository      = (*PostgresRepository)(nil)
	_ SubmissionStore = (*SQLSubmissionStore)(nil)
)
