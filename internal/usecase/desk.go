package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"PaperDesk/internal/domain/models"
	"PaperDesk/pkg/logger"
)

// Desk owns the live sessions, one per account. Opening an account that is
// already open returns the existing session; closing persists and removes
// it.
type Desk struct {
	mu       sync.Mutex
	sessions map[string]*Session

	cfg  SessionConfig
	deps SessionDeps
}

// NewDesk creates an empty desk.
func NewDesk(cfg SessionConfig, deps SessionDeps) *Desk {
	return &Desk{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		deps:     deps,
	}
}

// Create writes a fresh account record and opens its session. An existing
// record is reused, never overwritten.
func (d *Desk) Create(ctx context.Context, accountID string, startCash float64) (*Session, error) {
	_, err := d.deps.Store.Load(ctx, accountID)
	switch {
	case err == nil:
		// Already exists; fall through to Open.
	case errors.Is(err, models.ErrAccountNotFound):
		rec := &models.AccountRecord{Cash: startCash, UpdatedAt: time.Now()}
		if err := d.deps.Store.Save(ctx, accountID, rec); err != nil {
			return nil, fmt.Errorf("create account %s: %w", accountID, err)
		}
	default:
		return nil, fmt.Errorf("create account %s: %w", accountID, err)
	}
	return d.Open(ctx, accountID)
}

// Open loads the account record and starts a session for it. Returns
// models.ErrAccountNotFound when the store has no record; account creation
// is the caller's flow.
func (d *Desk) Open(ctx context.Context, accountID string) (*Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if s, ok := d.sessions[accountID]; ok {
		return s, nil
	}

	rec, err := d.deps.Store.Load(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("load account %s: %w", accountID, err)
	}

	s := NewSession(accountID, rec, d.cfg, d.deps)
	s.Start()
	d.sessions[accountID] = s

	d.deps.Log.Info("session opened", logger.String("account", accountID))
	return s, nil
}

// Get returns the live session for an account, or ErrAccountNotFound if
// none is open.
func (d *Desk) Get(accountID string) (*Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.sessions[accountID]
	if !ok {
		return nil, models.ErrAccountNotFound
	}
	return s, nil
}

// Close ends one account's session: engines stop, pending settlements
// flush, the final record saves.
func (d *Desk) Close(ctx context.Context, accountID string) error {
	d.mu.Lock()
	s, ok := d.sessions[accountID]
	if ok {
		delete(d.sessions, accountID)
	}
	d.mu.Unlock()

	if !ok {
		return models.ErrAccountNotFound
	}
	if err := s.Close(ctx); err != nil {
		return fmt.Errorf("close session %s: %w", accountID, err)
	}
	d.deps.Log.Info("session closed", logger.String("account", accountID))
	return nil
}

// CloseAll ends every live session (shutdown path). Errors are logged, not
// returned; shutdown keeps going.
func (d *Desk) CloseAll(ctx context.Context) {
	d.mu.Lock()
	sessions := d.sessions
	d.sessions = make(map[string]*Session)
	d.mu.Unlock()

	for id, s := range sessions {
		if err := s.Close(ctx); err != nil {
			d.deps.Log.Error("session close failed", logger.String("account", id), logger.Error(err))
		}
	}
}
