package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/google/uuid"

	"github.com/vjranagit/graphcalc/pkg/types"
)

// PublicOwner owns the equations saved by the anonymous calculator
const PublicOwner = "public"

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// Key prefixes
const (
	userPrefix     = "user/"
	usernamePrefix = "username/"
	settingsPrefix = "settings/"
	graphPrefix    = "graph/"
	equationPrefix = "equation/"
	revokedPrefix  = "revoked/"
)

// Config holds storage configuration
type Config struct {
	Path             string
	CompressionLevel int
}

// DefaultConfig returns default storage configuration
func DefaultConfig() *Config {
	return &Config{
		Path:             "./data",
		CompressionLevel: 2,
	}
}

// Store persists users, settings, graphs, saved equations and revoked
// tokens in BadgerDB. Saved equations are also held in an inverted index
// by owner and family.
type Store struct {
	cfg   *Config
	db    *badger.DB
	index *Index
	mu    sync.RWMutex
	now   func() time.Time
}

// Open opens (or creates) the store under cfg.Path and rebuilds the
// equation index.
func Open(cfg *Config) (*Store, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	opts := badger.DefaultOptions(filepath.Join(cfg.Path, "badger")).
		WithCompression(options.ZSTD).
		WithZSTDCompressionLevel(cfg.CompressionLevel)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}

	s := &Store{
		cfg:   cfg,
		db:    db,
		index: NewIndex(),
		now:   func() time.Time { return time.Now().UTC() },
	}
	if err := s.rebuildIndex(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to rebuild index: %w", err)
	}
	return s, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) rebuildIndex() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.index.Clear()
	return s.db.View(func(txn *badger.Txn) error {
		return scan(txn, equationPrefix, func(val []byte) error {
			var eq types.StoredEquation
			if err := json.Unmarshal(val, &eq); err != nil {
				return err
			}
			s.index.Add(eq.ID, equationLabels(&eq))
			return nil
		})
	})
}

// Users

// userRecord is the stored form of a user; types.User never serializes
// its password hash.
type userRecord struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

func (r *userRecord) user() *types.User {
	return &types.User{ID: r.ID, Username: r.Username, PasswordHash: r.PasswordHash, CreatedAt: r.CreatedAt}
}

// CreateUser stores a new user. Usernames are unique.
func (s *Store) CreateUser(ctx context.Context, username, passwordHash string) (*types.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	user := &types.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    s.now(),
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		nameKey := []byte(usernamePrefix + username)
		if _, err := txn.Get(nameKey); err == nil {
			return ErrConflict
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set(nameKey, []byte(user.ID)); err != nil {
			return err
		}
		return putJSON(txn, userPrefix+user.ID, &userRecord{
			ID:           user.ID,
			Username:     user.Username,
			PasswordHash: user.PasswordHash,
			CreatedAt:    user.CreatedAt,
		})
	})
	if errors.Is(err, badger.ErrConflict) {
		err = ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("create user %q: %w", username, err)
	}
	return user, nil
}

// UserByID looks a user up by ID
func (s *Store) UserByID(ctx context.Context, id string) (*types.User, error) {
	var rec userRecord
	if err := s.view(ctx, userPrefix+id, &rec); err != nil {
		return nil, err
	}
	return rec.user(), nil
}

// UserByName looks a user up by username
func (s *Store) UserByName(ctx context.Context, username string) (*types.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rec userRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(usernamePrefix + username))
		if err != nil {
			return err
		}
		id, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return getJSON(txn, userPrefix+string(id), &rec)
	})
	if err != nil {
		return nil, notFound(err)
	}
	return rec.user(), nil
}

// Settings

// Settings returns the user's settings, or the defaults if none were saved
func (s *Store) Settings(ctx context.Context, userID string) (types.Settings, error) {
	settings := types.DefaultSettings()
	err := s.view(ctx, settingsPrefix+userID, &settings)
	if errors.Is(err, ErrNotFound) {
		return types.DefaultSettings(), nil
	}
	return settings, err
}

// PutSettings replaces the user's settings
func (s *Store) PutSettings(ctx context.Context, userID string, settings types.Settings) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return putJSON(txn, settingsPrefix+userID, settings)
	})
}

// Graphs

func graphKey(ownerID, id string) string {
	return graphPrefix + ownerID + "/" + id
}

// CreateGraph stores a new graph for g.OwnerID, assigning IDs to the graph
// and any of its equations that lack one.
func (s *Store) CreateGraph(ctx context.Context, g *types.Graph) (*types.Graph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := s.now()
	out := *g
	out.ID = uuid.New().String()
	out.CreatedAt, out.UpdatedAt = now, now
	out.Equations = s.stampEquations(g.OwnerID, nil, g.Equations, now)

	if err := s.db.Update(func(txn *badger.Txn) error {
		return putJSON(txn, graphKey(out.OwnerID, out.ID), &out)
	}); err != nil {
		return nil, fmt.Errorf("create graph: %w", err)
	}
	return &out, nil
}

// Graph returns one of the owner's graphs
func (s *Store) Graph(ctx context.Context, ownerID, id string) (*types.Graph, error) {
	var g types.Graph
	if err := s.view(ctx, graphKey(ownerID, id), &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// Graphs lists the owner's graphs, oldest first
func (s *Store) Graphs(ctx context.Context, ownerID string) ([]types.Graph, error) {
	graphs := []types.Graph{}
	err := s.db.View(func(txn *badger.Txn) error {
		return scan(txn, graphPrefix+ownerID+"/", func(val []byte) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var g types.Graph
			if err := json.Unmarshal(val, &g); err != nil {
				return err
			}
			graphs = append(graphs, g)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list graphs: %w", err)
	}
	sort.SliceStable(graphs, func(i, j int) bool {
		return graphs[i].CreatedAt.Before(graphs[j].CreatedAt)
	})
	return graphs, nil
}

// UpdateGraph replaces the name, description and equations of an existing graph
func (s *Store) UpdateGraph(ctx context.Context, g *types.Graph) (*types.Graph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out types.Graph
	err := s.db.Update(func(txn *badger.Txn) error {
		key := graphKey(g.OwnerID, g.ID)
		if err := getJSON(txn, key, &out); err != nil {
			return err
		}
		now := s.now()
		out.Name = g.Name
		out.Description = g.Description
		out.Equations = s.stampEquations(g.OwnerID, out.Equations, g.Equations, now)
		out.UpdatedAt = now
		return putJSON(txn, key, &out)
	})
	if err != nil {
		return nil, notFound(err)
	}
	return &out, nil
}

// DeleteGraph removes one of the owner's graphs
func (s *Store) DeleteGraph(ctx context.Context, ownerID, id string) error {
	return s.remove(ctx, graphKey(ownerID, id))
}

// stampEquations assigns owner and timestamps. Equations whose ID matches
// one in prev keep their ID and creation time, the rest get fresh IDs.
func (s *Store) stampEquations(ownerID string, prev, eqs []types.StoredEquation, now time.Time) []types.StoredEquation {
	created := make(map[string]time.Time, len(prev))
	for _, eq := range prev {
		created[eq.ID] = eq.CreatedAt
	}

	out := make([]types.StoredEquation, len(eqs))
	for i, eq := range eqs {
		if at, ok := created[eq.ID]; ok && eq.ID != "" {
			eq.CreatedAt = at
		} else {
			eq.ID = uuid.New().String()
			eq.CreatedAt = now
		}
		eq.OwnerID = ownerID
		eq.UpdatedAt = now
		out[i] = eq
	}
	return out
}

// Equations

func equationKey(ownerID, id string) string {
	return equationPrefix + ownerID + "/" + id
}

func equationLabels(eq *types.StoredEquation) Labels {
	return Labels{
		LabelOwner:  eq.OwnerID,
		LabelFamily: string(eq.Family),
	}
}

// CreateEquation saves a single equation for eq.OwnerID
func (s *Store) CreateEquation(ctx context.Context, eq *types.StoredEquation) (*types.StoredEquation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	out := *eq
	out.ID = uuid.New().String()
	out.CreatedAt, out.UpdatedAt = now, now

	if err := s.db.Update(func(txn *badger.Txn) error {
		return putJSON(txn, equationKey(out.OwnerID, out.ID), &out)
	}); err != nil {
		return nil, fmt.Errorf("create equation: %w", err)
	}
	s.index.Add(out.ID, equationLabels(&out))
	return &out, nil
}

// Equation returns one of the owner's saved equations
func (s *Store) Equation(ctx context.Context, ownerID, id string) (*types.StoredEquation, error) {
	var eq types.StoredEquation
	if err := s.view(ctx, equationKey(ownerID, id), &eq); err != nil {
		return nil, err
	}
	return &eq, nil
}

// Equations lists the owner's saved equations, oldest first. A non-empty
// family restricts the result to that family.
func (s *Store) Equations(ctx context.Context, ownerID string, family types.Family) ([]types.StoredEquation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	selectors := Labels{LabelOwner: ownerID}
	if family != "" {
		selectors[LabelFamily] = string(family)
	}
	ids := s.index.Find(selectors)
	s.mu.RUnlock()

	eqs := make([]types.StoredEquation, 0, len(ids))
	err := s.db.View(func(txn *badger.Txn) error {
		for _, id := range ids {
			var eq types.StoredEquation
			err := getJSON(txn, equationKey(ownerID, id), &eq)
			if errors.Is(err, badger.ErrKeyNotFound) {
				// deleted since the index lookup
				continue
			}
			if err != nil {
				return err
			}
			eqs = append(eqs, eq)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list equations: %w", err)
	}
	sort.SliceStable(eqs, func(i, j int) bool {
		if eqs[i].CreatedAt.Equal(eqs[j].CreatedAt) {
			return eqs[i].ID < eqs[j].ID
		}
		return eqs[i].CreatedAt.Before(eqs[j].CreatedAt)
	})
	return eqs, nil
}

// UpdateEquation replaces the text, styling and family of a saved equation
func (s *Store) UpdateEquation(ctx context.Context, eq *types.StoredEquation) (*types.StoredEquation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out types.StoredEquation
	err := s.db.Update(func(txn *badger.Txn) error {
		key := equationKey(eq.OwnerID, eq.ID)
		if err := getJSON(txn, key, &out); err != nil {
			return err
		}
		out.Equation = eq.Equation
		out.Color = eq.Color
		out.Thickness = eq.Thickness
		out.Family = eq.Family
		out.UpdatedAt = s.now()
		return putJSON(txn, key, &out)
	})
	if err != nil {
		return nil, notFound(err)
	}
	s.index.Add(out.ID, equationLabels(&out))
	return &out, nil
}

// DeleteEquation removes one of the owner's saved equations
func (s *Store) DeleteEquation(ctx context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.remove(ctx, equationKey(ownerID, id)); err != nil {
		return err
	}
	s.index.Remove(id)
	return nil
}

// EquationFamilies returns the families present among the owner's saved
// equations
func (s *Store) EquationFamilies(ownerID string) []types.Family {
	s.mu.RLock()
	defer s.mu.RUnlock()

	families := []types.Family{}
	for _, v := range s.index.Values(LabelFamily) {
		if len(s.index.Find(Labels{LabelOwner: ownerID, LabelFamily: v})) > 0 {
			families = append(families, types.Family(v))
		}
	}
	return families
}

// Tokens

// RevokeToken records a token ID as revoked until it would have expired
func (s *Store) RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(revokedPrefix+tokenID), nil).WithTTL(ttl))
	})
}

// IsRevoked reports whether a token ID was revoked
func (s *Store) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(revokedPrefix + tokenID))
		return err
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return false, nil
	}
	return false, err
}

// helpers

func (s *Store) view(ctx context.Context, key string, v interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return notFound(s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, key, v)
	}))
}

func (s *Store) remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return notFound(s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(key)); err != nil {
			return err
		}
		return txn.Delete([]byte(key))
	}))
}

func notFound(err error) error {
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	return err
}

func getJSON(txn *badger.Txn, key string, v interface{}) error {
	item, err := txn.Get([]byte(key))
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func putJSON(txn *badger.Txn, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return txn.Set([]byte(key), data)
}

// scan calls fn with the value of every key under prefix
func scan(txn *badger.Txn, prefix string, fn func(val []byte) error) error {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	p := []byte(prefix)
	for it.Seek(p); it.ValidForPrefix(p); it.Next() {
		if err := it.Item().Value(fn); err != nil {
			return err
		}
	}
	return nil
}
