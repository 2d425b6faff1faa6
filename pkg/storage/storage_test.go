package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vjranagit/graphcalc/pkg/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(&Config{Path: t.TempDir(), CompressionLevel: 1})
	if err != nil {
		t.Fatalf("Failed to open storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestUsers(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	user, err := store.CreateUser(ctx, "ada", "hash-1")
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	if user.ID == "" {
		t.Fatal("Expected a user ID")
	}

	if _, err := store.CreateUser(ctx, "ada", "hash-2"); !errors.Is(err, ErrConflict) {
		t.Errorf("Expected ErrConflict for duplicate username, got %v", err)
	}

	byName, err := store.UserByName(ctx, "ada")
	if err != nil {
		t.Fatalf("Failed to look up by name: %v", err)
	}
	if byName.ID != user.ID || byName.PasswordHash != "hash-1" {
		t.Errorf("Unexpected user: %+v", byName)
	}

	byID, err := store.UserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("Failed to look up by ID: %v", err)
	}
	if byID.Username != "ada" {
		t.Errorf("Expected username ada, got %s", byID.Username)
	}

	if _, err := store.UserByName(ctx, "grace"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSettingsDefaultsAndUpdate(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	settings, err := store.Settings(ctx, "user-1")
	if err != nil {
		t.Fatalf("Failed to read settings: %v", err)
	}
	if settings != types.DefaultSettings() {
		t.Errorf("Expected default settings, got %+v", settings)
	}

	settings.Theme = "dark"
	settings.AxisSettings.XAxis = types.AxisRange{Min: -5, Max: 5}
	if err := store.PutSettings(ctx, "user-1", settings); err != nil {
		t.Fatalf("Failed to save settings: %v", err)
	}

	got, err := store.Settings(ctx, "user-1")
	if err != nil {
		t.Fatalf("Failed to read settings: %v", err)
	}
	if got != settings {
		t.Errorf("Expected %+v, got %+v", settings, got)
	}
}

func TestGraphLifecycle(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	created, err := store.CreateGraph(ctx, &types.Graph{
		OwnerID: "user-1",
		Name:    "parabolas",
		Equations: []types.StoredEquation{
			{Equation: "y = x^2", Color: "#00ff00", Thickness: 2, Family: types.Quadratic},
		},
	})
	if err != nil {
		t.Fatalf("Failed to create graph: %v", err)
	}
	if created.ID == "" || created.Equations[0].ID == "" {
		t.Fatalf("Expected IDs to be assigned: %+v", created)
	}
	if created.Equations[0].OwnerID != "user-1" {
		t.Errorf("Expected equation owner user-1, got %s", created.Equations[0].OwnerID)
	}

	if _, err := store.Graph(ctx, "user-2", created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected other owners not to see the graph, got %v", err)
	}

	created.Name = "curves"
	created.Equations = append(created.Equations, types.StoredEquation{Equation: "y = 2*x + 1", Family: types.Linear})
	updated, err := store.UpdateGraph(ctx, created)
	if err != nil {
		t.Fatalf("Failed to update graph: %v", err)
	}
	if updated.Name != "curves" || len(updated.Equations) != 2 {
		t.Errorf("Unexpected update result: %+v", updated)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Error("Expected CreatedAt to survive updates")
	}
	if updated.Equations[0].ID != created.Equations[0].ID || updated.Equations[1].ID == "" {
		t.Errorf("Expected kept equation IDs and a fresh one: %+v", updated.Equations)
	}

	if _, err := store.CreateGraph(ctx, &types.Graph{OwnerID: "user-1", Name: "second"}); err != nil {
		t.Fatalf("Failed to create graph: %v", err)
	}
	graphs, err := store.Graphs(ctx, "user-1")
	if err != nil {
		t.Fatalf("Failed to list graphs: %v", err)
	}
	if len(graphs) != 2 {
		t.Fatalf("Expected 2 graphs, got %d", len(graphs))
	}

	if err := store.DeleteGraph(ctx, "user-1", created.ID); err != nil {
		t.Fatalf("Failed to delete graph: %v", err)
	}
	if err := store.DeleteGraph(ctx, "user-1", created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
	if _, err := store.UpdateGraph(ctx, created); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound updating a deleted graph, got %v", err)
	}
}

func TestEquationsByOwnerAndFamily(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	inputs := []types.StoredEquation{
		{OwnerID: PublicOwner, Equation: "y = 2*x + 1", Family: types.Linear},
		{OwnerID: PublicOwner, Equation: "y = x^2", Family: types.Quadratic},
		{OwnerID: PublicOwner, Equation: "y = -x + 4", Family: types.Linear},
		{OwnerID: "user-1", Equation: "y = x", Family: types.Linear},
	}
	var saved []*types.StoredEquation
	for i := range inputs {
		eq, err := store.CreateEquation(ctx, &inputs[i])
		if err != nil {
			t.Fatalf("Failed to create equation: %v", err)
		}
		saved = append(saved, eq)
	}

	all, err := store.Equations(ctx, PublicOwner, "")
	if err != nil {
		t.Fatalf("Failed to list equations: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 public equations, got %d", len(all))
	}

	linear, err := store.Equations(ctx, PublicOwner, types.Linear)
	if err != nil {
		t.Fatalf("Failed to list equations: %v", err)
	}
	if len(linear) != 2 {
		t.Errorf("Expected 2 linear public equations, got %d", len(linear))
	}

	if families := store.EquationFamilies(PublicOwner); len(families) != 2 {
		t.Errorf("Expected 2 families, got %v", families)
	}

	// reclassify one equation and check the index follows
	changed := *saved[0]
	changed.Equation = "y = x^3"
	changed.Family = types.Polynomial
	if _, err := store.UpdateEquation(ctx, &changed); err != nil {
		t.Fatalf("Failed to update equation: %v", err)
	}
	linear, _ = store.Equations(ctx, PublicOwner, types.Linear)
	if len(linear) != 1 {
		t.Errorf("Expected 1 linear equation after update, got %d", len(linear))
	}

	if err := store.DeleteEquation(ctx, PublicOwner, saved[1].ID); err != nil {
		t.Fatalf("Failed to delete equation: %v", err)
	}
	if _, err := store.Equation(ctx, PublicOwner, saved[1].ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
	if err := store.DeleteEquation(ctx, "user-1", saved[0].ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected owners to be isolated, got %v", err)
	}
}

func TestIndexRebuiltOnOpen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := Open(&Config{Path: dir, CompressionLevel: 1})
	if err != nil {
		t.Fatalf("Failed to open storage: %v", err)
	}
	for _, raw := range []string{"y = x", "y = sin(x)"} {
		family := types.Linear
		if raw == "y = sin(x)" {
			family = types.Trigonometric
		}
		if _, err := store.CreateEquation(ctx, &types.StoredEquation{OwnerID: PublicOwner, Equation: raw, Family: family}); err != nil {
			t.Fatalf("Failed to create equation: %v", err)
		}
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Failed to close storage: %v", err)
	}

	reopened, err := Open(&Config{Path: dir, CompressionLevel: 1})
	if err != nil {
		t.Fatalf("Failed to reopen storage: %v", err)
	}
	defer reopened.Close()

	trig, err := reopened.Equations(ctx, PublicOwner, types.Trigonometric)
	if err != nil {
		t.Fatalf("Failed to list equations: %v", err)
	}
	if len(trig) != 1 || trig[0].Equation != "y = sin(x)" {
		t.Errorf("Unexpected equations after reopen: %+v", trig)
	}
}

func TestRevokedTokens(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	revoked, err := store.IsRevoked(ctx, "token-1")
	if err != nil || revoked {
		t.Fatalf("Expected token not revoked, got %v, %v", revoked, err)
	}

	if err := store.RevokeToken(ctx, "token-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Failed to revoke token: %v", err)
	}
	revoked, err = store.IsRevoked(ctx, "token-1")
	if err != nil || !revoked {
		t.Errorf("Expected token revoked, got %v, %v", revoked, err)
	}

	// already expired tokens need no entry
	if err := store.RevokeToken(ctx, "token-2", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("Failed to revoke expired token: %v", err)
	}
	if revoked, _ := store.IsRevoked(ctx, "token-2"); revoked {
		t.Error("Expected no entry for an expired token")
	}
}

func TestCanceledContext(t *testing.T) {
	store := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := store.CreateUser(ctx, "ada", "hash"); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
