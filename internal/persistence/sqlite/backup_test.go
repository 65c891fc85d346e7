package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/example/session-planner/internal/persistence"
)

func TestExportImportRoundTrip(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	if err := store.Seed(ctx, testSeed(t)); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	backup := NewBackupRepository(store)
	exported, err := backup.ExportData(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	var document map[string]json.RawMessage
	if err := json.Unmarshal(exported, &document); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	for _, key := range []string{"sessions", "users", "speakers", "settings", "exportedAt"} {
		if _, ok := document[key]; !ok {
			t.Errorf("export missing key %q", key)
		}
	}

	// Import into a fresh store and check the collections survive intact.
	target := newTestStore(t)
	if err := NewBackupRepository(target).ImportData(ctx, exported); err != nil {
		t.Fatalf("import: %v", err)
	}

	sourceUsers, err := NewUserRepository(store).ListUsers(ctx)
	if err != nil {
		t.Fatalf("list source users: %v", err)
	}
	targetUsers, err := NewUserRepository(target).ListUsers(ctx)
	if err != nil {
		t.Fatalf("list target users: %v", err)
	}
	if len(sourceUsers) != len(targetUsers) {
		t.Fatalf("user counts differ: %d vs %d", len(sourceUsers), len(targetUsers))
	}
	for i := range sourceUsers {
		if sourceUsers[i] != targetUsers[i] {
			t.Fatalf("user %d differs after round trip: %+v vs %+v", i, sourceUsers[i], targetUsers[i])
		}
	}
}

func TestExportEmptyStoreUsesDefaults(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	exported, err := NewBackupRepository(store).ExportData(context.Background())
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	payload := string(exported)
	if !strings.Contains(payload, `"sessions": []`) {
		t.Errorf("expected empty sessions list in export, got %s", payload)
	}
	if !strings.Contains(payload, `"settings": {}`) {
		t.Errorf("expected empty settings object in export, got %s", payload)
	}
}

func TestImportSkipsAbsentKeys(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	if err := store.Seed(ctx, testSeed(t)); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	partial := []byte(`{"speakers":[{"id":"sp9","name":"Imported Speaker"}]}`)
	if err := NewBackupRepository(store).ImportData(ctx, partial); err != nil {
		t.Fatalf("import partial document: %v", err)
	}

	speakers, err := NewSpeakerRepository(store).ListSpeakers(ctx)
	if err != nil {
		t.Fatalf("list speakers: %v", err)
	}
	if len(speakers) != 1 || speakers[0].ID != "sp9" {
		t.Fatalf("expected speakers collection replaced, got %+v", speakers)
	}

	// Collections missing from the document keep their seeded contents.
	users, err := NewUserRepository(store).ListUsers(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected seeded users untouched, got %d", len(users))
	}
}

func TestImportRejectsMalformedDocument(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	if err := store.Seed(ctx, testSeed(t)); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	backup := NewBackupRepository(store)

	cases := map[string][]byte{
		"not json":       []byte(`{`),
		"sessions shape": []byte(`{"sessions":{"not":"a list"}}`),
		"settings shape": []byte(`{"settings":[1,2,3]}`),
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			if err := backup.ImportData(ctx, payload); !errors.Is(err, persistence.ErrImport) {
				t.Fatalf("expected ErrImport, got %v", err)
			}
		})
	}

	// A document that fails validation must leave existing data intact.
	bad := []byte(`{"users":[{"id":"u9"}],"sessions":"nope"}`)
	if err := backup.ImportData(ctx, bad); !errors.Is(err, persistence.ErrImport) {
		t.Fatalf("expected ErrImport, got %v", err)
	}
	users, err := NewUserRepository(store).ListUsers(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected seeded users untouched after failed import, got %d", len(users))
	}
}
