package syncer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/shelf/internal/entities"
	"github.com/mrlokans/shelf/internal/remote"
)

type fakeCatalog struct {
	records  []remote.Record
	queryErr error
	queried  string
}

func (f *fakeCatalog) QueryByOwner(ctx context.Context, ownerID string) ([]remote.Record, error) {
	f.queried = ownerID
	return f.records, f.queryErr
}

func (f *fakeCatalog) Put(ctx context.Context, id string, record remote.Record) error {
	return nil
}

func (f *fakeCatalog) Remove(ctx context.Context, id string) error {
	return nil
}

func newEngine(records ...remote.Record) (*Engine, *fakeCatalog) {
	catalog := &fakeCatalog{records: records}
	return New(catalog, remote.StaticCredentials{UserID: "user-1"}), catalog
}

func TestEngine_Reconcile_SurfacesOnlyUnknownIDs(t *testing.T) {
	engine, catalog := newEngine(
		remote.Record{ID: "a1", Title: "Remote Title", Author: "Remote Author"},
		remote.Record{ID: "b2", Title: "New Book", Author: "Someone", FileURL: "books/b2.pdf", FileSize: 77},
	)

	fresh, err := engine.Reconcile(context.Background(), []string{"a1"})
	require.NoError(t, err)

	assert.Equal(t, "user-1", catalog.queried)
	require.Len(t, fresh, 1)
	assert.Equal(t, "b2", fresh[0].ID)
	assert.Equal(t, "New Book", fresh[0].Title)
	assert.Equal(t, "books/b2.pdf", fresh[0].ContentURL)
	assert.Equal(t, int64(77), fresh[0].ContentSize)
	assert.False(t, fresh[0].IsDownloaded)
	assert.Empty(t, fresh[0].LocalPath)
}

func TestEngine_Reconcile_TrimsIncidentalWhitespace(t *testing.T) {
	engine, _ := newEngine(
		remote.Record{ID: "  a1 ", Title: "Known"},
		remote.Record{ID: " b2", Title: "Unknown"},
	)

	fresh, err := engine.Reconcile(context.Background(), []string{"a1 "})
	require.NoError(t, err)

	require.Len(t, fresh, 1)
	assert.Equal(t, "b2", fresh[0].ID)
}

func TestEngine_Reconcile_DropsTitlelessRecords(t *testing.T) {
	engine, _ := newEngine(
		remote.Record{ID: "b2", Title: ""},
		remote.Record{ID: "c3", Title: "Titled"},
	)

	fresh, err := engine.Reconcile(context.Background(), nil)
	require.NoError(t, err)

	require.Len(t, fresh, 1)
	assert.Equal(t, "c3", fresh[0].ID)
}

func TestEngine_Reconcile_EmptyAuthorAllowed(t *testing.T) {
	engine, _ := newEngine(remote.Record{ID: "b2", Title: "Titled", Author: ""})

	fresh, err := engine.Reconcile(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, "", fresh[0].Author)
}

func TestEngine_Reconcile_RemoteError(t *testing.T) {
	catalog := &fakeCatalog{queryErr: errors.New("503")}
	engine := New(catalog, remote.StaticCredentials{UserID: "user-1"})

	_, err := engine.Reconcile(context.Background(), nil)
	assert.Error(t, err)
}

func TestEngine_Reconcile_NoAuthenticatedUser(t *testing.T) {
	engine := New(&fakeCatalog{}, remote.StaticCredentials{})

	_, err := engine.Reconcile(context.Background(), nil)
	assert.Error(t, err)
}

func TestMerge_LocalStateWins(t *testing.T) {
	local := []entities.Book{
		{ID: "a1", Title: "Local Title", IsDownloaded: true, LocalPath: "/sandbox/book_a1_x.pdf"},
	}
	fresh := []entities.Book{
		{ID: "a1", Title: "Remote Title"},
		{ID: "b2", Title: "New Book"},
	}

	merged := Merge(local, fresh)

	require.Len(t, merged, 2)
	assert.Equal(t, "Local Title", merged[0].Title)
	assert.True(t, merged[0].IsDownloaded)
	assert.Equal(t, "b2", merged[1].ID)
}

func TestMerge_NoDuplicateIDs(t *testing.T) {
	local := []entities.Book{{ID: "a1", Title: "A"}, {ID: "b2", Title: "B"}}
	fresh := []entities.Book{{ID: "b2", Title: "B remote"}, {ID: "c3", Title: "C"}}

	merged := Merge(local, fresh)

	ids := map[string]int{}
	for _, book := range merged {
		ids[book.ID]++
	}
	for id, count := range ids {
		assert.Equal(t, 1, count, "duplicate id %s", id)
	}
	assert.Len(t, merged, 3)
}

// Scenario from the reconciliation contract: local has a downloaded "a1",
// remote has "a1" with a different title plus "b2". Only "b2" is surfaced
// and the merged view keeps a1's local title.
func TestReconcileAndMerge_Scenario(t *testing.T) {
	engine, _ := newEngine(
		remote.Record{ID: "a1", Title: "Different Remote Title"},
		remote.Record{ID: "b2", Title: "Second Book"},
	)

	local := []entities.Book{{ID: "a1", Title: "Original Local Title", IsDownloaded: true, LocalPath: "/sandbox/a1"}}

	fresh, err := engine.Reconcile(context.Background(), []string{"a1"})
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, "b2", fresh[0].ID)

	merged := Merge(local, fresh)
	require.Len(t, merged, 2)
	assert.Equal(t, "Original Local Title", merged[0].Title)
}
