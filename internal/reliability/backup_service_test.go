package reliability

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sambutler/wheeltrack/internal/database"
)

type fakeStore struct {
	uploads map[string][]byte
	deleted []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{uploads: map[string][]byte{}}
}

func (f *fakeStore) Upload(ctx context.Context, key string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.uploads[key] = data
	return nil
}

func (f *fakeStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var objects []ObjectInfo
	for key, data := range f.uploads {
		if strings.HasPrefix(key, prefix) {
			objects = append(objects, ObjectInfo{Key: key, SizeBytes: int64(len(data))})
		}
	}
	return objects, nil
}

func (f *fakeStore) Delete(ctx context.Context, key string) error {
	delete(f.uploads, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func testLedger(t *testing.T, dir string) *database.DB {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(dir, "ledger.db"),
		Profile: database.ProfileLedger,
		Name:    "ledger",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Conn().Exec("CREATE TABLE trades (id TEXT PRIMARY KEY, ticker TEXT)")
	require.NoError(t, err)
	_, err = db.Conn().Exec("INSERT INTO trades VALUES ('t1', 'AAPL')")
	require.NoError(t, err)

	return db
}

func TestCreateAndUploadBackup(t *testing.T) {
	dir := t.TempDir()
	ledger := testLedger(t, dir)
	store := newFakeStore()
	svc := NewBackupService(ledger, store, dir, zerolog.New(nil).Level(zerolog.Disabled))

	err := svc.CreateAndUploadBackup(context.Background())
	require.NoError(t, err)
	require.Len(t, store.uploads, 1)

	var key string
	for k := range store.uploads {
		key = k
	}
	assert.True(t, strings.HasPrefix(key, backupPrefix))
	assert.True(t, strings.HasSuffix(key, ".tar.gz"))

	// Archive contains the ledger snapshot and the checksum manifest
	names := archiveEntries(t, store.uploads[key])
	assert.Contains(t, names, "ledger.db")
	assert.Contains(t, names, "backup-metadata.json")
}

func TestListBackups_NewestFirst(t *testing.T) {
	dir := t.TempDir()
	store := newFakeStore()
	store.uploads[backupPrefix+"2024-01-01-030000.tar.gz"] = []byte("old")
	store.uploads[backupPrefix+"2024-02-01-030000.tar.gz"] = []byte("new")
	store.uploads["unrelated.txt"] = []byte("x")

	svc := NewBackupService(testLedger(t, dir), store, dir, zerolog.New(nil).Level(zerolog.Disabled))

	backups, err := svc.ListBackups(context.Background())
	require.NoError(t, err)
	require.Len(t, backups, 2)
	assert.Equal(t, backupPrefix+"2024-02-01-030000.tar.gz", backups[0].Filename)
}

func TestRotateOldBackups_KeepsMinimum(t *testing.T) {
	dir := t.TempDir()
	store := newFakeStore()
	// Three ancient backups - all survive, the floor protects them
	for _, stamp := range []string{"2020-01-01-030000", "2020-01-02-030000", "2020-01-03-030000"} {
		store.uploads[backupPrefix+stamp+".tar.gz"] = []byte("x")
	}

	svc := NewBackupService(testLedger(t, dir), store, dir, zerolog.New(nil).Level(zerolog.Disabled))

	err := svc.RotateOldBackups(context.Background(), 30)
	require.NoError(t, err)
	assert.Empty(t, store.deleted)
}

func TestRotateOldBackups_DeletesBeyondRetention(t *testing.T) {
	dir := t.TempDir()
	store := newFakeStore()

	now := time.Now()
	for i := 0; i < 4; i++ {
		stamp := now.AddDate(0, 0, -i).UTC().Format(backupTimestampFormat)
		store.uploads[backupPrefix+stamp+".tar.gz"] = []byte("fresh")
	}
	ancient := backupPrefix + "2020-01-01-030000.tar.gz"
	store.uploads[ancient] = []byte("ancient")

	svc := NewBackupService(testLedger(t, dir), store, dir, zerolog.New(nil).Level(zerolog.Disabled))

	err := svc.RotateOldBackups(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, []string{ancient}, store.deleted)
}

// archiveEntries lists the file names inside a tar.gz payload
func archiveEntries(t *testing.T, data []byte) []string {
	t.Helper()

	gz, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer gz.Close()

	var names []string
	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		names = append(names, header.Name)
	}
	return names
}
