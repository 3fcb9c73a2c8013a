package digestfile

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestPostgresWatermarkStoreIntegration(t *testing.T) {
	dsn := strings.TrimSpace(os.Getenv("DIGESTFILE_TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("DIGESTFILE_TEST_POSTGRES_DSN not set")
	}

	store, err := NewPostgresWatermarkStore(dsn)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer store.Close()

	projectID := "itest-" + time.Now().UTC().Format("20060102150405.000")
	if _, found, err := store.Load(projectID); err != nil || found {
		t.Fatalf("expected fresh project, got found=%v err=%v", found, err)
	}
	if err := store.Save(projectID, 10); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := store.Save(projectID, 25); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	value, found, err := store.Load(projectID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !found || value != 25 {
		t.Fatalf("expected (25, true), got (%d, %v)", value, found)
	}
}
