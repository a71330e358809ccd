// Package backup snapshots the sqlite database file. Episode archives and the
// alert audit trail live there; losing them loses the evidence record.
package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Execute copies the database file into dir with a timestamped name and prunes
// snapshots beyond keep. The copy reads the live file; sqlite keeps it
// consistent as long as WAL checkpointing is left to the driver.
func Execute(dbPath, dir string, keep int) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	src, err := os.Open(dbPath)
	if err != nil {
		return "", fmt.Errorf("opening database for backup: %w", err)
	}
	defer src.Close()

	name := fmt.Sprintf("guard-%s.db", time.Now().Format("20060102-150405"))
	target := filepath.Join(dir, name)
	dst, err := os.Create(target)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(target)
		return "", fmt.Errorf("copying database: %w", err)
	}
	if err := prune(dir, keep); err != nil {
		return target, err
	}
	return target, nil
}

func prune(dir string, keep int) error {
	if keep <= 0 {
		return nil
	}
	matches, err := filepath.Glob(filepath.Join(dir, "guard-*.db"))
	if err != nil {
		return err
	}
	if len(matches) <= keep {
		return nil
	}
	sort.Strings(matches) // timestamped names sort oldest first
	for _, old := range matches[:len(matches)-keep] {
		if err := os.Remove(old); err != nil {
			return err
		}
	}
	return nil
}
