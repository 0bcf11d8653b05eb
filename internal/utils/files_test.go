package utils_test

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/surveyclust/internal/utils"
)

func TestSafeWriteFileCreatesParentsAndOverwrites(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "nested", "out", "data_clean")

	if err := utils.SafeWriteFile(p, []byte("first")); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := utils.SafeWriteFile(p, []byte("second")); err != nil {
		t.Fatalf("second write: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "second" {
		t.Fatalf("content = %q, want overwrite", string(b))
	}
	if _, err := os.Stat(p + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}

func TestSafeWriteWithKeepsOldFileOnError(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "out.csv")
	if err := os.WriteFile(p, []byte("keep"), 0o644); err != nil {
		t.Fatal(err)
	}
	boom := errors.New("boom")
	err := utils.SafeWriteWith(p, func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	b, _ := os.ReadFile(p)
	if string(b) != "keep" {
		t.Fatalf("content = %q, want original", string(b))
	}
}

func TestPrettyJSON(t *testing.T) {
	b, err := utils.PrettyJSON(map[string]int{"k": 2})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != "{\n  \"k\": 2\n}" {
		t.Fatalf("unexpected json: %s", b)
	}
}
