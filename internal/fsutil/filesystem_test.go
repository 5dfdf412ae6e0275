package fsutil

import (
	"io"
	"testing"
)

func TestMemoryFileSystemReadWrite(t *testing.T) {
	fs := NewMemoryFileSystem()

	if fs.Exists("a.txt") {
		t.Fatal("empty filesystem should not contain a.txt")
	}

	if err := fs.WriteFile("a.txt", []byte("hello"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := fs.ReadFile("a.txt")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("ReadFile = %q, want %q", data, "hello")
	}

	if !fs.Exists("a.txt") {
		t.Error("a.txt should exist after write")
	}
}

func TestMemoryFileSystemOpen(t *testing.T) {
	fs := NewMemoryFileSystem()
	if err := fs.WriteFile("dir/b.txt", []byte("contents"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	f, err := fs.Open("dir/b.txt")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(data) != "contents" {
		t.Errorf("read %q, want %q", data, "contents")
	}

	if _, err := fs.Open("missing.txt"); err == nil {
		t.Error("Open of missing file should fail")
	}
}



