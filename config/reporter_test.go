package config

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestReport_Finalize(t *testing.T) {
	reportFile, err := os.CreateTemp("", "test-report-*.zip")
	if err != nil {
		t.Fatalf("failed to create temp report file: %v", err)
	}
	defer os.Remove(reportFile.Name())

	r := &Report{
		entries: make(map[string]entry),
		file:    reportFile,
	}

	stored := filepath.Join(t.TempDir(), "result.txt")
	if err := os.WriteFile(stored, []byte("result content"), 0644); err != nil {
		t.Fatalf("failed to write stored file: %v", err)
	}

	r.Store("result.txt", stored)
	r.Store("missing.txt", filepath.Join(t.TempDir(), "does-not-exist"))
	r.StoreData("deps.json", []byte(`{"deps":{}}`))

	if err := r.Close(); err != nil {
		t.Fatalf("Report.Close() error: %v", err)
	}

	zr, err := zip.OpenReader(reportFile.Name())
	if err != nil {
		t.Fatalf("failed to open report archive: %v", err)
	}
	defer zr.Close()

	got := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("failed to open entry %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("failed to read entry %s: %v", f.Name, err)
		}
		got[f.Name] = data
	}

	if _, ok := got["MANIFEST"]; !ok {
		t.Error("report has no MANIFEST")
	}
	if string(got["result.txt"]) != "result content" {
		t.Errorf("result.txt content = %q", got["result.txt"])
	}
	if string(got["deps.json"]) != `{"deps":{}}` {
		t.Errorf("deps.json content = %q", got["deps.json"])
	}
	// absent files are dropped silently
	if _, ok := got["missing.txt"]; ok {
		t.Error("missing file ended up in the report")
	}
}

func TestReport_StoreSameFileTwice(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}

	r.Store("name", "/some/path")
	// same name and path is a no-op, not a panic
	r.Store("name", "/some/path")

	defer func() {
		if recover() == nil {
			t.Error("expected panic when overwriting entry with different path")
		}
	}()
	r.Store("name", "/other/path")
}

func TestReport_NilSafety(t *testing.T) {
	var r *Report

	// all operations on uninitialized report are quiet no-ops
	r.Store("name", "/some/path")
	r.StoreData("name", []byte("data"))
	if n := r.Name(); n != "" {
		t.Errorf("Name() on nil report = %q, want empty", n)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close on nil report should not error, got: %v", err)
	}
}

func TestReportClose_NilFile(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	if err := r.Close(); err != nil {
		t.Errorf("Close with nil file should not error, got: %v", err)
	}
}
