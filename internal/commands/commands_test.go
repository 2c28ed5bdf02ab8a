package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/awards/internal/core"
	"github.com/JonMunkholm/awards/internal/store"
)

const csvHeader = "ID сотрудника,ФИО сотрудника,ID награды,Название награды,Дата получения\n"

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, deps *Deps, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := New(deps)
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func memoryDeps(mem *store.Memory) *Deps {
	return &Deps{
		OpenStore: func(context.Context) (core.Store, func(), error) {
			return mem, func() {}, nil
		},
		Migrate: func(context.Context) error { return nil },
	}
}

func TestValidate(t *testing.T) {
	path := writeFile(t, "awards.csv", csvHeader+
		"1247,Мария Козлова,891,Награда,2025-03-22\n"+
		"1248,Иван Петров,892,Другая,2025-03-23\n")

	out, err := run(t, memoryDeps(store.NewMemory()), "validate", path)
	if err != nil {
		t.Fatalf("validate error = %v", err)
	}
	if out != "awards.csv: 2 records\n" {
		t.Errorf("output = %q", out)
	}
}

func TestValidate_PrintRecords(t *testing.T) {
	path := writeFile(t, "awards.csv", csvHeader+"1247,Мария Козлова,891,Награда,2025-03-22\n")

	out, err := run(t, memoryDeps(store.NewMemory()), "validate", "--records", path)
	if err != nil {
		t.Fatalf("validate error = %v", err)
	}
	var recs []core.Record
	if err := json.Unmarshal([]byte(out), &recs); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(recs) != 1 || recs[0].AwardExternalID != 891 {
		t.Errorf("records = %+v", recs)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    string
		wantErr error
	}{
		{"unsupported", "awards.txt", "x", core.ErrUnsupportedFormat},
		{"bad row", "awards.csv", csvHeader + "1247,Мария\n", core.ErrParse},
		{"not a workbook", "awards.xlsx", "not a zip", core.ErrInvalidFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, memoryDeps(store.NewMemory()), "validate", writeFile(t, tt.file, tt.body))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, err := run(t, memoryDeps(store.NewMemory()), "validate", filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("missing file should fail")
	}
}

func TestIngest(t *testing.T) {
	mem := store.NewMemory()
	mem.AddEmployee(1247, "Мария Козлова")
	path := writeFile(t, "awards.csv", csvHeader+
		"1247,Мария Козлова,891,Награда,2025-03-22\n"+
		"999,Нет,892,Другая,2025-03-23\n")

	out, err := run(t, memoryDeps(mem), "ingest", path)
	if err != nil {
		t.Fatalf("ingest error = %v", err)
	}

	var res core.UploadResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if res.CreatedRecords != 1 || res.SkippedRecords != 1 {
		t.Errorf("result = %+v", res)
	}

	logs, _ := mem.ListUploads(context.Background(), 10)
	if len(logs) != 1 || logs[0].Source != cliSource {
		t.Errorf("upload log = %+v", logs)
	}
}

func TestIngest_StoreUnavailable(t *testing.T) {
	deps := &Deps{
		OpenStore: func(context.Context) (core.Store, func(), error) {
			return nil, nil, errors.New("connection refused")
		},
	}
	path := writeFile(t, "awards.csv", csvHeader+"1247,Мария Козлова,891,Награда,2025-03-22\n")

	_, err := run(t, deps, "ingest", path)
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("error = %v", err)
	}
}

func TestMigrate(t *testing.T) {
	called := false
	deps := memoryDeps(store.NewMemory())
	deps.Migrate = func(context.Context) error {
		called = true
		return nil
	}

	out, err := run(t, deps, "migrate")
	if err != nil || !called {
		t.Fatalf("migrate error = %v, called = %v", err, called)
	}
	if !strings.Contains(out, "migrations applied") {
		t.Errorf("output = %q", out)
	}
}
