package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/castock/listsync/internal/models"
	"github.com/castock/listsync/internal/shared"
	"github.com/castock/listsync/internal/store"
	"github.com/urfave/cli/v3"
)

// stubRemote stands in for the backend; every call reports an outage.
type stubRemote struct{}

func (stubRemote) Name() string { return "stub" }

func (stubRemote) IsAvailable(ctx context.Context) bool { return false }

func (stubRemote) GetAllLists(ctx context.Context) ([]*models.List, error) {
	return nil, shared.ErrUnavailable
}

func (stubRemote) GetListByID(ctx context.Context, id string) (*models.List, error) {
	return nil, shared.ErrUnavailable
}

func (stubRemote) SaveList(ctx context.Context, list *models.List) error {
	return shared.ErrUnavailable
}

func (stubRemote) DeleteList(ctx context.Context, id string) error { return shared.ErrUnavailable }

func (stubRemote) GetItemsByListID(ctx context.Context, listID string) ([]*models.ListItem, error) {
	return nil, shared.ErrUnavailable
}

func (stubRemote) SaveItem(ctx context.Context, item *models.ListItem) error {
	return shared.ErrUnavailable
}

func (stubRemote) UpdateItem(ctx context.Context, item *models.ListItem) error {
	return shared.ErrUnavailable
}

func (stubRemote) DeleteItem(ctx context.Context, id string) error { return shared.ErrUnavailable }

var _ store.EntityStore = stubRemote{}

func newTestRunner(t *testing.T) (*Runner, *bytes.Buffer) {
	t.Helper()

	config := shared.DefaultConfig()
	config.Database.Path = filepath.Join(t.TempDir(), "test.db")

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config: config,
		Logger: shared.NewLogger(output),
		Output: output,
		Remote: stubRemote{},
	})
	t.Cleanup(runner.Close)
	return runner, output
}

func run(t *testing.T, runner *Runner, args ...string) error {
	t.Helper()
	app := &cli.Command{
		Name:     "listsync",
		Commands: runner.register(),
	}
	return app.Run(context.Background(), append([]string{"listsync"}, args...))
}

func TestNewRunner(t *testing.T) {
	t.Run("with all dependencies provided", func(t *testing.T) {
		config := shared.DefaultConfig()
		logger := shared.NewLogger(nil)
		output := &bytes.Buffer{}

		runner := NewRunner(RunnerOpts{
			Config: config,
			Logger: logger,
			Output: output,
		})

		if runner.config != config {
			t.Error("expected config to be set")
		}
		if runner.logger != logger {
			t.Error("expected logger to be set")
		}
		if runner.output != output {
			t.Error("expected output to be set")
		}
	})

	t.Run("with nil config uses defaults", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		if runner.config == nil {
			t.Error("expected default config to be set")
		}
	})

	t.Run("with nil output uses stdout", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		if runner.output != os.Stdout {
			t.Error("expected output to default to os.Stdout")
		}
	})
}

func TestListCommands(t *testing.T) {
	runner, output := newTestRunner(t)

	t.Run("add creates a list", func(t *testing.T) {
		if err := run(t, runner, "list", "add", "--kind", "shopping", "Groceries"); err != nil {
			t.Fatalf("list add failed: %v", err)
		}
		if !strings.Contains(output.String(), "Created Groceries") {
			t.Errorf("missing confirmation in output: %s", output.String())
		}
	})

	t.Run("add rejects unknown kind", func(t *testing.T) {
		if err := run(t, runner, "list", "add", "--kind", "nonsense", "Broken"); err == nil {
			t.Error("expected error for unknown kind")
		}
	})

	t.Run("all shows the list", func(t *testing.T) {
		output.Reset()
		if err := run(t, runner, "list", "all"); err != nil {
			t.Fatalf("list all failed: %v", err)
		}
		if !strings.Contains(output.String(), "Groceries") {
			t.Errorf("expected Groceries in output: %s", output.String())
		}
	})

	t.Run("rename by name", func(t *testing.T) {
		if err := run(t, runner, "list", "rename", "Groceries", "Weekly shop"); err != nil {
			t.Fatalf("rename failed: %v", err)
		}

		output.Reset()
		if err := run(t, runner, "list", "all"); err != nil {
			t.Fatalf("list all failed: %v", err)
		}
		if !strings.Contains(output.String(), "Weekly shop") {
			t.Errorf("expected renamed list in output: %s", output.String())
		}
	})

	t.Run("rm removes it", func(t *testing.T) {
		if err := run(t, runner, "list", "rm", "Weekly shop"); err != nil {
			t.Fatalf("rm failed: %v", err)
		}

		output.Reset()
		if err := run(t, runner, "list", "all"); err != nil {
			t.Fatalf("list all failed: %v", err)
		}
		if strings.Contains(output.String(), "Weekly shop") {
			t.Errorf("deleted list still rendered: %s", output.String())
		}
	})

	t.Run("rm unknown list fails", func(t *testing.T) {
		if err := run(t, runner, "list", "rm", "no-such-list"); err == nil {
			t.Error("expected error for unknown list")
		}
	})
}

func TestItemCommands(t *testing.T) {
	runner, output := newTestRunner(t)

	if err := run(t, runner, "list", "add", "Chores"); err != nil {
		t.Fatalf("seed list: %v", err)
	}

	t.Run("add with category", func(t *testing.T) {
		if err := run(t, runner, "item", "add", "--category", "home", "Chores", "Vacuum"); err != nil {
			t.Fatalf("item add failed: %v", err)
		}

		output.Reset()
		if err := run(t, runner, "list", "show", "Chores"); err != nil {
			t.Fatalf("list show failed: %v", err)
		}
		if !strings.Contains(output.String(), "Vacuum") || !strings.Contains(output.String(), "#home") {
			t.Errorf("expected item with category: %s", output.String())
		}
	})

	t.Run("edit changes the title", func(t *testing.T) {
		if err := run(t, runner, "item", "edit", "--title", "Vacuum stairs", "Vacuum"); err != nil {
			t.Fatalf("item edit failed: %v", err)
		}

		output.Reset()
		if err := run(t, runner, "list", "show", "Chores"); err != nil {
			t.Fatalf("list show failed: %v", err)
		}
		if !strings.Contains(output.String(), "Vacuum stairs") {
			t.Errorf("expected edited title: %s", output.String())
		}

		if err := run(t, runner, "item", "edit", "--title", "Vacuum", "Vacuum stairs"); err != nil {
			t.Fatalf("item edit back failed: %v", err)
		}
	})

	t.Run("edit without flags changes nothing", func(t *testing.T) {
		output.Reset()
		if err := run(t, runner, "item", "edit", "Vacuum"); err != nil {
			t.Fatalf("item edit failed: %v", err)
		}
		if !strings.Contains(output.String(), "Nothing to change") {
			t.Errorf("expected no-op notice: %s", output.String())
		}
	})

	t.Run("done marks the item", func(t *testing.T) {
		if err := run(t, runner, "item", "done", "Vacuum"); err != nil {
			t.Fatalf("item done failed: %v", err)
		}

		output.Reset()
		if err := run(t, runner, "list", "show", "--json", "--pretty", "Chores"); err != nil {
			t.Fatalf("list show failed: %v", err)
		}
		if !strings.Contains(output.String(), `"done": true`) {
			t.Errorf("expected done item in JSON: %s", output.String())
		}
	})

	t.Run("rm removes the item", func(t *testing.T) {
		if err := run(t, runner, "item", "rm", "Vacuum"); err != nil {
			t.Fatalf("item rm failed: %v", err)
		}
		if err := run(t, runner, "item", "rm", "Vacuum"); err == nil {
			t.Error("expected error removing the item twice")
		}
	})

	t.Run("add to unknown list fails", func(t *testing.T) {
		if err := run(t, runner, "item", "add", "no-such-list", "Orphan"); err == nil {
			t.Error("expected error for unknown list")
		}
	})
}

func TestExportImportRoundTrip(t *testing.T) {
	runner, output := newTestRunner(t)

	if err := run(t, runner, "list", "add", "--kind", "project", "Launch"); err != nil {
		t.Fatalf("seed list: %v", err)
	}
	if err := run(t, runner, "item", "add", "Launch", "Write release notes"); err != nil {
		t.Fatalf("seed item: %v", err)
	}

	dumpPath := filepath.Join(t.TempDir(), "dump.json")
	if err := run(t, runner, "export", "--format", "json", "--output", dumpPath); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if !strings.Contains(output.String(), "Exported to") {
		t.Errorf("missing export confirmation: %s", output.String())
	}
	if _, err := os.Stat(dumpPath); err != nil {
		t.Fatalf("export file missing: %v", err)
	}

	// A fresh runner with an empty database imports the dump.
	fresh, freshOut := newTestRunner(t)
	if err := run(t, fresh, "import", dumpPath); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if !strings.Contains(freshOut.String(), "Imported 1 lists and 1 items") {
		t.Errorf("unexpected import summary: %s", freshOut.String())
	}

	freshOut.Reset()
	if err := run(t, fresh, "list", "show", "Launch"); err != nil {
		t.Fatalf("list show failed: %v", err)
	}
	if !strings.Contains(freshOut.String(), "Write release notes") {
		t.Errorf("imported item missing: %s", freshOut.String())
	}
}

func TestSyncRequiresCloudFirst(t *testing.T) {
	runner, output := newTestRunner(t)

	if err := run(t, runner, "sync"); err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if !strings.Contains(output.String(), "nothing to sync") {
		t.Errorf("expected local-first notice: %s", output.String())
	}
}

func TestSyncReport(t *testing.T) {
	runner, output := newTestRunner(t)

	if err := run(t, runner, "sync", "report"); err != nil {
		t.Fatalf("sync report failed: %v", err)
	}
	if !strings.Contains(output.String(), "Nothing pending") {
		t.Errorf("expected empty pending report: %s", output.String())
	}

	if err := run(t, runner, "list", "add", "Errands"); err != nil {
		t.Fatalf("seed list: %v", err)
	}
	if err := runner.local.MarkListPending(context.Background(), runner.engine.Snapshot()[0].List.ID); err != nil {
		t.Fatalf("mark pending: %v", err)
	}

	output.Reset()
	if err := run(t, runner, "sync", "report"); err != nil {
		t.Fatalf("sync report failed: %v", err)
	}
	if !strings.Contains(output.String(), "Pending: 1 lists, 0 items") {
		t.Errorf("expected pending list in report: %s", output.String())
	}
}

func TestServeTokenRequiresSecret(t *testing.T) {
	runner, _ := newTestRunner(t)
	runner.config.Auth.JWTSecret = ""

	if err := run(t, runner, "serve", "token", "--user", "user-1"); err == nil {
		t.Error("expected error without jwt secret")
	}
}
