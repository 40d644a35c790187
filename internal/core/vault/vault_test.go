package vault

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVault(t *testing.T) *Vault {
	t.Helper()
	v := New(t.TempDir())
	require.NoError(t, v.Ensure())
	return v
}

func writeAt(t *testing.T, v *Vault, stage Stage, name string, mod time.Time) {
	t.Helper()
	require.NoError(t, v.Write(stage, name, "---\ntype: email\n---\n"))
	require.NoError(t, os.Chtimes(v.Path(stage, name), mod, mod))
}

func TestEnsure_CreatesEveryStage(t *testing.T) {
	v := New(filepath.Join(t.TempDir(), "vault"))
	assert.Len(t, v.Missing(), len(Stages))

	require.NoError(t, v.Ensure())

	assert.Empty(t, v.Missing())
	for _, s := range Stages {
		assert.DirExists(t, filepath.Join(v.Root(), s.Dir()))
	}
	assert.DirExists(t, v.LogsPath())
}

func TestList_OldestFirst(t *testing.T) {
	v := newTestVault(t)
	base := time.Now().Add(-time.Hour)

	writeAt(t, v, StageNeedsAction, "c.md", base.Add(2*time.Minute))
	writeAt(t, v, StageNeedsAction, "a.md", base.Add(3*time.Minute))
	writeAt(t, v, StageNeedsAction, "b.md", base)

	entries, err := v.List(StageNeedsAction)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "b.md", entries[0].Name)
	assert.Equal(t, "c.md", entries[1].Name)
	assert.Equal(t, "a.md", entries[2].Name)
	assert.Equal(t, StageNeedsAction, entries[0].Stage)
}

func TestList_FiltersNonItems(t *testing.T) {
	v := newTestVault(t)
	dir := v.Dir(StageNeedsAction)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "EMAIL_1.md"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.md"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "EMAIL_2.md.tmp"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.md"), 0o755))

	entries, err := v.List(StageNeedsAction)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "EMAIL_1.md", entries[0].Name)
}

func TestList_CustomPattern(t *testing.T) {
	v := New(t.TempDir(), WithPattern("EMAIL_*.md"))
	require.NoError(t, v.Ensure())

	require.NoError(t, v.Write(StageNeedsAction, "EMAIL_1.md", "x"))
	require.NoError(t, v.Write(StageNeedsAction, "LINKEDIN_1.md", "x"))

	entries, err := v.List(StageNeedsAction)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "EMAIL_1.md", entries[0].Name)
}

func TestList_MissingStageIsEmpty(t *testing.T) {
	v := New(t.TempDir())
	entries, err := v.List(StageApproved)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMove(t *testing.T) {
	t.Run("renames without residue", func(t *testing.T) {
		v := newTestVault(t)
		require.NoError(t, v.Write(StageApproved, "APPROVAL_1.md", "content"))

		require.NoError(t, v.Move("APPROVAL_1.md", StageApproved, StageDone))

		assert.False(t, v.Exists(StageApproved, "APPROVAL_1.md"))
		assert.True(t, v.Exists(StageDone, "APPROVAL_1.md"))
		got, err := v.Read(StageDone, "APPROVAL_1.md")
		require.NoError(t, err)
		assert.Equal(t, "content", got)

		counts, err := v.Count()
		require.NoError(t, err)
		total := 0
		for _, n := range counts {
			total += n
		}
		assert.Equal(t, 1, total)
	})

	t.Run("missing source", func(t *testing.T) {
		v := newTestVault(t)
		err := v.Move("nope.md", StageApproved, StageDone)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("refuses to overwrite", func(t *testing.T) {
		v := newTestVault(t)
		require.NoError(t, v.Write(StageApproved, "x.md", "new"))
		require.NoError(t, v.Write(StageDone, "x.md", "old"))

		err := v.Move("x.md", StageApproved, StageDone)
		require.ErrorIs(t, err, ErrConflict)

		got, err := v.Read(StageDone, "x.md")
		require.NoError(t, err)
		assert.Equal(t, "old", got)
		assert.True(t, v.Exists(StageApproved, "x.md"))
	})

	t.Run("rejects path traversal", func(t *testing.T) {
		v := newTestVault(t)
		err := v.Move("../x.md", StageApproved, StageDone)
		require.Error(t, err)
	})
}

func TestWrite_ReplacesExisting(t *testing.T) {
	v := newTestVault(t)
	require.NoError(t, v.Write(StagePlan, "PLAN_email_1.md", "first"))
	require.NoError(t, v.Write(StagePlan, "PLAN_email_1.md", "second"))

	got, err := v.Read(StagePlan, "PLAN_email_1.md")
	require.NoError(t, err)
	assert.Equal(t, "second", got)

	_, err = os.Stat(v.Path(StagePlan, "PLAN_email_1.md") + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestRead_NotFound(t *testing.T) {
	v := newTestVault(t)
	_, err := v.Read(StageDone, "missing.md")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestParseStage(t *testing.T) {
	tests := []struct {
		in      string
		want    Stage
		wantErr bool
	}{
		{in: "needs_action", want: StageNeedsAction},
		{in: "Needs_Action", want: StageNeedsAction},
		{in: "Pending_Approval", want: StagePendingApproval},
		{in: "done", want: StageDone},
		{in: "archive", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStage(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFreeName(t *testing.T) {
	v := newTestVault(t)

	assert.Equal(t, "A.md", v.FreeName("A.md", StagePendingApproval, StageDone))

	require.NoError(t, v.Write(StageDone, "A.md", "x"))
	require.NoError(t, v.Write(StagePendingApproval, "A_2.md", "x"))
	assert.Equal(t, "A_3.md", v.FreeName("A.md", StagePendingApproval, StageDone))
	assert.Equal(t, "A_2.md", v.FreeName("A.md", StageDone), "only the given stages are checked")
}

func TestMoveUnique(t *testing.T) {
	t.Run("keeps the name when free", func(t *testing.T) {
		v := newTestVault(t)
		require.NoError(t, v.Write(StageApproved, "x.md", "new"))

		got, err := v.MoveUnique("x.md", StageApproved, StageDone)
		require.NoError(t, err)
		assert.Equal(t, "x.md", got)
	})

	t.Run("picks a free name on conflict", func(t *testing.T) {
		v := newTestVault(t)
		require.NoError(t, v.Write(StageApproved, "x.md", "new"))
		require.NoError(t, v.Write(StageDone, "x.md", "old"))

		got, err := v.MoveUnique("x.md", StageApproved, StageDone)
		require.NoError(t, err)
		assert.Equal(t, "x_2.md", got)

		assert.False(t, v.Exists(StageApproved, "x.md"))
		old, err := v.Read(StageDone, "x.md")
		require.NoError(t, err)
		assert.Equal(t, "old", old)
		moved, err := v.Read(StageDone, "x_2.md")
		require.NoError(t, err)
		assert.Equal(t, "new", moved)
	})

	t.Run("missing source", func(t *testing.T) {
		v := newTestVault(t)
		_, err := v.MoveUnique("nope.md", StageApproved, StageDone)
		require.ErrorIs(t, err, ErrNotFound)
	})
}
