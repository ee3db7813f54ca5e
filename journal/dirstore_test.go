package journal

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/propcheck/config"
)

func TestDirStoreRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "plantillas")
	store := DirStore{Dir: dir}

	names, err := store.ListTemplates(ctx)
	require.NoError(t, err)
	assert.Empty(t, names, "missing dir lists nothing")

	tpl := config.Template{
		Empresa: "Topstep",
		Size:    50000,
		Types:   []string{"Combine"},
		Reglas: map[string]any{
			"ratio_sl_pips": map[string]any{"nombre": "SL", "valor": 12.0},
			"objetivo_usd":  3000.0,
		},
	}
	require.NoError(t, store.SaveTemplate(ctx, "Topstep_50000", tpl))
	require.NoError(t, store.SaveTemplate(ctx, "Apex_25000.json", config.Template{Size: 25000}))

	assert.FileExists(t, filepath.Join(dir, "Topstep_50000.json"))
	assert.FileExists(t, filepath.Join(dir, "Apex_25000.json"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	got, err := store.LoadTemplate(ctx, "Topstep_50000.json")
	require.NoError(t, err)
	assert.Equal(t, tpl, got)

	names, err = store.ListTemplates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Apex_25000", "Topstep_50000"}, names)
}

func TestDirStoreErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	store := DirStore{Dir: dir}

	_, err := store.LoadTemplate(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	for _, name := range []string{"", "  ", "../escape", "a/b", ".hidden"} {
		assert.Error(t, store.SaveTemplate(ctx, name, config.Template{}), name)
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o644))
	_, err = store.LoadTemplate(ctx, "broken")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestStoresSatisfyTemplateStore(t *testing.T) {
	var _ TemplateStore = DirStore{}
	var _ TemplateStore = (*SQLite)(nil)
}
