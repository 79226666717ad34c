package fsmanager

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigestOf(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(p, []byte("hello world"), 0644))

	digest, err := DigestOf(p)
	require.NoError(t, err)
	assert.Equal(t, "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9", digest)
}

func TestCopyToStaging(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0644))

	digest, size, err := CopyToStaging(src, dst)
	require.NoError(t, err)
	assert.EqualValues(t, 7, size)

	wantDigest, err := DigestOf(src)
	require.NoError(t, err)
	assert.Equal(t, wantDigest, digest)

	contents, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(contents))
}

func TestResolveRegularFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0644))

	resolved, err := ResolveRegularFile(p)
	require.NoError(t, err)
	assert.Equal(t, p, resolved)

	_, err = ResolveRegularFile(dir)
	assert.ErrorIs(t, err, ErrNotRegularFile)
}

func TestWalkSkipsIgnoredFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.txt"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.log"), []byte("b"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "nested.txt"), []byte("c"), 0644))

	ignores, err := NewIgnoreSet(dir, []string{"*.log"})
	require.NoError(t, err)

	var found []string
	for p, err := range Walk(dir, dir, ignores) {
		require.NoError(t, err)
		rel, _ := filepath.Rel(dir, p)
		found = append(found, rel)
	}

	assert.ElementsMatch(t, []string{"keep.txt", filepath.Join("sub", "nested.txt")}, found)
}

func TestWalkMatchesIgnoresRelativeToBaseNotRoot(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(sub, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "keep.txt"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "skip.log"), []byte("b"), 0644))

	// The ignore set is compiled relative to root (the tracked directory),
	// but the walk starts at sub, as happens when staging a single
	// subdirectory of a larger tracked tree.
	ignores, err := NewIgnoreSet(root, []string{"sub/*.log"})
	require.NoError(t, err)

	var found []string
	for p, err := range Walk(sub, root, ignores) {
		require.NoError(t, err)
		rel, _ := filepath.Rel(sub, p)
		found = append(found, rel)
	}

	assert.ElementsMatch(t, []string{"keep.txt"}, found)
}

func TestWalkDoesNotFollowSymlinks(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "real.txt")
	require.NoError(t, os.WriteFile(target, []byte("data"), 0644))

	link := filepath.Join(dir, "link.txt")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unsupported on this platform: %v", err)
	}

	var found []string
	for p, err := range Walk(dir, dir, nil) {
		require.NoError(t, err)
		rel, _ := filepath.Rel(dir, p)
		found = append(found, rel)
	}

	assert.Contains(t, found, "real.txt")
	assert.NotContains(t, found, "link.txt")
}

func TestIgnoreSetBtignorePerDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", ".btignore"), []byte("*.tmp\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "a.tmp"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.tmp"), []byte("x"), 0644))

	ignores, err := NewIgnoreSet(dir, nil)
	require.NoError(t, err)

	assert.True(t, ignores.Match(filepath.Join("sub", "a.tmp"), false))
	assert.False(t, ignores.Match("a.tmp", false))
}

func TestIgnoreSetReinclude(t *testing.T) {
	dir := t.TempDir()
	ignores, err := NewIgnoreSet(dir, []string{"*.log", "!important.log"})
	require.NoError(t, err)

	assert.True(t, ignores.Match("debug.log", false))
	assert.False(t, ignores.Match("important.log", false))
}
