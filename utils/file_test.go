package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirSize(t *testing.T) {
	dir, err := os.MkdirTemp("", "pqgo-dirsize")
	assert.Nil(t, err)
	defer func() {
		_ = os.RemoveAll(dir)
	}()

	assert.Nil(t, os.WriteFile(filepath.Join(dir, "a"), []byte("12345"), 0644))
	assert.Nil(t, os.WriteFile(filepath.Join(dir, "b"), []byte("123"), 0644))

	size, err := DirSize(dir)
	assert.Nil(t, err)
	assert.Equal(t, int64(8), size)
}

func TestAvailableDiskSize(t *testing.T) {
	size, err := AvailableDiskSize()
	assert.Nil(t, err)
	assert.True(t, size > 0)
}

func TestCopyFile(t *testing.T) {
	dir, err := os.MkdirTemp("", "pqgo-copyfile")
	assert.Nil(t, err)
	defer func() {
		_ = os.RemoveAll(dir)
	}()

	src := filepath.Join(dir, "src.data")
	dst := filepath.Join(dir, "dst.data")
	assert.Nil(t, os.WriteFile(src, []byte("pqgo-data"), 0644))

	assert.Nil(t, CopyFile(src, dst))
	data, err := os.ReadFile(dst)
	assert.Nil(t, err)
	assert.Equal(t, []byte("pqgo-data"), data)
}
