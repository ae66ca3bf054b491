package fio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func destroyFile(name string) {
	if err := os.RemoveAll(name); err != nil {
		panic(err)
	}
}

func TestNewFileIOManager(t *testing.T) {
	path := filepath.Join(os.TempDir(), "a.data")
	fio, err := NewFileIOManager(path)
	defer destroyFile(path)

	assert.Nil(t, err)
	assert.NotNil(t, fio)
}

func TestFileIO_WriteAt(t *testing.T) {
	path := filepath.Join(os.TempDir(), "a.data")
	fio, err := NewFileIOManager(path)
	defer destroyFile(path)

	assert.Nil(t, err)
	assert.NotNil(t, fio)

	n, err := fio.WriteAt([]byte(""), 0)
	assert.Equal(t, 0, n)
	assert.Nil(t, err)

	n, err = fio.WriteAt([]byte("pqgo"), 0)
	assert.Equal(t, 4, n)
	assert.Nil(t, err)

	n, err = fio.WriteAt([]byte("storage"), 4)
	assert.Equal(t, 7, n)
	assert.Nil(t, err)
}

func TestFileIO_Read(t *testing.T) {
	path := filepath.Join(os.TempDir(), "a.data")
	fio, err := NewFileIOManager(path)
	defer destroyFile(path)

	assert.Nil(t, err)
	assert.NotNil(t, fio)

	_, err = fio.WriteAt([]byte("key-a"), 0)
	assert.Nil(t, err)

	_, err = fio.WriteAt([]byte("key-b"), 5)
	assert.Nil(t, err)

	b1 := make([]byte, 5)
	n, err := fio.Read(b1, 0)
	assert.Equal(t, 5, n)
	assert.Equal(t, []byte("key-a"), b1)

	b2 := make([]byte, 5)
	n, err = fio.Read(b2, 5)
	assert.Equal(t, 5, n)
	assert.Equal(t, []byte("key-b"), b2)
}

func TestFileIO_Size(t *testing.T) {
	path := filepath.Join(os.TempDir(), "a.data")
	fio, err := NewFileIOManager(path)
	defer destroyFile(path)

	assert.Nil(t, err)
	assert.NotNil(t, fio)

	size, err := fio.Size()
	assert.Nil(t, err)
	assert.Equal(t, int64(0), size)

	_, err = fio.WriteAt([]byte("pqgo"), 0)
	assert.Nil(t, err)

	size, err = fio.Size()
	assert.Nil(t, err)
	assert.Equal(t, int64(4), size)
}

func TestFileIO_Truncate(t *testing.T) {
	path := filepath.Join(os.TempDir(), "a.data")
	fio, err := NewFileIOManager(path)
	defer destroyFile(path)

	assert.Nil(t, err)
	assert.NotNil(t, fio)

	_, err = fio.WriteAt([]byte("pqgo-storage"), 0)
	assert.Nil(t, err)

	assert.Nil(t, fio.Truncate(4))
	size, err := fio.Size()
	assert.Nil(t, err)
	assert.Equal(t, int64(4), size)
}

func TestFileIO_Sync(t *testing.T) {
	path := filepath.Join(os.TempDir(), "a.data")
	fio, err := NewFileIOManager(path)
	defer destroyFile(path)

	assert.Nil(t, err)
	assert.NotNil(t, fio)

	err = fio.Sync()
	assert.Nil(t, err)
}

func TestFileIO_Close(t *testing.T) {
	path := filepath.Join(os.TempDir(), "a.data")
	fio, err := NewFileIOManager(path)
	defer destroyFile(path)

	assert.Nil(t, err)
	assert.NotNil(t, fio)

	err = fio.Close()
	assert.Nil(t, err)
}
