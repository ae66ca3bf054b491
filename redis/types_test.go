package redis

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"pqgo"
)

func openTestService(t *testing.T) (*Service, string) {
	opts := pqgo.DefaultOptions
	dir, err := os.MkdirTemp("", "pqgo-redis")
	assert.Nil(t, err)
	opts.DirPath = dir

	svc, err := NewService(opts)
	assert.Nil(t, err)
	assert.NotNil(t, svc)
	return svc, dir
}

func destroyService(svc *Service, dir string) {
	if svc != nil {
		_ = svc.Close()
	}
	_ = os.RemoveAll(dir)
}

func TestService_PushPop(t *testing.T) {
	svc, dir := openTestService(t)
	defer destroyService(svc, dir)

	assert.Nil(t, svc.Push([]byte("one")))
	assert.Nil(t, svc.Push([]byte("two")))
	assert.Equal(t, 2, svc.Len())

	value, err := svc.Pop()
	assert.Nil(t, err)
	assert.Equal(t, []byte("one"), value)

	value, err = svc.Pop()
	assert.Nil(t, err)
	assert.Equal(t, []byte("two"), value)

	_, err = svc.Pop()
	assert.Equal(t, pqgo.ErrQueueEmpty, err)
}

func TestService_PeekDelete(t *testing.T) {
	svc, dir := openTestService(t)
	defer destroyService(svc, dir)

	assert.Nil(t, svc.Push([]byte("a")))
	assert.Nil(t, svc.Push([]byte("b")))
	assert.Nil(t, svc.Push([]byte("c")))

	values, err := svc.Peek(2)
	assert.Nil(t, err)
	assert.Equal(t, [][]byte{[]byte("a"), []byte("b")}, values)

	assert.Nil(t, svc.Delete(2))
	assert.Equal(t, 1, svc.Len())

	values, err = svc.Peek(5)
	assert.Nil(t, err)
	assert.Equal(t, [][]byte{[]byte("c")}, values)
}

func TestService_FlushClear(t *testing.T) {
	svc, dir := openTestService(t)
	defer destroyService(svc, dir)

	for i := 0; i < 10; i++ {
		assert.Nil(t, svc.Push([]byte("value")))
	}
	assert.Nil(t, svc.Delete(5))
	assert.Nil(t, svc.Flush())
	assert.Equal(t, 5, svc.Len())

	assert.Nil(t, svc.Clear())
	assert.Equal(t, 0, svc.Len())
}
