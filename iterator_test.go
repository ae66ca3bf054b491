package pqgo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pqgo/utils"
)

func TestQueue_Iterator(t *testing.T) {
	q := openTestQueue(t, "pqgo-iterator")
	defer destroyQueue(q)

	it := q.Iterator()
	assert.False(t, it.Valid())
	it.Close()

	for i := 0; i < 10; i++ {
		assert.Nil(t, q.Push(utils.GetTestItem(i)))
	}
	assert.Nil(t, q.Delete(2))

	it = q.Iterator()
	defer it.Close()

	var i = 2
	for it.Rewind(); it.Valid(); it.Next() {
		value, err := it.Value()
		assert.Nil(t, err)
		assert.Equal(t, utils.GetTestItem(i), value)
		i++
	}
	assert.Equal(t, 10, i)

	// 迭代不消费数据
	assert.Equal(t, 8, q.Len())

	// Rewind 之后可以重新遍历
	it.Rewind()
	assert.True(t, it.Valid())
	value, err := it.Value()
	assert.Nil(t, err)
	assert.Equal(t, utils.GetTestItem(2), value)
}
