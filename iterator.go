package pqgo

import (
	"pqgo/data"
	"pqgo/index"
)

// Iterator 队列数据迭代器, 按先进先出的顺序遍历存活数据, 不消费
// 迭代期间不能对队列执行 Delete/Flush/Clear 等会移动数据的操作
type Iterator struct {
	q       *Queue
	entries []index.Entry // 创建迭代器时存活记录的快照
	pos     int
}

// Iterator 创建一个新的迭代器
func (q *Queue) Iterator() *Iterator {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return &Iterator{
		q:       q,
		entries: q.arena.LiveEntries(),
	}
}

// Rewind 回到迭代器起点
func (it *Iterator) Rewind() {
	it.pos = 0
}

// Valid 当前位置是否有效, 用于判断遍历是否结束
func (it *Iterator) Valid() bool {
	return it.pos < len(it.entries)
}

// Next 移动到下一条数据
func (it *Iterator) Next() {
	it.pos++
}

// Value 读取当前位置的数据
func (it *Iterator) Value() (any, error) {
	e := it.entries[it.pos]
	it.q.mu.RLock()
	defer it.q.mu.RUnlock()
	if it.q.closed {
		return nil, ErrQueueClosed
	}
	payload, err := it.q.store.ReadAt(e.Offset+data.RecordPrefixSize, e.Length-data.RecordPrefixSize)
	if err != nil {
		return nil, err
	}
	return it.q.options.Codec.Deserialize(payload)
}

// Close 关闭迭代器, 释放快照
func (it *Iterator) Close() {
	it.entries = nil
}
