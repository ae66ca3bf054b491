package index

// Entry 一条记录在数据区中的位置信息
type Entry struct {
	Offset int64 // 帧起始位置相对数据区的偏移
	Length int64 // 整个帧的长度, 包含长度前缀
}

// Arena 按文件顺序排列的内存索引, 文件中每条物理存在的记录对应一个 Entry
// 已删除但尚未压缩的记录通过 deleted 前缀游标标记, 不从切片中移除,
// 因此任意第 k 条存活记录的查找是常数时间的下标运算
type Arena struct {
	entries []Entry
	deleted int // 已删除前缀的条数
}

// NewArena 初始化内存索引
func NewArena() *Arena {
	return &Arena{}
}

// Append 追加一条新记录的位置信息
func (a *Arena) Append(e Entry) {
	a.entries = append(a.entries, e)
}

// Live 返回存活的记录条数
func (a *Arena) Live() int {
	return len(a.entries) - a.deleted
}

// Len 返回物理存在的记录条数, 包含已删除未压缩的
func (a *Arena) Len() int {
	return len(a.entries)
}

// Nth 返回第 k 条存活记录的位置信息, k 从 0 开始
func (a *Arena) Nth(k int) Entry {
	return a.entries[a.deleted+k]
}

// MarkDeleted 将最前面的 n 条存活记录标记为已删除, 不触碰文件内容
func (a *Arena) MarkDeleted(n int) {
	a.deleted += n
}

// Head 返回第一条存活记录的偏移, 队列为空时即数据区末尾
func (a *Arena) Head(dataSize int64) int64 {
	if a.deleted == len(a.entries) {
		return dataSize
	}
	return a.entries[a.deleted].Offset
}

// DeadBytes 返回逻辑队首之前尚未回收的字节数
func (a *Arena) DeadBytes(dataSize int64) int64 {
	return a.Head(dataSize)
}

// Rebase 压缩完成后重建索引, 丢弃已删除前缀, 存活记录的偏移整体前移, 游标归零
func (a *Arena) Rebase() {
	live := a.entries[a.deleted:]
	rebased := make([]Entry, len(live))
	if len(live) > 0 {
		base := live[0].Offset
		for i, e := range live {
			rebased[i] = Entry{Offset: e.Offset - base, Length: e.Length}
		}
	}
	a.entries = rebased
	a.deleted = 0
}

// Reset 清空索引
func (a *Arena) Reset() {
	a.entries = a.entries[:0]
	a.deleted = 0
}

// LiveEntries 返回所有存活记录位置信息的快照
func (a *Arena) LiveEntries() []Entry {
	live := make([]Entry, a.Live())
	copy(live, a.entries[a.deleted:])
	return live
}
