package pqgo

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"pqgo/data"
	"pqgo/fio"
	"pqgo/index"
	"pqgo/utils"
)

const fileLockSuffix = ".flock"

// Queue 持久化队列实例
// 所有写入在返回前都已落盘, 读取和删除只移动逻辑游标, 不重写历史数据
// 一个数据文件同一时刻只能被一个 Queue 实例打开, 进程内多协程共享同一实例
type Queue struct {
	options  Options
	mu       *sync.RWMutex
	store    *data.LogStore // 持久化日志文件
	arena    *index.Arena   // 内存索引
	fileLock *flock.Flock   // 文件锁, 保证同一队列文件不被多进程打开
	closed   bool

	pushed chan struct{} // 每次成功写入后关闭并更换, 唤醒等待数据的消费者
	popped chan struct{} // 每次释放空间后关闭并更换, 唤醒等待空位的生产者

	tasksMu    sync.Mutex
	tasksDone  *sync.Cond
	unfinished int // 已写入但还没有 TaskDone 的条数
}

// Stat 队列统计信息
type Stat struct {
	ItemCount    uint  // 存活的数据条数
	IndexEntries uint  // 索引中物理存在的记录条数, 包含已删除未压缩的
	DeadSize     int64 // 可以通过压缩回收的字节数
	DiskSize     int64 // 数据目录占用的磁盘空间大小
}

// Open 打开持久化队列实例
// 文件不存在时创建, 存在时重建内存索引, 并修复崩溃留下的不完整记录
func Open(options Options) (*Queue, error) {
	if err := checkOptions(&options); err != nil {
		return nil, err
	}

	// 数据目录不存在则创建
	if _, err := os.Stat(options.DirPath); os.IsNotExist(err) {
		if err := os.MkdirAll(options.DirPath, os.ModePerm); err != nil {
			return nil, err
		}
	}

	// 判断队列文件是否正在被其他进程使用
	fileLock := flock.New(filepath.Join(options.DirPath, options.Name+fileLockSuffix))
	hold, err := fileLock.TryLock()
	if err != nil {
		return nil, err
	}
	if !hold {
		return nil, ErrQueueIsUsing
	}

	fileName := data.FileName(options.DirPath, options.Name)

	// MMap 只对已有数据的文件有意义, 空文件需要写入头部, 仍走标准 IO
	ioType := fio.StandardFIO
	if options.MMapAtStartup {
		if info, err := os.Stat(fileName); err == nil && info.Size() > data.HeaderSize {
			ioType = fio.MemoryMap
		}
	}

	store, err := data.OpenLogStore(fileName, ioType, options.SyncWrites)
	if err != nil {
		_ = fileLock.Unlock()
		return nil, err
	}

	q := &Queue{
		options:  options,
		mu:       new(sync.RWMutex),
		store:    store,
		arena:    index.NewArena(),
		fileLock: fileLock,
		pushed:   make(chan struct{}),
		popped:   make(chan struct{}),
	}
	q.tasksDone = sync.NewCond(&q.tasksMu)

	if err := q.loadIndex(); err != nil {
		_ = store.Close()
		_ = fileLock.Unlock()
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"file":  fileName,
		"items": q.arena.Live(),
	}).Debug("queue opened")
	return q, nil
}

// loadIndex 扫描数据文件重建内存索引, 同时修复崩溃留下的不完整记录和过期的头部
func (q *Queue) loadIndex() error {
	var scanned uint64
	validEnd, torn, err := q.store.Scan(func(offset int64, frameSize int64) {
		q.arena.Append(index.Entry{Offset: offset, Length: frameSize})
		scanned++
	})
	if err != nil {
		return err
	}

	// MMap 只在启动扫描时使用, 之后恢复为标准文件 IO
	if q.options.MMapAtStartup {
		if err := q.store.SetIOManager(fio.StandardFIO); err != nil {
			return err
		}
	}

	// 崩溃时写到一半的追加只会出现在文件末尾, 直接丢弃
	if torn {
		logrus.WithField("discarded", q.store.Size()-validEnd).
			Warn("discarding incomplete record at end of queue file")
		if err := q.store.Truncate(validEnd); err != nil {
			return err
		}
	}

	// 扫描结果是存活条数的权威来源, 头部计数过期时以扫描为准修复
	if scanned != q.store.Count() {
		if err := q.store.WriteHeader(q.store.Head(), scanned); err != nil {
			return err
		}
	}
	return nil
}

// Push 向队列中写入一条数据, 返回时数据已经持久化
// 队列已满时立即返回 ErrQueueFull
func (q *Queue) Push(value any) error {
	return q.push(value, false, 0)
}

// PushWait 向队列中写入一条数据, 队列已满时阻塞等待空位
// timeout <= 0 表示一直等待, 超时返回 ErrQueueFull
func (q *Queue) PushWait(value any, timeout time.Duration) error {
	return q.push(value, true, timeout)
}

func (q *Queue) push(value any, block bool, timeout time.Duration) error {
	// 编码在持有锁之前完成
	payload, err := q.options.Codec.Serialize(value)
	if err != nil {
		return err
	}
	frame := data.EncodeRecord(payload)

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}

	if q.options.MaxSize > 0 && q.arena.Live() >= q.options.MaxSize {
		if !block {
			return ErrQueueFull
		}
		cond := func() bool { return q.arena.Live() < q.options.MaxSize }
		if err := q.waitFor(cond, &q.popped, timeout, ErrQueueFull); err != nil {
			return err
		}
	}

	offset, err := q.store.Append(frame)
	if err != nil {
		return err
	}
	q.arena.Append(index.Entry{Offset: offset, Length: int64(len(frame))})

	// 头部的队首偏移不变, 只同步存活条数
	if err := q.store.WriteHeader(q.store.Head(), uint64(q.arena.Live())); err != nil {
		return err
	}

	q.tasksMu.Lock()
	q.unfinished++
	q.tasksMu.Unlock()

	// 唤醒等待数据的消费者
	close(q.pushed)
	q.pushed = make(chan struct{})
	return nil
}

// Peek 以先进先出的顺序读取队首的前 n 条数据, 不消费
// 队列非空但不足 n 条时返回现有的数据, 完全为空时返回 ErrQueueEmpty
func (q *Queue) Peek(n int) ([]any, error) {
	if n <= 0 {
		return nil, ErrInvalidArgument
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return nil, ErrQueueClosed
	}
	live := q.arena.Live()
	if live == 0 {
		return nil, ErrQueueEmpty
	}
	if n > live {
		n = live
	}
	return q.readItems(n)
}

// PeekWait 阻塞等待直到队列中至少有 n 条数据后再读取, 不消费
// timeout <= 0 表示一直等待, 超时返回 ErrQueueEmpty
func (q *Queue) PeekWait(n int, timeout time.Duration) ([]any, error) {
	if n <= 0 {
		return nil, ErrInvalidArgument
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil, ErrQueueClosed
	}
	cond := func() bool { return q.arena.Live() >= n }
	if err := q.waitFor(cond, &q.pushed, timeout, ErrQueueEmpty); err != nil {
		return nil, err
	}
	return q.readItems(n)
}

// Pop 读取并消费队首的一条数据, 等价于 Peek 一条之后再 Delete 一条
// 队列为空时立即返回 ErrQueueEmpty
func (q *Queue) Pop() (any, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil, ErrQueueClosed
	}
	if q.arena.Live() == 0 {
		return nil, ErrQueueEmpty
	}
	return q.popLocked()
}

// PopWait 读取并消费队首的一条数据, 队列为空时阻塞等待
// timeout <= 0 表示一直等待, 超时返回 ErrQueueEmpty
func (q *Queue) PopWait(timeout time.Duration) (any, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil, ErrQueueClosed
	}
	cond := func() bool { return q.arena.Live() >= 1 }
	if err := q.waitFor(cond, &q.pushed, timeout, ErrQueueEmpty); err != nil {
		return nil, err
	}
	return q.popLocked()
}

func (q *Queue) popLocked() (any, error) {
	items, err := q.readItems(1)
	if err != nil {
		return nil, err
	}
	// 解码失败不会消费数据, 保证至少一次交付
	if err := q.deleteLocked(1); err != nil {
		return nil, err
	}
	return items[0], nil
}

// Delete 将队首的 n 条数据标记为已消费, 只重写头部, 不擦除文件内容
// n 超过当前存活条数时返回 ErrInvalidArgument
func (q *Queue) Delete(n int) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	return q.deleteLocked(n)
}

func (q *Queue) deleteLocked(n int) error {
	if n <= 0 || n > q.arena.Live() {
		return ErrInvalidArgument
	}
	q.arena.MarkDeleted(n)

	dataSize := q.store.DataSize()
	head := uint64(q.arena.Head(dataSize))
	if err := q.store.WriteHeader(head, uint64(q.arena.Live())); err != nil {
		return err
	}

	// 唤醒等待空位的生产者
	close(q.popped)
	q.popped = make(chan struct{})

	// 队首之前累计的无效字节达到阈值后自动压缩
	if dead := q.arena.DeadBytes(dataSize); dead >= q.options.FlushLimit {
		logrus.WithField("dead_bytes", dead).Debug("auto flush triggered")
		return q.flushLocked()
	}
	return nil
}

// Flush 压缩数据文件, 回收逻辑队首之前的无效空间
// 没有可回收空间时不做任何事, 任何时刻调用都是安全的
func (q *Queue) Flush() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	return q.flushLocked()
}

func (q *Queue) flushLocked() error {
	dataSize := q.store.DataSize()
	head := q.arena.Head(dataSize)
	if head == 0 {
		return nil
	}
	if err := q.store.Compact(head, uint64(q.arena.Live())); err != nil {
		return err
	}
	q.arena.Rebase()
	return nil
}

// Clear 清空队列并立即回收全部空间
func (q *Queue) Clear() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	if err := q.store.Truncate(data.HeaderSize); err != nil {
		return err
	}
	if err := q.store.WriteHeader(0, 0); err != nil {
		return err
	}
	q.arena.Reset()
	close(q.popped)
	q.popped = make(chan struct{})
	logrus.Debug("queue cleared")
	return nil
}

// Len 返回当前存活的数据条数
func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.arena.Live()
}

// Stat 返回队列的统计信息
func (q *Queue) Stat() *Stat {
	q.mu.RLock()
	defer q.mu.RUnlock()

	dirSize, err := utils.DirSize(q.options.DirPath)
	if err != nil {
		panic(fmt.Sprintf("failed to get dir size: %v", err))
	}
	return &Stat{
		ItemCount:    uint(q.arena.Live()),
		IndexEntries: uint(q.arena.Len()),
		DeadSize:     q.arena.DeadBytes(q.store.DataSize()),
		DiskSize:     dirSize,
	}
}

// Sync 将数据文件持久化到磁盘
func (q *Queue) Sync() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	return q.store.Sync()
}

// TaskDone 表明此前取出的一条数据已经处理完成, 与 Join 配合使用
func (q *Queue) TaskDone() error {
	q.tasksMu.Lock()
	defer q.tasksMu.Unlock()
	if q.unfinished <= 0 {
		return ErrTaskDoneTooMany
	}
	q.unfinished--
	if q.unfinished == 0 {
		q.tasksDone.Broadcast()
	}
	return nil
}

// Join 阻塞直到写入过的数据都已通过 TaskDone 确认处理完成
func (q *Queue) Join() {
	q.tasksMu.Lock()
	defer q.tasksMu.Unlock()
	for q.unfinished > 0 {
		q.tasksDone.Wait()
	}
}

// Copy 将底层数据文件复制一份, 并在副本上打开一个独立的队列实例
func (q *Queue) Copy(dirPath string, name string) (*Queue, error) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil, ErrQueueClosed
	}
	if err := q.store.Sync(); err != nil {
		q.mu.Unlock()
		return nil, err
	}
	if err := os.MkdirAll(dirPath, os.ModePerm); err != nil {
		q.mu.Unlock()
		return nil, err
	}

	// 校验目标磁盘空间是否足够
	size := q.store.Size()
	available, err := utils.AvailableDiskSize()
	if err != nil {
		q.mu.Unlock()
		return nil, err
	}
	if uint64(size) >= available {
		q.mu.Unlock()
		return nil, errors.New("no enough space to copy the queue")
	}

	src := data.FileName(q.options.DirPath, q.options.Name)
	dst := data.FileName(dirPath, name)
	err = utils.CopyFile(src, dst)
	q.mu.Unlock()
	if err != nil {
		return nil, err
	}

	options := q.options
	options.DirPath = dirPath
	options.Name = name
	return Open(options)
}

// Close 关闭队列, 释放文件句柄和文件锁, 不删除数据文件
// 关闭后的任何操作都返回 ErrQueueClosed, 阻塞中的读写者会被全部唤醒
func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	defer func() {
		if err := q.fileLock.Unlock(); err != nil {
			panic(fmt.Sprintf("failed to unlock the directory, %v", err))
		}
	}()
	q.closed = true

	// 唤醒所有阻塞中的读写者
	close(q.pushed)
	close(q.popped)

	return q.store.Close()
}

// readItems 读取前 n 条存活数据, 调用时必须持有锁
func (q *Queue) readItems(n int) ([]any, error) {
	items := make([]any, 0, n)
	for k := 0; k < n; k++ {
		e := q.arena.Nth(k)
		payload, err := q.store.ReadAt(e.Offset+data.RecordPrefixSize, e.Length-data.RecordPrefixSize)
		if err != nil {
			return nil, err
		}
		value, err := q.options.Codec.Deserialize(payload)
		if err != nil {
			return nil, err
		}
		items = append(items, value)
	}
	return items, nil
}

// waitFor 在持有写锁的情况下等待 cond 满足
// 等待时释放锁让出队列, 被唤醒后重新加锁再次检查, 超时返回 timeoutErr
func (q *Queue) waitFor(cond func() bool, ch *chan struct{}, timeout time.Duration, timeoutErr error) error {
	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}
	for !cond() {
		if q.closed {
			return ErrQueueClosed
		}
		wake := *ch
		q.mu.Unlock()
		select {
		case <-wake:
		case <-deadline:
			q.mu.Lock()
			return timeoutErr
		}
		q.mu.Lock()
		if q.closed {
			return ErrQueueClosed
		}
	}
	return nil
}

func checkOptions(options *Options) error {
	if options.DirPath == "" {
		return errors.New("queue dir path is empty")
	}
	if options.Name == "" {
		return errors.New("queue name is empty")
	}
	if options.FlushLimit <= 0 {
		return errors.New("queue flush limit must be greater than 0")
	}
	if options.MaxSize < 0 {
		options.MaxSize = 0
	}
	if options.Codec == nil {
		options.Codec = NewGobCodec()
	}
	return nil
}
