package data

import (
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"pqgo/fio"
)

const (
	// HeaderSize 文件头部大小, headOffset 和 itemCount 各占 8 字节
	HeaderSize = 16

	// DataFileNameSuffix 数据文件后缀
	DataFileNameSuffix = ".data"

	// 压缩时分块拷贝的块大小
	compactChunkSize = 32 * 1024
)

// ErrHeaderCorrupted 文件头部损坏, 无法自动修复, 直接向调用方返回
var ErrHeaderCorrupted = errors.New("the queue file header is corrupted")

// LogStore 单文件追加日志, 持有队列的全部持久化状态
// 头部记录第一条未删除记录的偏移和未删除的条数, 数据区是记录帧的紧密拼接
type LogStore struct {
	path       string
	ioManager  fio.IOManager // 数据读写接口
	syncWrites bool          // 每次写入是否持久化
	size       int64         // 当前文件总大小, 包含头部
	head       uint64        // 第一条未删除记录相对数据区起始的偏移
	count      uint64        // 未删除的记录条数
}

// FileName 返回队列数据文件的完整路径
func FileName(dirPath string, name string) string {
	return filepath.Join(dirPath, name+DataFileNameSuffix)
}

// OpenLogStore 打开日志文件, 文件不存在时创建并写入空的头部
func OpenLogStore(path string, ioType fio.FileIOType, syncWrites bool) (*LogStore, error) {
	ioManager, err := fio.NewIOManager(path, ioType)
	if err != nil {
		return nil, errors.Wrap(err, "open queue file")
	}
	ls := &LogStore{
		path:       path,
		ioManager:  ioManager,
		syncWrites: syncWrites,
	}
	if err := ls.loadHeader(); err != nil {
		_ = ioManager.Close()
		return nil, err
	}
	return ls, nil
}

// loadHeader 读取并校验文件头部, 新文件写入空头部
func (ls *LogStore) loadHeader() error {
	size, err := ls.ioManager.Size()
	if err != nil {
		return errors.Wrap(err, "stat queue file")
	}
	if size == 0 {
		return ls.WriteHeader(0, 0)
	}
	if size < HeaderSize {
		return ErrHeaderCorrupted
	}

	buf := make([]byte, HeaderSize)
	if _, err := ls.ioManager.Read(buf, 0); err != nil {
		return errors.Wrap(err, "read queue header")
	}
	head := binary.LittleEndian.Uint64(buf[:8])
	count := binary.LittleEndian.Uint64(buf[8:])
	if head > uint64(size-HeaderSize) {
		return ErrHeaderCorrupted
	}

	ls.size = size
	ls.head = head
	ls.count = count
	return nil
}

// Head 返回头部记录的逻辑队首偏移
func (ls *LogStore) Head() uint64 {
	return ls.head
}

// Count 返回头部记录的存活条数
func (ls *LogStore) Count() uint64 {
	return ls.count
}

// Size 返回文件总大小, 包含头部
func (ls *LogStore) Size() int64 {
	return ls.size
}

// DataSize 返回数据区大小
func (ls *LogStore) DataSize() int64 {
	return ls.size - HeaderSize
}

// Append 将一条编码好的记录帧追加到文件末尾, 返回其相对数据区的偏移
// syncWrites 打开时, 返回即表示数据已经落盘
func (ls *LogStore) Append(frame []byte) (int64, error) {
	offset := ls.size
	if _, err := ls.ioManager.WriteAt(frame, offset); err != nil {
		return 0, errors.Wrap(err, "append record")
	}
	ls.size += int64(len(frame))
	if ls.syncWrites {
		if err := ls.ioManager.Sync(); err != nil {
			return 0, errors.Wrap(err, "sync record")
		}
	}
	return offset - HeaderSize, nil
}

// ReadAt 从数据区给定偏移读取 length 个字节, 不改变任何状态
func (ls *LogStore) ReadAt(offset int64, length int64) ([]byte, error) {
	buf := make([]byte, length)
	if _, err := ls.ioManager.Read(buf, HeaderSize+offset); err != nil {
		return nil, errors.Wrap(err, "read record")
	}
	return buf, nil
}

// ReadRecord 解码数据区给定偏移处的一条记录, 返回 payload 和整个帧的长度
// 数据区干净结束时返回 io.EOF, 帧被截断时返回 ErrPartialRecord
func (ls *LogStore) ReadRecord(offset int64) ([]byte, int64, error) {
	dataSize := ls.DataSize()
	if offset >= dataSize {
		return nil, 0, io.EOF
	}
	if offset+RecordPrefixSize > dataSize {
		return nil, 0, ErrPartialRecord
	}
	prefix, err := ls.ReadAt(offset, RecordPrefixSize)
	if err != nil {
		return nil, 0, err
	}
	length := decodeRecordPrefix(prefix)
	if length > uint64(dataSize-offset-RecordPrefixSize) {
		return nil, 0, ErrPartialRecord
	}
	payload, err := ls.ReadAt(offset+RecordPrefixSize, int64(length))
	if err != nil {
		return nil, 0, err
	}
	return payload, RecordPrefixSize + int64(length), nil
}

// Scan 从头部偏移开始向前扫描数据区, 对每条完整的记录回调 fn
// 返回有效数据结束的文件内绝对偏移, torn 表示末尾存在被截断的记录
func (ls *LogStore) Scan(fn func(offset int64, frameSize int64)) (int64, bool, error) {
	offset := int64(ls.head)
	for {
		_, frameSize, err := ls.ReadRecord(offset)
		if err == io.EOF {
			return HeaderSize + offset, false, nil
		}
		if err == ErrPartialRecord {
			return HeaderSize + offset, true, nil
		}
		if err != nil {
			return 0, false, err
		}
		fn(offset, frameSize)
		offset += frameSize
	}
}

// WriteHeader 原地重写文件头部, 头部宽度固定, 不会改变文件中任何记录的位置
func (ls *LogStore) WriteHeader(head uint64, count uint64) error {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint64(buf[:8], head)
	binary.LittleEndian.PutUint64(buf[8:], count)
	if _, err := ls.ioManager.WriteAt(buf, 0); err != nil {
		return errors.Wrap(err, "write queue header")
	}
	if ls.syncWrites {
		if err := ls.ioManager.Sync(); err != nil {
			return errors.Wrap(err, "sync queue header")
		}
	}
	if ls.size < HeaderSize {
		ls.size = HeaderSize
	}
	ls.head = head
	ls.count = count
	return nil
}

// Truncate 将文件截断到给定的绝对偏移, 用于丢弃崩溃留下的不完整记录
func (ls *LogStore) Truncate(size int64) error {
	if size < HeaderSize {
		size = HeaderSize
	}
	if err := ls.ioManager.Truncate(size); err != nil {
		return errors.Wrap(err, "truncate queue file")
	}
	if err := ls.ioManager.Sync(); err != nil {
		return errors.Wrap(err, "sync queue file")
	}
	ls.size = size
	return nil
}

// Compact 将 liveOffset 之后的存活数据拷贝到新文件并原子替换旧文件,
// 头部偏移归零, 这是唯一一个代价与文件大小成正比的操作
func (ls *LogStore) Compact(liveOffset int64, count uint64) error {
	// 先保证旧文件的数据全部落盘
	if err := ls.ioManager.Sync(); err != nil {
		return errors.Wrap(err, "sync queue file")
	}

	tmpPath := ls.path + "-" + strings.ReplaceAll(uuid.New().String(), "-", "")
	tmpFile, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_RDWR|os.O_TRUNC, fio.DataFilePerm)
	if err != nil {
		return errors.Wrap(err, "create compaction file")
	}

	removeTmp := func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}

	// 新文件的头部: 偏移归零, 条数不变
	header := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint64(header[8:], count)
	if _, err := tmpFile.Write(header); err != nil {
		removeTmp()
		return errors.Wrap(err, "write compaction header")
	}

	// 分块拷贝存活数据, 避免一次性读入内存
	buf := make([]byte, compactChunkSize)
	offset := HeaderSize + liveOffset
	for offset < ls.size {
		chunk := ls.size - offset
		if chunk > compactChunkSize {
			chunk = compactChunkSize
		}
		if _, err := ls.ioManager.Read(buf[:chunk], offset); err != nil {
			removeTmp()
			return errors.Wrap(err, "read live records")
		}
		if _, err := tmpFile.Write(buf[:chunk]); err != nil {
			removeTmp()
			return errors.Wrap(err, "write live records")
		}
		offset += chunk
	}

	if err := tmpFile.Sync(); err != nil {
		removeTmp()
		return errors.Wrap(err, "sync compaction file")
	}
	if err := tmpFile.Close(); err != nil {
		return errors.Wrap(err, "close compaction file")
	}

	// 原子替换旧文件, 在替换完成之前崩溃不会丢失任何数据
	if err := ls.ioManager.Close(); err != nil {
		return errors.Wrap(err, "close queue file")
	}
	if err := os.Rename(tmpPath, ls.path); err != nil {
		return errors.Wrap(err, "replace queue file")
	}

	ioManager, err := fio.NewIOManager(ls.path, fio.StandardFIO)
	if err != nil {
		return errors.Wrap(err, "reopen queue file")
	}
	ls.ioManager = ioManager
	ls.size = ls.size - liveOffset
	ls.head = 0
	ls.count = count
	return nil
}

// SetIOManager 重置 IO 类型, 启动扫描结束后从 MMap 切换回标准文件 IO
func (ls *LogStore) SetIOManager(ioType fio.FileIOType) error {
	if err := ls.ioManager.Close(); err != nil {
		return errors.Wrap(err, "close queue file")
	}
	ioManager, err := fio.NewIOManager(ls.path, ioType)
	if err != nil {
		return errors.Wrap(err, "reopen queue file")
	}
	ls.ioManager = ioManager
	return nil
}

// Sync 将文件数据持久化到磁盘
func (ls *LogStore) Sync() error {
	return ls.ioManager.Sync()
}

// Close 关闭文件句柄, 不删除数据文件
func (ls *LogStore) Close() error {
	return ls.ioManager.Close()
}
