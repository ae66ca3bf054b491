package fio

import (
	"errors"
	"os"

	"golang.org/x/exp/mmap"
)

// ErrMMapReadOnly mmap IO 只在启动加载数据时使用, 不支持写入
var ErrMMapReadOnly = errors.New("mmap io manager is read-only")

// MMap 内存文件映射 IO, 只读, 用于加速启动时构建索引
type MMap struct {
	readerAt *mmap.ReaderAt
}

// NewMMapIOManager 初始化 MMap IO
func NewMMapIOManager(fileName string) (*MMap, error) {
	// 保证文件存在, 和标准文件 IO 的行为保持一致
	fd, err := os.OpenFile(fileName, os.O_CREATE, DataFilePerm)
	if err != nil {
		return nil, err
	}
	if err := fd.Close(); err != nil {
		return nil, err
	}

	readerAt, err := mmap.Open(fileName)
	if err != nil {
		return nil, err
	}
	return &MMap{readerAt: readerAt}, nil
}

func (m *MMap) Read(b []byte, offset int64) (int, error) {
	return m.readerAt.ReadAt(b, offset)
}

func (m *MMap) WriteAt(b []byte, offset int64) (int, error) {
	return 0, ErrMMapReadOnly
}

func (m *MMap) Sync() error {
	return nil
}

func (m *MMap) Close() error {
	return m.readerAt.Close()
}

func (m *MMap) Size() (int64, error) {
	return int64(m.readerAt.Len()), nil
}

func (m *MMap) Truncate(size int64) error {
	return ErrMMapReadOnly
}
