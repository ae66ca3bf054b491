package pqgo

import "os"

type Options struct {
	// 队列数据目录
	DirPath string

	// 队列名称, 同时作为数据文件的文件名
	Name string

	// 数据项的编解码器, 为空时使用 GobCodec
	Codec Codec

	// 自动压缩阈值, 逻辑队首之前的无效字节数达到该值后在删除操作中触发压缩
	FlushLimit int64

	// 队列容量上限, 0 表示不限制
	MaxSize int

	// 是否每次写入持久化
	SyncWrites bool

	// 启动时是否使用 MMap 加载数据
	MMapAtStartup bool
}

// DefaultOptions 默认配置
var DefaultOptions = Options{
	DirPath:       os.TempDir(),
	Name:          "pqgo",
	Codec:         NewGobCodec(),
	FlushLimit:    1024 * 1024,
	MaxSize:       0,
	SyncWrites:    true,
	MMapAtStartup: false,
}
