package redis

import (
	"pqgo"
)

// Service 以 Redis 协议对外提供队列服务
// 底层使用 RawCodec 直接存取字节, 客户端发送什么字节就存什么字节
type Service struct {
	queue *pqgo.Queue
}

// NewService 打开底层队列并初始化服务
func NewService(options pqgo.Options) (*Service, error) {
	options.Codec = pqgo.NewRawCodec()
	queue, err := pqgo.Open(options)
	if err != nil {
		return nil, err
	}
	return &Service{queue: queue}, nil
}

// Push 写入一条数据
func (s *Service) Push(value []byte) error {
	return s.queue.Push(value)
}

// Peek 读取队首的前 n 条数据, 不消费
func (s *Service) Peek(n int) ([][]byte, error) {
	items, err := s.queue.Peek(n)
	if err != nil {
		return nil, err
	}
	values := make([][]byte, len(items))
	for i, item := range items {
		values[i] = item.([]byte)
	}
	return values, nil
}

// Pop 读取并消费队首的一条数据
func (s *Service) Pop() ([]byte, error) {
	value, err := s.queue.Pop()
	if err != nil {
		return nil, err
	}
	return value.([]byte), nil
}

// Delete 将队首的 n 条数据标记为已消费
func (s *Service) Delete(n int) error {
	return s.queue.Delete(n)
}

// Len 返回存活的数据条数
func (s *Service) Len() int {
	return s.queue.Len()
}

// Flush 压缩数据文件
func (s *Service) Flush() error {
	return s.queue.Flush()
}

// Clear 清空队列
func (s *Service) Clear() error {
	return s.queue.Clear()
}

// Close 关闭底层队列
func (s *Service) Close() error {
	return s.queue.Close()
}
