package benchmark

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"pqgo"
	"pqgo/utils"
)

var q *pqgo.Queue

func init() {
	// 初始化用于基准测试的队列实例
	options := pqgo.DefaultOptions
	dir, _ := os.MkdirTemp("", "pqgo-bench")
	options.DirPath = dir

	var err error
	q, err = pqgo.Open(options)
	if err != nil {
		panic(err)
	}
}

func Benchmark_Push(b *testing.B) {
	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		err := q.Push(utils.RandomValue(1024))
		assert.Nil(b, err)
	}
}

func Benchmark_Peek(b *testing.B) {
	for i := 0; i < 10000; i++ {
		err := q.Push(utils.RandomValue(1024))
		assert.Nil(b, err)
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_, err := q.Peek(1)
		assert.Nil(b, err)
	}
}

func Benchmark_Pop(b *testing.B) {
	for i := 0; i < 10000; i++ {
		err := q.Push(utils.RandomValue(1024))
		assert.Nil(b, err)
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_, err := q.Pop()
		if err != nil && err != pqgo.ErrQueueEmpty {
			b.Fatal(err)
		}
	}
}
