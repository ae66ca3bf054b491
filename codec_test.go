package pqgo

import (
	"os"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestGobCodec(t *testing.T) {
	codec := NewGobCodec()

	values := []any{
		1,
		int64(-42),
		3.14,
		"hello",
		true,
		[]byte("raw bytes"),
		[]any{"a", "b", "c"},
		map[string]any{"k": "v"},
	}
	for _, value := range values {
		data, err := codec.Serialize(value)
		assert.Nil(t, err)
		decoded, err := codec.Deserialize(data)
		assert.Nil(t, err)
		assert.Equal(t, value, decoded)
	}
}

func TestJSONCodec(t *testing.T) {
	codec := NewJSONCodec()

	data, err := codec.Serialize(map[string]any{"name": "pqgo"})
	assert.Nil(t, err)
	decoded, err := codec.Deserialize(data)
	assert.Nil(t, err)
	assert.Equal(t, map[string]any{"name": "pqgo"}, decoded)

	// json 把数字还原为 float64
	data, err = codec.Serialize(1)
	assert.Nil(t, err)
	decoded, err = codec.Deserialize(data)
	assert.Nil(t, err)
	assert.Equal(t, float64(1), decoded)

	_, err = codec.Deserialize([]byte("{not json"))
	assert.NotNil(t, err)
}

func TestRawCodec(t *testing.T) {
	codec := NewRawCodec()

	data, err := codec.Serialize([]byte("payload"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("payload"), data)

	decoded, err := codec.Deserialize(data)
	assert.Nil(t, err)
	assert.Equal(t, []byte("payload"), decoded)

	_, err = codec.Serialize("not bytes")
	assert.Equal(t, ErrRawCodecValue, err)
}

// failingCodec 编码正常, 解码永远失败, 用于验证解码错误的传播
type failingCodec struct {
	raw RawCodec
}

var errDecodeBroken = errors.New("decode broken")

func (c *failingCodec) Serialize(value any) ([]byte, error) {
	return c.raw.Serialize(value)
}

func (c *failingCodec) Deserialize(data []byte) (any, error) {
	return nil, errDecodeBroken
}

func TestQueue_CodecErrorPropagation(t *testing.T) {
	opts := DefaultOptions
	dir, _ := os.MkdirTemp("", "pqgo-codec-err")
	opts.DirPath = dir
	opts.Codec = &failingCodec{}
	q, err := Open(opts)
	assert.Nil(t, err)
	defer destroyQueue(q)

	// 编码失败的数据不会入队
	err = q.Push("not bytes")
	assert.Equal(t, ErrRawCodecValue, err)
	assert.Equal(t, 0, q.Len())

	// 记录本身写入成功, 解码失败原样上抛, 且不消费数据
	assert.Nil(t, q.Push([]byte("item")))
	_, err = q.Pop()
	assert.Equal(t, errDecodeBroken, err)
	assert.Equal(t, 1, q.Len())
}
