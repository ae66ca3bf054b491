package pqgo

import (
	"bytes"
	"encoding/gob"
	"encoding/json"

	"github.com/pkg/errors"
)

// Codec 数据项编解码器, 由调用方提供, 队列核心只处理字节, 不关心数据的具体含义
type Codec interface {
	// Serialize 将数据项编码为字节数组
	Serialize(value any) ([]byte, error)

	// Deserialize 将字节数组解码为数据项
	Deserialize(data []byte) (any, error)
}

// gobValue gob 编码的包装结构, 接口字段允许编解码任意已注册的具体类型
type gobValue struct {
	V any
}

func init() {
	// 注册常用的具体类型, 其他类型由调用方自行通过 gob.Register 注册
	gob.Register(int(0))
	gob.Register(int64(0))
	gob.Register(uint64(0))
	gob.Register(float64(0))
	gob.Register("")
	gob.Register(false)
	gob.Register([]byte{})
	gob.Register([]any{})
	gob.Register(map[string]any{})
}

// GobCodec 默认编解码器, 基于标准库 gob, 可以无损还原已注册的 Go 类型
type GobCodec struct{}

func NewGobCodec() *GobCodec {
	return &GobCodec{}
}

func (c *GobCodec) Serialize(value any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&gobValue{V: value}); err != nil {
		return nil, errors.Wrap(err, "serialize item")
	}
	return buf.Bytes(), nil
}

func (c *GobCodec) Deserialize(data []byte) (any, error) {
	var gv gobValue
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&gv); err != nil {
		return nil, errors.Wrap(err, "deserialize item")
	}
	return gv.V, nil
}

// JSONCodec 基于标准库 json 的编解码器, 适合跨语言读取队列文件的场景
// 注意 json 解码会把所有数字还原为 float64
type JSONCodec struct{}

func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

func (c *JSONCodec) Serialize(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, errors.Wrap(err, "serialize item")
	}
	return data, nil
}

func (c *JSONCodec) Deserialize(data []byte) (any, error) {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, errors.Wrap(err, "deserialize item")
	}
	return value, nil
}

// RawCodec 原样传递字节数组, 供 redis 服务等直接操作字节的场景使用
type RawCodec struct{}

func NewRawCodec() *RawCodec {
	return &RawCodec{}
}

func (c *RawCodec) Serialize(value any) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	default:
		return nil, ErrRawCodecValue
	}
}

func (c *RawCodec) Deserialize(data []byte) (any, error) {
	return data, nil
}
