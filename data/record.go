package data

import (
	"encoding/binary"
	"errors"
)

// RecordPrefixSize 每条记录的长度前缀所占字节数
const RecordPrefixSize = 8

// ErrPartialRecord 文件末尾存在不完整的记录, 由崩溃时写到一半的追加造成
// 这类记录在打开时被直接丢弃, 不会作为错误向上层暴露
var ErrPartialRecord = errors.New("incomplete record at end of queue file")

// EncodeRecord 对 payload 进行编码, 前面加上固定 8 字节的长度前缀,
// 返回可以直接追加到数据文件的帧
func EncodeRecord(payload []byte) []byte {
	frame := make([]byte, RecordPrefixSize+len(payload))
	binary.LittleEndian.PutUint64(frame[:RecordPrefixSize], uint64(len(payload)))
	copy(frame[RecordPrefixSize:], payload)
	return frame
}

// decodeRecordPrefix 解码记录的长度前缀
func decodeRecordPrefix(buf []byte) uint64 {
	return binary.LittleEndian.Uint64(buf[:RecordPrefixSize])
}
