package utils

import (
	"fmt"
	"math/rand"
	"time"
)

var (
	randValue = rand.New(rand.NewSource(time.Now().UnixNano()))
	letters   = []byte("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
)

// GetTestItem 生成测试用的数据项
func GetTestItem(i int) string {
	return fmt.Sprintf("pqgo-item-%09d", i)
}

// RandomValue 生成指定长度的随机数据, 用于测试
func RandomValue(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = letters[randValue.Intn(len(letters))]
	}
	return b
}
