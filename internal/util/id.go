package util

import (
	"crypto/rand"
	"math/big"
)

const idCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// randomString 生成指定长度的随机字符串
func randomString(length int) string {
	result := make([]byte, length)
	max := big.NewInt(int64(len(idCharset)))
	for i := range result {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand不可用时退化为固定字符，不中断请求
			result[i] = idCharset[0]
			continue
		}
		result[i] = idCharset[n.Int64()]
	}
	return string(result)
}

// GenerateUniqueID 生成访问关联标识，用于串联点击、像素与落地页事件
func GenerateUniqueID() string {
	return randomString(8)
}

// GenerateShortCode 生成链接短码
func GenerateShortCode() string {
	return randomString(8)
}
