package clientid

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
)

const (
	// hashLen 十六进制字符数
	hashLen = 32

	anonPrefix = "anon-"
)

// Hasher 对客户端标识做带密钥的单向哈希，原始标识不落库
type Hasher struct {
	key []byte
}

// NewHasher blake2b 密钥最长 64 字节，超出部分截断
func NewHasher(key string) *Hasher {
	k := []byte(key)
	if len(k) > blake2b.Size {
		k = k[:blake2b.Size]
	}
	return &Hasher{key: k}
}

// Hash 计算客户端标识哈希，同一标识始终得到同一结果
func (h *Hasher) Hash(clientID string) string {
	mac, err := blake2b.New256(h.key)
	if err != nil {
		// 密钥长度已在 NewHasher 中限制
		panic(err)
	}
	mac.Write([]byte(strings.TrimSpace(clientID)))
	return hex.EncodeToString(mac.Sum(nil))[:hashLen]
}

// AnonOwnerID 匿名用户的记录归属标识
func AnonOwnerID(clientHash string) string {
	return anonPrefix + clientHash
}
