package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"github.com/zeebo/blake3"
)

// HashAlgorithm 选择内容摘要算法，两者都输出 256 位。
type HashAlgorithm string

const (
	HashSHA256 HashAlgorithm = "sha256"
	HashBLAKE3 HashAlgorithm = "blake3"
)

// ParseHashAlgorithm 解析配置值，空字符串视为 sha256。
func ParseHashAlgorithm(raw string) (HashAlgorithm, error) {
	switch alg := HashAlgorithm(strings.ToLower(strings.TrimSpace(raw))); alg {
	case "", HashSHA256:
		return HashSHA256, nil
	case HashBLAKE3:
		return HashBLAKE3, nil
	default:
		return "", fmt.Errorf("unknown hash algorithm %q", raw)
	}
}

// Hasher 按到达顺序累积字节块的摘要。
type Hasher struct {
	h hash.Hash
}

func NewHasher(alg HashAlgorithm) *Hasher {
	if alg == HashBLAKE3 {
		return &Hasher{h: blake3.New()}
	}
	return &Hasher{h: sha256.New()}
}

// Write 从不返回错误。
func (h *Hasher) Write(p []byte) (int, error) {
	return h.h.Write(p)
}

// Finish 返回 64 位小写十六进制摘要。
func (h *Hasher) Finish() string {
	return hex.EncodeToString(h.h.Sum(nil))
}
