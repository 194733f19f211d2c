package hashshuffle

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync"

	"annotatorx/internal/mtrand"
	"annotatorx/pkg/contract"
)

// 标签全集（规范顺序）。
const (
	Negative = "NEGATIVE"
	Neutral  = "NEUTRAL"
	Positive = "POSITIVE"
)

// Options 当前无可配置项；保留以与注册表工厂签名一致。
type Options struct{}

// Labeler: 基于 SHA-256 摘要取位、按种子洗牌的确定性标注器。
// 算法：
//  1. digest = hex(sha256("<seed>::<text>"))
//  2. index  = uint32(digest[:8]) % 3
//  3. 以 seed 初始化 MT19937，对 [NEGATIVE, NEUTRAL, POSITIVE] 做一次 Fisher–Yates 洗牌
//  4. 返回 shuffled[index]
//
// 排列只依赖 seed，结果按 seed 缓存。
type Labeler struct {
	mu    sync.Mutex
	perms map[int64][3]string
}

// New 创建标注器。
func New(_ *Options) *Labeler {
	return &Labeler{perms: make(map[int64][3]string)}
}

var _ contract.Labeler = (*Labeler)(nil)

// Labels 返回规范顺序的标签全集。
func (l *Labeler) Labels() []string { return []string{Negative, Neutral, Positive} }

// Label 对 (text, seed) 返回确定性标签。
func (l *Labeler) Label(text string, seed int64) string {
	perm := l.permutation(seed)
	return perm[Index(text, seed)]
}

// Index 返回摘要决定的下标（0..2）。
func Index(text string, seed int64) int {
	sum := sha256.Sum256([]byte(strconv.FormatInt(seed, 10) + "::" + text))
	digest := hex.EncodeToString(sum[:])
	// 前 8 个十六进制字符必然可解析为 uint32
	v, _ := strconv.ParseUint(digest[:8], 16, 32)
	return int(v % 3)
}

// Permutation 返回 seed 对应的洗牌结果（不经缓存）。
func Permutation(seed int64) [3]string {
	labels := [3]string{Negative, Neutral, Positive}
	mtrand.New(seed).Shuffle(len(labels), func(i, j int) {
		labels[i], labels[j] = labels[j], labels[i]
	})
	return labels
}

func (l *Labeler) permutation(seed int64) [3]string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if p, ok := l.perms[seed]; ok {
		return p
	}
	p := Permutation(seed)
	l.perms[seed] = p
	return p
}
