package contract

// Labeler: (text, seed) → 固定标签集之一的纯函数。
// 相同输入必须产生相同输出，不做 I/O。
type Labeler interface {
	Label(text string, seed int64) string
	// Labels 返回标签全集（未打乱的规范顺序）。
	Labels() []string
}
