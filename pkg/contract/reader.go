package contract

import (
	"context"
	"io"
)

// Reader: 输入源抽象（本地文件）。
// 约束：
// 1) Resolve 仅做存在性检查，缺失返回 ErrNotFound；
// 2) FileID 稳定且去平台差异化；
// 3) 不做解码/业务解析，仅提供字节流；调用方负责 Close；
// 4) ReadAll 为 Open + 全量读取，适用于整文档解析（如标注文件校验）；
// 5) Lookup 在数据集仓库目录中按扩展名优先级定位 <stem><ext>。
type Reader interface {
	Resolve(path string) (FileID, error)
	Open(ctx context.Context, path string) (FileID, io.ReadCloser, error)
	ReadAll(ctx context.Context, path string) (FileID, []byte, error)
	Lookup(dir, stem string, exts []string) (string, error)
}
