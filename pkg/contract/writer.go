package contract

import (
	"context"
	"io"
)

// ArtifactID: 持久化工件标识（目标路径或相对 OutputDir 的名称）。
type ArtifactID = FileID

// Writer: 将字节流持久化到目标介质。
// 约束：
//  1. 覆盖写，自动创建父目录；
//  2. 流式写入，按字节透传，不读取/修改业务内容；
//  3. ctx 取消需尽快返回；
//  4. 失败包装 ErrWrite 上抛（不做重试）。
type Writer interface {
	Write(ctx context.Context, id ArtifactID, r io.Reader) error
}
