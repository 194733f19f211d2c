package contract

import "errors"

// 最小错误分类（哨兵）。调用方以 fmt.Errorf("%w: ...") 包装，上层仅依赖 errors.Is 判定。
var (
	// ErrNotFound: 输入路径不存在（数据集、标注文件、数据集仓库中的名称）。
	ErrNotFound = errors.New("not found")
	// ErrDatasetFormat: 数据集扩展名不受支持或结构不合法。
	ErrDatasetFormat = errors.New("dataset format")
	// ErrSchemaValidation: 标注文档不满足 AnnotationSet 结构约定。
	ErrSchemaValidation = errors.New("schema validation")
	// ErrWrite: 目标不可创建或不可写。
	ErrWrite = errors.New("write failed")
	// ErrPathInvalid: 目标标识映射为无效/越界路径（例如绝对路径或 '..' 逃逸）。
	ErrPathInvalid = errors.New("path invalid")
	// ErrInvalidInput: 调用参数不合法（空字段名、未知格式等）。
	ErrInvalidInput = errors.New("invalid input")
)
