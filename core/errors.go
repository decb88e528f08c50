package core

import "errors"

// DomainError 是领域层的统一错误类型。
//
// 使用场景：
//   - Store 错误：NOT_FOUND, NOT_SUPPORTED
//   - 推荐错误：NOT_FOUND（相似推荐的目标不存在）
//   - 服务错误：UNAVAILABLE（启动尚未完成）
//   - Vector 错误：INVALID_INPUT（维度不一致）
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "UNAVAILABLE"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "recommend", "corpus"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// GetDomainError 获取错误链中的 DomainError，如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeNotSupported  = "NOT_SUPPORTED"  // 操作不支持
	ErrorCodeUnavailable   = "UNAVAILABLE"    // 服务不可用
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误
)

// 模块名称常量
const (
	ModuleStore     = "store"     // 存储模块
	ModuleCorpus    = "corpus"    // 语料模块
	ModuleVector    = "vector"    // 向量模块
	ModuleEncoder   = "encoder"   // 文本编码模块
	ModuleRecommend = "recommend" // 推荐模块
	ModuleService   = "service"   // 服务模块
)

var (
	// ErrItemNotFound 表示相似推荐的目标物品不存在
	ErrItemNotFound = NewDomainError(ModuleRecommend, ErrorCodeNotFound, "recommend: item not found")

	// ErrNotReady 表示启动尚未完成（语料/编码器未就绪）
	ErrNotReady = NewDomainError(ModuleService, ErrorCodeUnavailable, "service: not ready")
)

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeUnavailable
	}
	return false
}

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeInvalidInput
	}
	return false
}
