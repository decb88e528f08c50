// Package handler 提供 HTTP 请求处理器
package handler

import (
	"sync/atomic"

	"github.com/rushteam/jembertrip/core"
	"github.com/rushteam/jembertrip/recommend"
)

// ServiceHolder 持有启动完成后安装的推荐服务。
// 安装前所有推荐路由返回 503。
type ServiceHolder struct {
	svc atomic.Pointer[recommend.Service]
}

// NewServiceHolder 创建空的 ServiceHolder
func NewServiceHolder() *ServiceHolder {
	return &ServiceHolder{}
}

// Install 安装推荐服务，可重复调用以热替换
func (h *ServiceHolder) Install(svc *recommend.Service) {
	h.svc.Store(svc)
}

// Get 返回当前服务；未安装时返回 core.ErrNotReady
func (h *ServiceHolder) Get() (*recommend.Service, error) {
	svc := h.svc.Load()
	if svc == nil {
		return nil, core.ErrNotReady
	}
	return svc, nil
}

// Ready 是否已安装服务
func (h *ServiceHolder) Ready() bool {
	return h.svc.Load() != nil
}
