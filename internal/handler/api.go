package handler

import (
	"github.com/postcraft/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db            *gorm.DB
	organizations *service.OrganizationService
	subscriptions *service.SubscriptionService
	contents      *service.ContentService
	scheduling    *service.SchedulingService
}

// NewAPI constructs a handler set with shared services.
// 内容与排期服务依赖外部凭据，由调用方构造后注入。
func NewAPI(gdb *gorm.DB, contents *service.ContentService, scheduling *service.SchedulingService) *API {
	subscriptions := service.NewSubscriptionService(gdb)

	return &API{
		db:            gdb,
		organizations: service.NewOrganizationService(gdb, subscriptions),
		subscriptions: subscriptions,
		contents:      contents,
		scheduling:    scheduling,
	}
}

// DB exposes the underlying gorm instance for legacy paths.
func (a *API) DB() *gorm.DB {
	return a.db
}
