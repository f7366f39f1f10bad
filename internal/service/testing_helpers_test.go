package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/postcraft/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeHTTPClient struct {
	handler func(*http.Request) (*http.Response, error)
}

func (f fakeHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if f.handler == nil {
		return nil, errors.New("no handler configured")
	}
	return f.handler(req)
}

// stubProvider 是可编程的 Provider 实现，带调用计数。
type stubProvider struct {
	name   string
	output ProviderOutput
	err    error
	calls  int64
}

func (p *stubProvider) Name() string {
	return p.name
}

func (p *stubProvider) Generate(context.Context, string, string) (ProviderOutput, error) {
	atomic.AddInt64(&p.calls, 1)
	if p.err != nil {
		return ProviderOutput{}, p.err
	}
	return p.output, nil
}

func (p *stubProvider) callCount() int64 {
	return atomic.LoadInt64(&p.calls)
}

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// sqlite 内存库在并发写下易报锁错误，测试统一走单连接
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to access sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		sqlDB.Close()
	})

	return gdb
}

// seedOrgWithSubscription 构造一个带免费订阅的组织，返回组织 ID 与创建者 ID。
func seedOrgWithSubscription(t *testing.T, gdb *gorm.DB, tokensRemaining int) (string, uint) {
	t.Helper()

	user := db.User{Username: "tester-" + t.Name(), Password: "secret"}
	if err := gdb.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	subscriptions := NewSubscriptionService(gdb)
	if err := subscriptions.EnsureDefaultPlans(); err != nil {
		t.Fatalf("failed to seed plans: %v", err)
	}

	organizations := NewOrganizationService(gdb, subscriptions)
	org, err := organizations.Create(OrganizationInput{Name: "Acme " + t.Name(), OwnerID: user.ID})
	if err != nil {
		t.Fatalf("failed to create organization: %v", err)
	}

	if err := gdb.Model(&db.Subscription{}).
		Where("organization_id = ?", org.ID).
		Update("tokens_remaining", tokensRemaining).Error; err != nil {
		t.Fatalf("failed to adjust quota: %v", err)
	}

	return org.ID, user.ID
}
