package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/postcraft/internal/db"
)

const schedulerCallTimeout = 10 * time.Second

// SchedulerClient 是外部调度服务的窄 HTTP 契约：
// 投递与取消任务，任务的实际执行与重试都在对端完成。
type SchedulerClient struct {
	baseURL      string
	serviceToken string
	jwtSecret    string
	http         httpDoer
}

// NewSchedulerClient 构造 SchedulerClient。
func NewSchedulerClient(baseURL, serviceToken, jwtSecret string) *SchedulerClient {
	return &SchedulerClient{
		baseURL:      strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		serviceToken: strings.TrimSpace(serviceToken),
		jwtSecret:    jwtSecret,
		http:         &http.Client{Timeout: schedulerCallTimeout},
	}
}

// SetHTTPClient 覆盖默认 HTTP 客户端，主要用于测试。
func (c *SchedulerClient) SetHTTPClient(client httpDoer) {
	if client == nil {
		c.http = &http.Client{Timeout: schedulerCallTimeout}
		return
	}
	c.http = client
}

// ScheduleJobInput 描述投递给调度服务的任务。
type ScheduleJobInput struct {
	ContentID      string
	Platform       string
	ScheduledAt    time.Time
	UserID         uint
	OrganizationID string
	AccessToken    string
}

// ScheduleJobResult 回传调度服务分配的任务标识与状态。
type ScheduleJobResult struct {
	JobID  string
	Status string
}

type scheduleJobPayload struct {
	ContentID   string `json:"content_id"`
	Platform    string `json:"platform"`
	ScheduledAt string `json:"scheduled_at"`
	UserID      string `json:"user_id"`
	OrgID       string `json:"org_id"`
	AccessToken string `json:"access_token"`
}

type scheduleJobResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
	Error  string `json:"error"`
}

// ScheduleJob 把一条内容投递到调度服务，返回对端的任务 ID。
func (c *SchedulerClient) ScheduleJob(ctx context.Context, input ScheduleJobInput) (ScheduleJobResult, error) {
	payload := scheduleJobPayload{
		ContentID:   input.ContentID,
		Platform:    input.Platform,
		ScheduledAt: input.ScheduledAt.UTC().Format(time.RFC3339),
		UserID:      fmt.Sprintf("%d", input.UserID),
		OrgID:       input.OrganizationID,
		AccessToken: input.AccessToken,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return ScheduleJobResult{}, fmt.Errorf("encode schedule payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/schedule", bytes.NewReader(body))
	if err != nil {
		return ScheduleJobResult{}, fmt.Errorf("build schedule request: %w", err)
	}
	c.setHeaders(httpReq, input.UserID)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return ScheduleJobResult{}, fmt.Errorf("scheduler service error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return ScheduleJobResult{}, fmt.Errorf("read scheduler response: %w", err)
	}

	var decoded scheduleJobResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return ScheduleJobResult{}, fmt.Errorf("decode scheduler response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		errMsg := strings.TrimSpace(decoded.Error)
		if errMsg == "" {
			errMsg = resp.Status
		}
		return ScheduleJobResult{}, fmt.Errorf("scheduler service error: %s", errMsg)
	}

	status := decoded.Status
	if status == "" {
		status = db.ScheduleStatusScheduled
	}

	return ScheduleJobResult{JobID: decoded.JobID, Status: status}, nil
}

// CancelJob 取消调度服务中的任务。
func (c *SchedulerClient) CancelJob(ctx context.Context, jobID string, userID uint) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/v1/schedule/"+jobID, nil)
	if err != nil {
		return fmt.Errorf("build cancel request: %w", err)
	}
	c.setHeaders(httpReq, userID)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("scheduler service error: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("scheduler service error: %s", resp.Status)
	}

	return nil
}

// setHeaders 附加服务间认证：为发起用户签发短时 JWT，并携带共享服务令牌。
func (c *SchedulerClient) setHeaders(req *http.Request, userID uint) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"iat":     now.Unix(),
		"exp":     now.Add(5 * time.Minute).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(c.jwtSecret))
	if err == nil {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Service-Token", c.serviceToken)
}
