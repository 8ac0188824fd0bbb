package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/iudanet/notesync/pkg/api"
)

//go:generate moq -out client_mock.go . ClientAPI

// ClientAPI определяет интерфейс HTTP клиента удаленного хранилища
type ClientAPI interface {
	// Register регистрирует нового пользователя
	Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error)

	// Login выполняет аутентификацию пользователя
	Login(ctx context.Context, req api.LoginRequest) (*api.TokenResponse, error)

	// CreateDocument создает документ. Клиентский id в запросе служит
	// idempotency key: повтор после сетевого сбоя не создает дубликат.
	CreateDocument(ctx context.Context, token string, req api.DocumentCreateRequest) (*api.Document, error)

	// GetDocument возвращает документ по каноническому id
	GetDocument(ctx context.Context, token, id string) (*api.Document, error)

	// UpdateDocument обновляет документ. При несовпадении
	// expected_version возвращает ошибку KindConflict с текущим
	// состоянием документа в теле.
	UpdateDocument(ctx context.Context, token, id string, req api.DocumentUpdateRequest) (*api.Document, error)

	// DeleteDocument помечает документ удаленным (soft delete)
	DeleteDocument(ctx context.Context, token, id string, expectedVersion *int64) error

	// CreateWorkspace создает workspace
	CreateWorkspace(ctx context.Context, token string, req api.WorkspaceCreateRequest) (*api.Workspace, error)

	// UpdateWorkspace обновляет workspace
	UpdateWorkspace(ctx context.Context, token, id string, req api.WorkspaceUpdateRequest) (*api.Workspace, error)

	// CreateFolder создает папку
	CreateFolder(ctx context.Context, token string, req api.FolderCreateRequest) (*api.Folder, error)

	// UpdateFolder обновляет папку
	UpdateFolder(ctx context.Context, token, id string, req api.FolderUpdateRequest) (*api.Folder, error)

	// DeleteFolder помечает папку удаленной
	DeleteFolder(ctx context.Context, token, id string, expectedVersion *int64) error

	// Batch выполняет пакетную синхронизацию документов workspace.
	// В atomic режиме при любой ошибке сервер не применяет ничего
	// и отвечает 409; ответ с результатами возвращается в обоих случаях.
	Batch(ctx context.Context, token string, req api.BatchRequest) (*api.BatchResponse, error)

	// Ping проверяет доступность сервера
	Ping(ctx context.Context) error
}

// Параметры повторов для transient ошибок на уровне одного запроса.
// Долгий backoff между проходами очереди живет в syncqueue, здесь
// только короткие повторы сетевых сбоев.
const (
	requestTimeout   = 15 * time.Second
	retryBaseDelay   = 300 * time.Millisecond
	retryMaxAttempts = 2
)

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
}

// Compile-time check that Client implements ClientAPI
var _ ClientAPI = (*Client)(nil)

// NewClient создает новый API клиент
func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: requestTimeout,
			// Настройка обработки редиректов
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Ограничиваем количество редиректов
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Копируем заголовок Authorization при редиректе
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}
}

// Register регистрирует нового пользователя
func (c *Client) Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error) {
	var resp api.RegisterResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/register", "", req, &resp); err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}
	return &resp, nil
}

// Login выполняет аутентификацию пользователя
func (c *Client) Login(ctx context.Context, req api.LoginRequest) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/login", "", req, &resp); err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	return &resp, nil
}

// CreateDocument создает документ
func (c *Client) CreateDocument(ctx context.Context, token string, req api.DocumentCreateRequest) (*api.Document, error) {
	var resp api.Document
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/documents", token, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetDocument возвращает документ по каноническому id
func (c *Client) GetDocument(ctx context.Context, token, id string) (*api.Document, error) {
	var resp api.Document
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/documents/"+id, token, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateDocument обновляет документ
func (c *Client) UpdateDocument(ctx context.Context, token, id string, req api.DocumentUpdateRequest) (*api.Document, error) {
	var resp api.Document
	if err := c.doRequest(ctx, http.MethodPut, "/api/v1/documents/"+id, token, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteDocument помечает документ удаленным
func (c *Client) DeleteDocument(ctx context.Context, token, id string, expectedVersion *int64) error {
	path := "/api/v1/documents/" + id
	if expectedVersion != nil {
		path = fmt.Sprintf("%s?expected_version=%d", path, *expectedVersion)
	}
	return c.doRequest(ctx, http.MethodDelete, path, token, nil, nil)
}

// CreateWorkspace создает workspace
func (c *Client) CreateWorkspace(ctx context.Context, token string, req api.WorkspaceCreateRequest) (*api.Workspace, error) {
	var resp api.Workspace
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/workspaces", token, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateWorkspace обновляет workspace
func (c *Client) UpdateWorkspace(ctx context.Context, token, id string, req api.WorkspaceUpdateRequest) (*api.Workspace, error) {
	var resp api.Workspace
	if err := c.doRequest(ctx, http.MethodPut, "/api/v1/workspaces/"+id, token, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateFolder создает папку
func (c *Client) CreateFolder(ctx context.Context, token string, req api.FolderCreateRequest) (*api.Folder, error) {
	var resp api.Folder
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/folders", token, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateFolder обновляет папку
func (c *Client) UpdateFolder(ctx context.Context, token, id string, req api.FolderUpdateRequest) (*api.Folder, error) {
	var resp api.Folder
	if err := c.doRequest(ctx, http.MethodPut, "/api/v1/folders/"+id, token, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteFolder помечает папку удаленной
func (c *Client) DeleteFolder(ctx context.Context, token, id string, expectedVersion *int64) error {
	path := "/api/v1/folders/" + id
	if expectedVersion != nil {
		path = fmt.Sprintf("%s?expected_version=%d", path, *expectedVersion)
	}
	return c.doRequest(ctx, http.MethodDelete, path, token, nil, nil)
}

// Batch выполняет пакетную синхронизацию документов
func (c *Client) Batch(ctx context.Context, token string, req api.BatchRequest) (*api.BatchResponse, error) {
	var resp api.BatchResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/documents/batch", token, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Ping проверяет доступность сервера
func (c *Client) Ping(ctx context.Context) error {
	return c.doRequest(ctx, http.MethodGet, "/healthz", "", nil, nil)
}

// doRequest выполняет HTTP запрос с короткими повторами transient ошибок
func (c *Client) doRequest(ctx context.Context, method, path, token string, body, result interface{}) error {
	backoff := retry.WithMaxRetries(retryMaxAttempts, retry.NewExponential(retryBaseDelay))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := c.doRequestOnce(ctx, method, path, token, body, result)
		if err != nil && IsTransient(err) {
			c.logger.Debug("Transient request failure, will retry",
				"method", method, "path", path, "error", err)
			return retry.RetryableError(err)
		}
		return err
	})
}

// doRequestOnce выполняет один HTTP запрос и классифицирует результат
func (c *Client) doRequestOnce(ctx context.Context, method, path, token string, body, result interface{}) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Сетевая ошибка или таймаут - transient
		return &Error{Kind: KindTransient, Message: err.Error()}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindTransient, Message: fmt.Sprintf("failed to read response body: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.classifyError(resp.StatusCode, respBody)
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// classifyError строит типизированную ошибку по статусу ответа
func (c *Client) classifyError(statusCode int, body []byte) error {
	message := string(body)
	var errResp api.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		message = errResp.Error
	}

	switch {
	case statusCode == http.StatusConflict:
		apiErr := &Error{Kind: KindConflict, StatusCode: statusCode, Message: message}
		var conflict api.ConflictResponse
		if err := json.Unmarshal(body, &conflict); err == nil && conflict.CurrentVersion > 0 {
			apiErr.Conflict = &conflict
			apiErr.Message = conflict.Message
		}
		return apiErr

	case statusCode == http.StatusNotFound:
		return &Error{Kind: KindNotFound, StatusCode: statusCode, Message: message}

	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return &Error{Kind: KindUnauthorized, StatusCode: statusCode, Message: message}

	case statusCode == http.StatusBadRequest || statusCode == http.StatusUnprocessableEntity:
		return &Error{Kind: KindValidation, StatusCode: statusCode, Message: message}

	case statusCode == http.StatusInsufficientStorage:
		return &Error{Kind: KindQuota, StatusCode: statusCode, Message: message}

	case statusCode == http.StatusTooManyRequests || statusCode >= 500:
		return &Error{Kind: KindTransient, StatusCode: statusCode, Message: message}

	default:
		return &Error{Kind: KindValidation, StatusCode: statusCode, Message: message}
	}
}
