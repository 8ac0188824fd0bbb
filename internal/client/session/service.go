// Package session управляет сессией пользователя на клиенте:
// регистрация, вход, хранение токенов и выдача access token
// компонентам синхронизации.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apiclient "github.com/iudanet/notesync/internal/client/api"
	"github.com/iudanet/notesync/internal/client/storage"
	"github.com/iudanet/notesync/internal/validation"
	"github.com/iudanet/notesync/pkg/api"
)

// Ошибки сессии
var (
	// ErrNotLoggedIn нет сохраненной сессии
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrSessionExpired access token истек, требуется повторный login
	ErrSessionExpired = errors.New("session expired, login again")
)

// Service предоставляет функции управления сессией
type Service struct {
	apiClient apiclient.ClientAPI
	sessions  storage.SessionStorage
	meta      storage.MetaStorage
	logger    *slog.Logger
	serverURL string
}

// NewService создает новый сервис сессии
func NewService(
	apiClient apiclient.ClientAPI,
	sessions storage.SessionStorage,
	meta storage.MetaStorage,
	serverURL string,
	logger *slog.Logger,
) *Service {
	return &Service{
		apiClient: apiClient,
		sessions:  sessions,
		meta:      meta,
		serverURL: serverURL,
		logger:    logger,
	}
}

// Register регистрирует нового пользователя
func (s *Service) Register(ctx context.Context, username, password string) (string, error) {
	if err := validation.ValidateUsername(username); err != nil {
		return "", fmt.Errorf("invalid username: %w", err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return "", fmt.Errorf("invalid password: %w", err)
	}

	resp, err := s.apiClient.Register(ctx, api.RegisterRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return "", fmt.Errorf("registration failed: %w", err)
	}

	s.logger.Info("User registered", "username", username)
	return resp.UserID, nil
}

// Login выполняет аутентификацию и сохраняет сессию.
// При первом входе на устройстве генерируется и сохраняется node id
// для часов CRDT: идентификатор устройства переживает re-login.
func (s *Service) Login(ctx context.Context, username, password string) error {
	if err := validation.ValidateUsername(username); err != nil {
		return fmt.Errorf("invalid username: %w", err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return fmt.Errorf("invalid password: %w", err)
	}

	resp, err := s.apiClient.Login(ctx, api.LoginRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	session := &storage.Session{
		ExpiresAt:    time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second),
		Username:     username,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ServerURL:    s.serverURL,
	}
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	if err := s.ensureNodeID(ctx); err != nil {
		return err
	}

	s.logger.Info("Logged in", "username", username)
	return nil
}

// Logout удаляет локальную сессию.
// Подтверждение потери неотправленной очереди — забота CLI: сервис
// просто стирает сессию.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.sessions.DeleteSession(ctx); err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return nil
		}
		return fmt.Errorf("delete session: %w", err)
	}

	s.logger.Info("Logged out")
	return nil
}

// Current возвращает сохраненную сессию
func (s *Service) Current(ctx context.Context) (*storage.Session, error) {
	session, err := s.sessions.GetSession(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return nil, ErrNotLoggedIn
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	return session, nil
}

// Token возвращает действующий access token.
// Используется очередью и batch координатором как TokenSource.
func (s *Service) Token(ctx context.Context) (string, error) {
	session, err := s.Current(ctx)
	if err != nil {
		return "", err
	}

	if session.IsExpired() {
		return "", ErrSessionExpired
	}

	return session.AccessToken, nil
}

// NodeID возвращает идентификатор устройства для часов CRDT
func (s *Service) NodeID(ctx context.Context) (string, error) {
	nodeID, err := s.meta.GetNodeID(ctx)
	if err != nil {
		return "", fmt.Errorf("load node id: %w", err)
	}
	if nodeID == "" {
		return "", errors.New("node id not initialized")
	}
	return nodeID, nil
}

// ensureNodeID генерирует node id при первом входе на устройстве
func (s *Service) ensureNodeID(ctx context.Context) error {
	nodeID, err := s.meta.GetNodeID(ctx)
	if err != nil {
		return fmt.Errorf("load node id: %w", err)
	}
	if nodeID != "" {
		return nil
	}

	nodeID = uuid.NewString()
	if err := s.meta.SaveNodeID(ctx, nodeID); err != nil {
		return fmt.Errorf("save node id: %w", err)
	}

	s.logger.Debug("Generated device node id", "node_id", nodeID)
	return nil
}
