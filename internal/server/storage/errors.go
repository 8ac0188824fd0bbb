package storage

import "errors"

// Ошибки серверного хранилища
var (
	// ErrUserNotFound пользователь не найден
	ErrUserNotFound = errors.New("user not found")

	// ErrUserExists пользователь с таким username уже существует
	ErrUserExists = errors.New("user already exists")

	// ErrTokenNotFound refresh token не найден
	ErrTokenNotFound = errors.New("token not found")

	// ErrWorkspaceNotFound workspace не найден
	ErrWorkspaceNotFound = errors.New("workspace not found")

	// ErrFolderNotFound папка не найдена
	ErrFolderNotFound = errors.New("folder not found")

	// ErrDocumentNotFound документ не найден
	ErrDocumentNotFound = errors.New("document not found")

	// ErrVersionMismatch expected_version не совпала с текущей версией
	ErrVersionMismatch = errors.New("version mismatch")
)
