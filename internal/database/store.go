package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/hitoshi/guildcal/internal/repository"
)

var (
	// ErrNotConnected はConnect前にコレクションを要求した場合のエラー。
	ErrNotConnected = errors.New("store is not connected")
	// ErrConnection はストアへの接続に失敗したことを表す。
	ErrConnection = errors.New("store connection failed")
	// ErrUnknownCollection は未知のコレクション名を要求した場合のエラー。
	ErrUnknownCollection = errors.New("unknown collection")
)

// ConnectionError は接続先に到達できなかった場合のエラー。
// errors.Is(err, ErrConnection) で判定できる。
type ConnectionError struct {
	Store string
	Err   error
}

// Error はerrorインターフェースを実装する。
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrConnection, e.Store, e.Err)
}

// Unwrap は原因エラーとErrConnectionの両方を返す。
func (e *ConnectionError) Unwrap() []error {
	return []error{ErrConnection, e.Err}
}

// Store はイベントストアの接続ライフサイクルを管理するアダプタ。
// 起動時に1度だけ実装（PostgreSQLまたはメモリ）を選択し、以降のリクエスト処理は
// どちらの実装かを意識しない。
type Store interface {
	// Connect は接続を確立する。有限時間内に到達できない場合はConnectionErrorを返す。
	Connect(ctx context.Context) error
	// Disconnect は接続を解放する。未接続の場合は何もしない。
	Disconnect() error
	// Collection は名前付きコレクションのハンドルを返す。未接続の場合はErrNotConnectedを返す。
	Collection(name string) (repository.EventRepository, error)
	// Ping は軽量な死活確認を行う。エラーを返さずboolで結果を返す。
	Ping(ctx context.Context) bool
	// Name はストア実装の名前（"postgres" または "memory"）を返す。
	Name() string
}

// EventCollection はstoreからeventsコレクションのハンドルを取得するヘルパー。
func EventCollection(store Store) (repository.EventRepository, error) {
	repo, err := store.Collection(repository.EventsCollection)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s collection from %s store: %w", repository.EventsCollection, store.Name(), err)
	}
	return repo, nil
}
