package service

import (
	"context"
	"time"
)

// Namespaces used in the value store
const (
	nsAdminSession  = "admin-session"
	nsRevokedToken  = "revoked-token"
	nsDeleteConfirm = "delete-confirm"
)

// ValueStore is a TTL key/value store shared by service replicas
type ValueStore interface {
	PutValue(ctx context.Context, namespace, key, value string, ttl time.Duration) error
	GetValue(ctx context.Context, namespace, key string) (string, bool, error)
	TakeValue(ctx context.Context, namespace, key string) (string, bool, error)
	DeleteValue(ctx context.Context, namespace, key string) error
}
