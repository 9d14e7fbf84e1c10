package api

import (
	"github.com/segmentio/ksuid"

	"github.com/taskvault/taskvault/pkg/codec"
	"github.com/taskvault/taskvault/pkg/store"
)

// APIResponse represents a standard API response.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// TaskResponse is the payload returned for a single task.
type TaskResponse struct {
	Key        string         `json:"key"`
	Attributes map[string]any `json:"attributes"`
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Bind   string
	Port   int
	APIKey string
}

// ITaskStore defines the task store operations the API depends on.
type ITaskStore interface {
	PutAttributes(key string, attrs *codec.AttributeMap) error
	GetAttributes(key string) (*codec.AttributeMap, error)
	Delete(key string) error
	ListKeys(prefix string) ([]string, error)
	Stats() *store.StoreStats
}

// IAttachmentStore defines the attachment operations the API depends on.
type IAttachmentStore interface {
	Create(data []byte) (ksuid.KSUID, error)
	Read(id ksuid.KSUID) ([]byte, error)
	Delete(id ksuid.KSUID) error
	List() ([]ksuid.KSUID, error)
}

// ITaskIndex defines the secondary index operations the API depends on.
type ITaskIndex interface {
	IndexTask(taskKey string, attrs *codec.AttributeMap) error
	RemoveTask(taskKey string) error
	Lookup(name string, value any) ([]string, error)
}
