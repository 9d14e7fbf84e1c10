package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/segmentio/ksuid"

	"github.com/taskvault/taskvault/pkg/codec"
	"github.com/taskvault/taskvault/pkg/logger"
	"github.com/taskvault/taskvault/pkg/storage"
	"github.com/taskvault/taskvault/pkg/store"
)

// maxAttachmentSize caps attachment uploads at 32 MiB.
const maxAttachmentSize = 32 << 20

// Server wires HTTP handlers to the task store, attachment store and
// secondary index.
type Server struct {
	config      *ServerConfig
	tasks       ITaskStore
	attachments IAttachmentStore
	index       ITaskIndex
	metrics     *Metrics
	log         logger.Logger
}

// NewServer creates an API server. The attachment store and index are
// optional; routes depending on a nil collaborator return 503.
func NewServer(config *ServerConfig, tasks ITaskStore, attachments IAttachmentStore, index ITaskIndex, metrics *Metrics, log logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Server{
		config:      config,
		tasks:       tasks,
		attachments: attachments,
		index:       index,
		metrics:     metrics,
		log:         log,
	}
}

// handlePutTask stores the attributes for a task and updates the index.
func (s *Server) handlePutTask(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	attrs, err := attributesFromJSON(r.Body)
	if err != nil {
		sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()
	err = s.tasks.PutAttributes(key, attrs)
	s.metrics.RecordStoreOperation("put", err == nil, time.Since(start))
	if err != nil {
		if errors.Is(err, store.ErrInvalidKey) {
			sendError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.log.Error("put task failed:", err)
		sendError(w, http.StatusInternalServerError, "failed to store task")
		return
	}

	if s.index != nil {
		if err := s.index.IndexTask(key, attrs); err != nil {
			s.log.Error("index update failed for", key, ":", err)
		}
	}

	sendSuccess(w, http.StatusOK, TaskResponse{Key: key, Attributes: attrs.Map()})
}

// handleGetTask returns the attributes for a task.
func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	start := time.Now()
	attrs, err := s.tasks.GetAttributes(key)
	s.metrics.RecordStoreOperation("get", err == nil, time.Since(start))
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			sendError(w, http.StatusNotFound, "task not found")
			return
		}
		s.log.Error("get task failed:", err)
		sendError(w, http.StatusInternalServerError, "failed to read task")
		return
	}

	sendSuccess(w, http.StatusOK, TaskResponse{Key: key, Attributes: attrs.Map()})
}

// handleDeleteTask removes a task and its index entries.
func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	start := time.Now()
	err := s.tasks.Delete(key)
	s.metrics.RecordStoreOperation("delete", err == nil, time.Since(start))
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			sendError(w, http.StatusNotFound, "task not found")
			return
		}
		s.log.Error("delete task failed:", err)
		sendError(w, http.StatusInternalServerError, "failed to delete task")
		return
	}

	if s.index != nil {
		if err := s.index.RemoveTask(key); err != nil {
			s.log.Error("index removal failed for", key, ":", err)
		}
	}

	sendSuccess(w, http.StatusOK, map[string]string{"key": key, "status": "deleted"})
}

// handleListTasks lists task keys, optionally filtered by ?prefix=.
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")

	start := time.Now()
	keys, err := s.tasks.ListKeys(prefix)
	s.metrics.RecordStoreOperation("list", err == nil, time.Since(start))
	if err != nil {
		s.log.Error("list tasks failed:", err)
		sendError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	if keys == nil {
		keys = []string{}
	}

	sendSuccess(w, http.StatusOK, map[string]any{"keys": keys, "count": len(keys)})
}

// handleQueryTasks finds tasks whose named attribute equals ?value=. The
// value is parsed as an attribute literal, so "i:5" forces an int lookup
// while "5" matches a numeric 5.
func (s *Server) handleQueryTasks(w http.ResponseWriter, r *http.Request) {
	if s.index == nil {
		sendError(w, http.StatusServiceUnavailable, "query index not available")
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		sendError(w, http.StatusBadRequest, "missing required parameter: name")
		return
	}
	value := codec.ParseLiteral(r.URL.Query().Get("value"))

	start := time.Now()
	keys, err := s.index.Lookup(name, value)
	s.metrics.RecordStoreOperation("query", err == nil, time.Since(start))
	if err != nil {
		s.log.Error("query failed:", err)
		sendError(w, http.StatusInternalServerError, "failed to query tasks")
		return
	}
	if keys == nil {
		keys = []string{}
	}

	sendSuccess(w, http.StatusOK, map[string]any{"keys": keys, "count": len(keys)})
}

// handleCreateAttachment stores an opaque blob and returns its id.
func (s *Server) handleCreateAttachment(w http.ResponseWriter, r *http.Request) {
	if s.attachments == nil {
		sendError(w, http.StatusServiceUnavailable, "attachment store not available")
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxAttachmentSize+1))
	if err != nil {
		sendError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if len(data) > maxAttachmentSize {
		sendError(w, http.StatusRequestEntityTooLarge, "attachment too large")
		return
	}

	id, err := s.attachments.Create(data)
	s.metrics.RecordAttachmentOperation("create", err == nil)
	if err != nil {
		s.log.Error("create attachment failed:", err)
		sendError(w, http.StatusInternalServerError, "failed to store attachment")
		return
	}

	sendSuccess(w, http.StatusCreated, map[string]string{"id": id.String()})
}

// handleGetAttachment streams an attachment back to the client.
func (s *Server) handleGetAttachment(w http.ResponseWriter, r *http.Request) {
	if s.attachments == nil {
		sendError(w, http.StatusServiceUnavailable, "attachment store not available")
		return
	}

	id, err := ksuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		sendError(w, http.StatusBadRequest, "invalid attachment id")
		return
	}

	data, err := s.attachments.Read(id)
	s.metrics.RecordAttachmentOperation("read", err == nil)
	if err != nil {
		if errors.Is(err, storage.ErrAttachmentNotFound) {
			sendError(w, http.StatusNotFound, "attachment not found")
			return
		}
		s.log.Error("read attachment failed:", err)
		sendError(w, http.StatusInternalServerError, "failed to read attachment")
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// handleDeleteAttachment removes an attachment.
func (s *Server) handleDeleteAttachment(w http.ResponseWriter, r *http.Request) {
	if s.attachments == nil {
		sendError(w, http.StatusServiceUnavailable, "attachment store not available")
		return
	}

	id, err := ksuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		sendError(w, http.StatusBadRequest, "invalid attachment id")
		return
	}

	err = s.attachments.Delete(id)
	s.metrics.RecordAttachmentOperation("delete", err == nil)
	if err != nil {
		if errors.Is(err, storage.ErrAttachmentNotFound) {
			sendError(w, http.StatusNotFound, "attachment not found")
			return
		}
		s.log.Error("delete attachment failed:", err)
		sendError(w, http.StatusInternalServerError, "failed to delete attachment")
		return
	}

	sendSuccess(w, http.StatusOK, map[string]string{"id": id.String(), "status": "deleted"})
}

// handleHealth reports server health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordHealthCheck(true)
	sendSuccess(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleStats reports store statistics.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := s.tasks.Stats()
	s.metrics.UpdateStoreStats(stats.Tasks, stats.DataSize)
	sendSuccess(w, http.StatusOK, map[string]any{
		"tasks":           stats.Tasks,
		"data_size_bytes": stats.DataSize,
	})
}

// attributesFromJSON reads a flat JSON object into an attribute map,
// preserving the order keys appear in the document. Numbers become int,
// int64 or float64 depending on magnitude and fraction; nested objects,
// arrays and nulls are rejected since the attribute format has no
// representation for them.
func attributesFromJSON(r io.Reader) (*codec.AttributeMap, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("request body must be a JSON object")
	}

	attrs := codec.NewAttributeMap()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("invalid JSON body: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, errors.New("invalid JSON body")
		}

		valTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("invalid JSON body: %w", err)
		}
		switch v := valTok.(type) {
		case string:
			attrs.Set(key, v)
		case bool:
			attrs.Set(key, v)
		case json.Number:
			attrs.Set(key, numberValue(v))
		case json.Delim:
			return nil, fmt.Errorf("attribute %q: nested values are not supported", key)
		default:
			return nil, fmt.Errorf("attribute %q: null is not supported", key)
		}
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	return attrs, nil
}

// numberValue converts a JSON number into the narrowest attribute type.
func numberValue(n json.Number) any {
	if i, err := n.Int64(); err == nil {
		if i >= math.MinInt32 && i <= math.MaxInt32 {
			return int(i)
		}
		return i
	}
	f, _ := n.Float64()
	return f
}
