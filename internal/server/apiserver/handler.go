package apiserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/duskraft/mrstate-go/internal/codec"
	"github.com/duskraft/mrstate-go/internal/core/domain"
	"github.com/duskraft/mrstate-go/internal/raftnode"
	"github.com/duskraft/mrstate-go/internal/statemachine"
	"github.com/duskraft/mrstate-go/internal/telemetry/logger"
)

// Handler is the main HTTP handler, routing the client-facing payload
// encoding of §6 to the Raft collaborator and the state machine's
// committed-result index.
type Handler struct {
	node         *raftnode.Node
	sm           *statemachine.StateMachine
	logger       logger.Logger
	applyTimeout time.Duration
	mux          *http.ServeMux
}

// New creates a Handler submitting operations through node and reading
// committed map-reduce results from sm.
func New(node *raftnode.Node, sm *statemachine.StateMachine, log logger.Logger, applyTimeout time.Duration) *Handler {
	h := &Handler{node: node, sm: sm, logger: log, applyTimeout: applyTimeout, mux: http.NewServeMux()}
	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)
	h.mux.HandleFunc("POST /v1/ops", h.handleSubmitOp)
	h.mux.HandleFunc("GET /v1/ops/{log_index}/results", h.handleGetResults)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	if !h.node.IsLeader() {
		status = "follower"
	}
	h.writeJSON(w, r, http.StatusOK, map[string]string{"status": status})
}

func (h *Handler) handleSubmitOp(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, domain.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	payload, err := toOperationPayload(req)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	resp, err := h.node.Apply(codec.Encode(payload), h.applyTimeout)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	result, ok := resp.(domain.CommitResult)
	if !ok {
		h.writeError(w, r, http.StatusInternalServerError, domain.ErrInternalServer.WithDetails("unexpected commit response"))
		return
	}

	h.writeJSON(w, r, http.StatusOK, submitResponse{LogIndex: result.LogIndex, HasMapReduce: result.HasMapReduce})
}

func (h *Handler) handleGetResults(w http.ResponseWriter, r *http.Request) {
	logIndexStr := r.PathValue("log_index")
	logIndex, err := strconv.ParseUint(logIndexStr, 10, 64)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, domain.ErrBadRequest.WithDetails("log_index must be a non-negative integer"))
		return
	}

	result, ok := h.sm.GetMapReduceResults(logIndex)
	if !ok {
		h.writeError(w, r, http.StatusNotFound, domain.ErrSnapshotMissing.WithDetails("no map-reduce result at this log index"))
		return
	}

	h.writeJSON(w, r, http.StatusOK, resultsResponse{LogIndex: logIndex, Results: result})
}

func toOperationPayload(req submitRequest) (domain.OperationPayload, error) {
	switch req.Kind {
	case "insert_value":
		if req.Key == "" {
			return domain.OperationPayload{}, domain.ErrBadRequest.WithDetails("key is required")
		}
		return domain.NewInsertValue(req.Key, req.Value), nil
	case "delete_value":
		if req.Key == "" {
			return domain.OperationPayload{}, domain.ErrBadRequest.WithDetails("key is required")
		}
		return domain.NewDeleteValue(req.Key, req.Value), nil
	case "delete_key":
		if req.Key == "" {
			return domain.OperationPayload{}, domain.ErrBadRequest.WithDetails("key is required")
		}
		return domain.NewDeleteKey(req.Key), nil
	case "map_reduce":
		if req.MapOp == "" || req.ReduceOp == "" {
			return domain.OperationPayload{}, domain.ErrBadRequest.WithDetails("map_op and reduce_op are required")
		}
		return domain.NewMapReduce(req.MapOp, req.ReduceOp, req.Keys), nil
	default:
		return domain.OperationPayload{}, domain.ErrBadRequest.WithDetails("unknown operation kind: " + req.Kind)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := requestIDFromContext(r.Context())
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", requestID)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(NewResponse(requestID, data)); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	requestID := requestIDFromContext(r.Context())
	code := domain.GetErrorCode(err)
	message := err.Error()
	if code == "" {
		code = domain.ErrInternalServer.Code
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.Header().Set("X-Request-ID", requestID)
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(NewErrorResponse(requestID, code, message, "")); encErr != nil {
		h.logger.Error("failed to encode error response", "error", encErr)
	}
}

// handleServiceError converts a domain/Raft error into an HTTP response.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.GetErrorCode(err)
	if code == "" {
		h.logger.Error("internal error", "error", err)
		h.writeError(w, r, http.StatusInternalServerError, domain.ErrInternalServer)
		return
	}
	h.writeError(w, r, errorCodeToHTTPStatus(code), err)
}

func errorCodeToHTTPStatus(code string) int {
	switch {
	case strings.HasSuffix(code, "-4040"), strings.HasSuffix(code, "-4041"), strings.HasSuffix(code, "-4042"), strings.HasSuffix(code, "-4044"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "-4290"):
		return http.StatusTooManyRequests
	case strings.HasSuffix(code, "-4210"):
		return http.StatusServiceUnavailable
	case strings.HasSuffix(code, "-4000"), strings.HasSuffix(code, "-4001"):
		return http.StatusBadRequest
	case strings.HasPrefix(code, "MR-ARG-"):
		return http.StatusBadRequest
	case strings.HasPrefix(code, "MR-SM-5"), strings.HasPrefix(code, "MR-SYS-5"):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
