package mcpserver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"sketchpad/internal/service"
)

// PendingAction represents a destructive operation awaiting user approval.
type PendingAction struct {
	ID          string `json:"id"`
	Tool        string `json:"tool"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
}

// actionResult is sent through the channel when user approves/rejects.
type actionResult struct {
	approved bool
}

// ApprovalQueue manages human-in-the-loop approval for destructive MCP tool
// calls. The frontend is told through an "mcp:approval-required" event and
// answers through Approve or Reject. With auto-approve on, every request
// passes immediately.
type ApprovalQueue struct {
	mu          sync.Mutex
	pending     map[string]chan actionResult
	ctx         context.Context
	emitter     service.EventEmitter
	timeout     time.Duration
	autoApprove bool
}

func NewApprovalQueue(ctx context.Context, emitter service.EventEmitter) *ApprovalQueue {
	return &ApprovalQueue{
		pending: make(map[string]chan actionResult),
		ctx:     ctx,
		emitter: emitter,
		timeout: 120 * time.Second,
	}
}

// SetAutoApprove toggles approval bypass.
func (q *ApprovalQueue) SetAutoApprove(v bool) {
	q.mu.Lock()
	q.autoApprove = v
	q.mu.Unlock()
}

// SetTimeout changes how long Request waits for an answer.
func (q *ApprovalQueue) SetTimeout(d time.Duration) {
	q.mu.Lock()
	q.timeout = d
	q.mu.Unlock()
}

// Request sends an approval request and blocks until approved/rejected.
func (q *ApprovalQueue) Request(tool, description string) (bool, error) {
	q.mu.Lock()
	if q.autoApprove {
		q.mu.Unlock()
		return true, nil
	}
	id := uuid.New().String()
	ch := make(chan actionResult, 1)
	q.pending[id] = ch
	timeout := q.timeout
	q.mu.Unlock()

	// Notify frontend
	q.emitter.Emit(q.ctx, "mcp:approval-required", PendingAction{
		ID:          id,
		Tool:        tool,
		Description: description,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	})

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	// Block until approved, rejected, or timeout
	select {
	case result := <-ch:
		q.cleanup(id)
		if !result.approved {
			return false, fmt.Errorf("action rejected by user: %s", tool)
		}
		return true, nil
	case <-timer.C:
		q.cleanup(id)
		// Notify frontend to dismiss
		q.emitter.Emit(q.ctx, "mcp:approval-dismissed", map[string]string{"id": id})
		return false, fmt.Errorf("action timed out after %s: %s", timeout, tool)
	case <-q.ctx.Done():
		q.cleanup(id)
		return false, fmt.Errorf("context cancelled")
	}
}

// Approve marks a pending action as approved.
func (q *ApprovalQueue) Approve(actionID string) {
	q.resolve(actionID, true)
}

// Reject marks a pending action as rejected.
func (q *ApprovalQueue) Reject(actionID string) {
	q.resolve(actionID, false)
}

func (q *ApprovalQueue) resolve(actionID string, approved bool) {
	q.mu.Lock()
	ch, ok := q.pending[actionID]
	q.mu.Unlock()
	if !ok {
		return
	}
	select {
	case ch <- actionResult{approved: approved}:
	default: // already answered
	}
}

func (q *ApprovalQueue) cleanup(id string) {
	q.mu.Lock()
	delete(q.pending, id)
	q.mu.Unlock()
}
