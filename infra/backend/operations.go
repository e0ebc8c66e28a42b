package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	coremetrics "github.com/kilianp07/fjsm/core/metrics"
	"github.com/kilianp07/fjsm/core/model"
)

const (
	opStartSolver          = "start_solver"
	opStartSolverWithLocks = "start_solver_with_locks"
	opSolverStatus         = "solver_status"
	opPlanGantt            = "plan_gantt"
	opRecentPlans          = "recent_plans"
	opCreateOrder          = "create_order"

	pathStartSolver          = "/api/solver/start"
	pathStartSolverWithLocks = "/api/solver/start_with_locks"
	pathSolverStatus         = "/api/solver/status/%s"
	pathPlanGantt            = "/api/plans/%s/gantt"
	pathRecentPlans          = "/api/plans/recent"
	pathOrders               = "/api/orders"
)

const metricsDelay = 100 * time.Millisecond

// StartSolver starts a solver run and returns the backend's response, which
// normally carries the run_id.
func (c *Client) StartSolver(ctx context.Context) (json.RawMessage, error) {
	return c.start(ctx, call{
		op:     opStartSolver,
		method: http.MethodPost,
		path:   pathStartSolver,
		body:   []byte("{}"),
	}, MsgStartSolver)
}

// StartSolverWithLocks starts a solver run keeping the given assignments
// fixed. A nil slice is sent as an empty array.
func (c *Client) StartSolverWithLocks(ctx context.Context, locks []model.Lock) (json.RawMessage, error) {
	if locks == nil {
		locks = []model.Lock{}
	}
	body, err := json.Marshal(struct {
		Locks []model.Lock `json:"locks"`
	}{Locks: locks})
	if err != nil {
		return nil, fmt.Errorf("%s: encode locks: %w", opStartSolverWithLocks, err)
	}
	return c.start(ctx, call{
		op:       opStartSolverWithLocks,
		method:   http.MethodPost,
		path:     pathStartSolverWithLocks,
		body:     body,
		jsonBody: true,
	}, MsgStartSolverWithLocks)
}

func (c *Client) start(ctx context.Context, cl call, failure string) (json.RawMessage, error) {
	resp, ev, err := c.do(ctx, cl)
	if err != nil {
		c.record(ev, coremetrics.OutcomeFailed)
		return nil, err
	}
	if !resp.ok() {
		c.record(ev, coremetrics.OutcomeFailed)
		return nil, &APIError{Op: cl.op, Status: resp.status, Message: failure}
	}
	out, err := decodeJSON(resp.body)
	if err != nil {
		c.record(ev, coremetrics.OutcomeFailed)
		return nil, decodeError(cl.op, err)
	}
	c.record(ev, coremetrics.OutcomeOK)
	return out, nil
}

// SolverStatus returns the status payload of a run. It returns nil without
// issuing a request when runID is empty, and nil when the backend answers
// with a non-2xx status.
func (c *Client) SolverStatus(ctx context.Context, runID model.RunID) (json.RawMessage, error) {
	if runID.Empty() {
		c.skipped(opSolverStatus)
		return nil, nil
	}
	resp, ev, err := c.do(ctx, call{
		op:     opSolverStatus,
		method: http.MethodGet,
		path:   fmt.Sprintf(pathSolverStatus, url.PathEscape(runID.String())),
	})
	if err != nil {
		c.record(ev, coremetrics.OutcomeFailed)
		return nil, err
	}
	if !resp.ok() {
		c.record(ev, coremetrics.OutcomeDegraded)
		return nil, nil
	}
	out, err := decodeJSON(resp.body)
	if err != nil {
		c.record(ev, coremetrics.OutcomeFailed)
		return nil, decodeError(opSolverStatus, err)
	}
	c.record(ev, coremetrics.OutcomeOK)
	if string(out) == "null" {
		return nil, nil
	}
	return out, nil
}

// PlanGantt returns the Gantt payload of a run. The empty array is returned
// without a request when runID is empty, and when the backend answers with
// a non-2xx status or no data.
func (c *Client) PlanGantt(ctx context.Context, runID model.RunID) (json.RawMessage, error) {
	if runID.Empty() {
		c.skipped(opPlanGantt)
		return EmptyGantt(), nil
	}
	resp, ev, err := c.do(ctx, call{
		op:     opPlanGantt,
		method: http.MethodGet,
		path:   fmt.Sprintf(pathPlanGantt, url.PathEscape(runID.String())),
	})
	if err != nil {
		c.record(ev, coremetrics.OutcomeFailed)
		return nil, err
	}
	if !resp.ok() {
		c.record(ev, coremetrics.OutcomeDegraded)
		return EmptyGantt(), nil
	}
	out := GanttOrEmpty(resp.body)
	if !json.Valid(out) {
		c.record(ev, coremetrics.OutcomeFailed)
		return nil, decodeError(opPlanGantt, fmt.Errorf("invalid JSON"))
	}
	if string(out) == string(emptyArray) {
		c.record(ev, coremetrics.OutcomeDegraded)
		return out, nil
	}
	c.record(ev, coremetrics.OutcomeOK)
	return out, nil
}

// RecentPlans lists recent plans. Non-2xx answers, undecodable bodies and
// bodies that are not arrays all yield an empty list.
func (c *Client) RecentPlans(ctx context.Context) ([]json.RawMessage, error) {
	resp, ev, err := c.do(ctx, call{
		op:     opRecentPlans,
		method: http.MethodGet,
		path:   pathRecentPlans,
	})
	if err != nil {
		c.record(ev, coremetrics.OutcomeFailed)
		return nil, err
	}
	if !resp.ok() {
		c.record(ev, coremetrics.OutcomeDegraded)
		return []json.RawMessage{}, nil
	}
	plans := ArrayOrEmpty(resp.body)
	outcome := coremetrics.OutcomeOK
	if len(plans) == 0 && !isEmptyArray(resp.body) {
		outcome = coremetrics.OutcomeDegraded
	}
	c.record(ev, outcome)
	return plans, nil
}

// CreateOrder forwards order to the backend unchanged. Pass a
// json.RawMessage to send pre-encoded JSON. On a non-2xx answer the
// returned *APIError carries the backend's error message when it sent one.
func (c *Client) CreateOrder(ctx context.Context, order model.OrderRequest) (json.RawMessage, error) {
	body, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("%s: encode order: %w", opCreateOrder, err)
	}
	resp, ev, err := c.do(ctx, call{
		op:       opCreateOrder,
		method:   http.MethodPost,
		path:     pathOrders,
		body:     body,
		jsonBody: true,
	})
	if err != nil {
		c.record(ev, coremetrics.OutcomeFailed)
		return nil, err
	}
	if !resp.ok() {
		c.record(ev, coremetrics.OutcomeFailed)
		return nil, orderError(resp.status, resp.body)
	}
	out, err := decodeJSON(resp.body)
	if err != nil {
		c.record(ev, coremetrics.OutcomeFailed)
		return nil, decodeError(opCreateOrder, err)
	}
	c.record(ev, coremetrics.OutcomeOK)
	return out, nil
}

// Metrics is a placeholder for backend metrics. It waits briefly and
// returns an empty map; it never fails. A canceled context ends the wait
// early.
func (c *Client) Metrics(ctx context.Context) map[string]any {
	timer := time.NewTimer(c.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
	return map[string]any{}
}

func decodeJSON(body []byte) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func isEmptyArray(body []byte) bool {
	var items []json.RawMessage
	return json.Unmarshal(body, &items) == nil && items != nil && len(items) == 0
}
