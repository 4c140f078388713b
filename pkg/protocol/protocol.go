// Package protocol defines the JSON request/response pair used to run one
// gocalc program across a process boundary: by the WASI entrypoint on stdin
// and stdout, and by the sandbox host that drives it.
//
//	request:  {"source": "[x = y * 2; x]", "env": {"y": 21}}
//	response: {"kind": "number", "result": "42", "number": 42, "env": {"x": 42, "y": 21}}
//	          {"kind": "", "error": "U1001: Undefined variable: z", "code": "U1001"}
//
// Only numbers cross the boundary as bindings. Function values stay inside
// the evaluating process, and so do non-finite numbers, which JSON cannot
// represent; their rendering is still available in Result.
package protocol

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/sandrolain/gocalc/pkg/evaluator"
	"github.com/sandrolain/gocalc/pkg/types"
)

// Request asks for source to be evaluated in an environment seeded with Env.
type Request struct {
	Source string             `json:"source"`
	Env    map[string]float64 `json:"env,omitempty"`
}

// Response carries the outcome of a Request.
type Response struct {
	Kind   string             `json:"kind"`
	Result string             `json:"result,omitempty"`
	Number *float64           `json:"number,omitempty"`
	Env    map[string]float64 `json:"env,omitempty"`
	Error  string             `json:"error,omitempty"`
	Code   string             `json:"code,omitempty"`
}

// Err rebuilds the evaluation error carried by the response, or returns nil
// on success. Coded errors keep their code so that types.IsCode still works.
func (r Response) Err() error {
	if r.Error == "" {
		return nil
	}
	if r.Code == "" {
		return fmt.Errorf("%s", r.Error)
	}
	code := types.ErrorCode(r.Code)
	msg := strings.TrimPrefix(r.Error, r.Code+": ")
	return types.NewError(code, msg)
}

// Handler evaluates requests with one Evaluator.
type Handler struct {
	ev *evaluator.Evaluator
}

// NewHandler creates a Handler around ev.
func NewHandler(ev *evaluator.Evaluator) *Handler {
	return &Handler{ev: ev}
}

// Handle evaluates req in a fresh environment. Evaluation errors are reported
// inside the Response, never returned.
func (h *Handler) Handle(ctx context.Context, req Request) Response {
	env := types.NewEnvironment()
	for name, v := range req.Env {
		env.Set(name, types.Number(v))
	}

	value, err := h.ev.EvalSource(ctx, req.Source, env)
	if err != nil {
		return ErrorResponse(err)
	}

	resp := Response{
		Kind:   value.Kind().String(),
		Result: value.String(),
		Env:    numericBindings(env),
	}
	if n, ok := value.(types.Number); ok && finite(float64(n)) {
		f := float64(n)
		resp.Number = &f
	}
	return resp
}

// Handle evaluates req with a new Evaluator configured by opts.
func Handle(ctx context.Context, req Request, opts ...evaluator.EvalOption) Response {
	return NewHandler(evaluator.New(opts...)).Handle(ctx, req)
}

// ErrorResponse builds a failed Response from err.
func ErrorResponse(err error) Response {
	resp := Response{Error: err.Error()}
	var e *types.Error
	if errors.As(err, &e) {
		resp.Code = string(e.Code)
	}
	return resp
}

// ReadRequest decodes one request from r.
func ReadRequest(r io.Reader) (Request, error) {
	var req Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return Request{}, fmt.Errorf("invalid request JSON: %w", err)
	}
	return req, nil
}

// WriteRequest encodes req to w.
func WriteRequest(w io.Writer, req Request) error {
	return json.NewEncoder(w).Encode(req)
}

// ReadResponse decodes one response from r.
func ReadResponse(r io.Reader) (Response, error) {
	var resp Response
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return Response{}, fmt.Errorf("invalid response JSON: %w", err)
	}
	return resp, nil
}

// WriteResponse encodes resp to w.
func WriteResponse(w io.Writer, resp Response) error {
	return json.NewEncoder(w).Encode(resp)
}

func numericBindings(env types.Environment) map[string]float64 {
	out := make(map[string]float64)
	for name, v := range env {
		if n, ok := v.(types.Number); ok && finite(float64(n)) {
			out[name] = float64(n)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
