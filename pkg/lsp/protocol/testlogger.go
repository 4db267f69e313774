package protocol

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/creachadair/jrpc2"
	"github.com/rs/zerolog"
)

// CallbackRPCLogger is implemented by RPC loggers that also want to see
// server to client pushes.
type CallbackRPCLogger interface {
	LogCallbackRequestRaw(ctx context.Context, method string, params any)
	LogCallbackResponse(ctx context.Context, res *jrpc2.Response)
}

func DebugAll() bool {
	return os.Getenv("DEBUG_LSP_ALL") == "1" || os.Getenv("DEBUG") == "1"
}

func DebugIsHuman() bool {
	return os.Getenv("HUMAN") == "1"
}

const maxResultLength = 1000

type rpcTestLogger struct {
	logger        zerolog.TestingLog
	rewrites      map[string]string
	enableRPCLogs bool
	enableBig     bool
	isHuman       bool
}

// NewTestLogger logs RPC traffic to t when DEBUG=1. rewrites replaces
// volatile strings such as temp dirs in the output.
func NewTestLogger(t zerolog.TestingLog, rewrites map[string]string) jrpc2.RPCLogger {
	if rewrites == nil {
		rewrites = map[string]string{}
	}

	lgr := &rpcTestLogger{
		logger:        t,
		rewrites:      rewrites,
		enableRPCLogs: DebugAll(),
		enableBig:     os.Getenv("DEBUG_LSP_BIG_MESSAGES") == "1",
		isHuman:       DebugIsHuman(),
	}

	if !lgr.enableRPCLogs {
		lgr.logger.Logf("FYI: rpc logs are suppressed, set DEBUG=1 to see them")
	}

	return lgr
}

var (
	_ jrpc2.RPCLogger   = (*rpcTestLogger)(nil)
	_ CallbackRPCLogger = (*rpcTestLogger)(nil)
)

type fancyRequest struct {
	ID     string `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params"`
}

type fancyResponse struct {
	ID     string `json:"id"`
	Result any    `json:"result"`
	Error  any    `json:"error"`
}

func (l *rpcTestLogger) LogRequest(ctx context.Context, req *jrpc2.Request) {
	if !l.enableRPCLogs {
		return
	}

	var params any = fmt.Sprintf("suppressed %d chars: set DEBUG_LSP_BIG_MESSAGES=1 to see", len(req.ParamString()))
	if len(req.ParamString()) <= maxResultLength || l.enableBig {
		if err := req.UnmarshalParams(&params); err != nil {
			params = req.ParamString()
		}
	}

	id := req.ID()
	if id == "" {
		id = "notification"
	}

	l.logger.Logf("lsp client request:%s", l.formatJSON(fancyRequest{ID: id, Method: req.Method(), Params: params}))
}

func (l *rpcTestLogger) LogResponse(ctx context.Context, res *jrpc2.Response) {
	l.logResponse("server", res)
}

func (l *rpcTestLogger) LogCallbackResponse(ctx context.Context, res *jrpc2.Response) {
	l.logResponse("client (callback)", res)
}

func (l *rpcTestLogger) logResponse(name string, res *jrpc2.Response) {
	if !l.enableRPCLogs {
		return
	}

	var result any = fmt.Sprintf("suppressed %d chars: set DEBUG_LSP_BIG_MESSAGES=1 to see", len(res.ResultString()))
	if len(res.ResultString()) <= maxResultLength || l.enableBig {
		if err := res.UnmarshalResult(&result); err != nil {
			result = res.ResultString()
		}
	}

	var rerr any
	if e := res.Error(); e != nil {
		rerr = e
	}

	l.logger.Logf("lsp %s response:%s", name, l.formatJSON(fancyResponse{ID: res.ID(), Result: result, Error: rerr}))
}

func (l *rpcTestLogger) LogCallbackRequestRaw(ctx context.Context, method string, params any) {
	if !l.enableRPCLogs {
		return
	}
	l.logger.Logf("lsp server (callback) request:%s", l.formatJSON(fancyRequest{ID: "push", Method: method, Params: params}))
}

func (l *rpcTestLogger) formatJSON(v any) string {
	prefix, suffix := " ", ""
	if l.isHuman {
		prefix, suffix = "\n\n", "\n\n"
	}

	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	if l.isHuman {
		enc.SetIndent("", "\t")
	}
	if err := enc.Encode(v); err != nil {
		return prefix + fmt.Sprintf("%+v", v) + suffix
	}

	str := strings.TrimSpace(buf.String())
	for k, v := range l.rewrites {
		str = strings.ReplaceAll(str, k, v)
	}

	return prefix + str + suffix
}
