package protocol

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"

	"github.com/creachadair/jrpc2"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"github.com/walteh/knotls/pkg/debug"
)

// MultiRPCLogger fans request and response logs out to several loggers.
type MultiRPCLogger struct {
	mu      sync.Mutex
	loggers []jrpc2.RPCLogger
}

var _ jrpc2.RPCLogger = (*MultiRPCLogger)(nil)

func (m *MultiRPCLogger) LogRequest(ctx context.Context, req *jrpc2.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, logger := range m.loggers {
		logger.LogRequest(ctx, req)
	}
}

func (m *MultiRPCLogger) LogResponse(ctx context.Context, resp *jrpc2.Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, logger := range m.loggers {
		logger.LogResponse(ctx, resp)
	}
}

func (m *MultiRPCLogger) AddLogger(logger jrpc2.RPCLogger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loggers = append(m.loggers, logger)
}

// ZerologRPCLogger writes one debug record per request and response.
type ZerologRPCLogger struct {
	Logger zerolog.Logger
}

var _ jrpc2.RPCLogger = (*ZerologRPCLogger)(nil)

func (z *ZerologRPCLogger) LogRequest(ctx context.Context, req *jrpc2.Request) {
	z.Logger.Debug().
		Str("rpc_method", req.Method()).
		Str("rpc_id", req.ID()).
		Int("params_bytes", len(req.ParamString())).
		Msg("rpc request")
}

func (z *ZerologRPCLogger) LogResponse(ctx context.Context, resp *jrpc2.Response) {
	evt := z.Logger.Debug()
	if err := resp.Error(); err != nil {
		evt = z.Logger.Warn().Err(err)
	}
	evt.Str("rpc_id", resp.ID()).
		Int("result_bytes", len(resp.ResultString())).
		Msg("rpc response")
}

var myLoggerID = xid.New().String()

// ApplyServerRoleToZerolog tags the context logger as the server side.
func ApplyServerRoleToZerolog(ctx context.Context) context.Context {
	return zerolog.Ctx(ctx).With().
		Str("id", myLoggerID).
		Str("lsp_role", "server").
		Logger().
		WithContext(ctx)
}

// ApplyServerInstanceToZerolog sends the server's logs to the editor
// instead of the local console.
func ApplyServerInstanceToZerolog(ctx context.Context, client Client) context.Context {
	writer := &logWriter{
		client: client,
		ctx:    ctx,
	}

	level := zerolog.Ctx(ctx).GetLevel()

	return zerolog.New(writer).With().
		Str("id", myLoggerID).
		Str("lsp_role", "server").
		Logger().
		Level(level).
		Hook(debug.TimeHook{}).
		Hook(debug.CallerHook{WithColor: false}).
		WithContext(ctx)
}

func ApplyRequestToZerolog(ctx context.Context, req *jrpc2.Request) context.Context {
	return zerolog.Ctx(ctx).With().
		Str("rpc_method", req.Method()).
		Str("rpc_id", req.ID()).
		Logger().
		WithContext(ctx)
}

type logWriter struct {
	client Client
	mu     sync.Mutex
	ctx    context.Context
}

// Write turns one zerolog JSON record into a window/logMessage.
func (w *logWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var entry map[string]any
	if err := json.Unmarshal(p, &entry); err != nil {
		return len(p), nil
	}

	level := ParseMessageTypeFromZerolog(extractField(entry, zerolog.LevelFieldName, "info"))
	msg := extractField(entry, zerolog.MessageFieldName, "")
	delete(entry, "id")
	delete(entry, "lsp_role")
	delete(entry, zerolog.TimestampFieldName)

	params := &LogMessageParams{
		Type:    level,
		Message: formatLogMessage(msg, entry),
	}

	if w.client != nil {
		// a dead connection must not break the caller's logging
		_ = w.client.LogMessage(w.ctx, params)
	}

	return len(p), nil
}

func formatLogMessage(msg string, fields map[string]any) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(msg)
	for _, k := range keys {
		v, err := json.Marshal(fields[k])
		if err != nil {
			continue
		}
		sb.WriteString(" ")
		sb.WriteString(k)
		sb.WriteString("=")
		sb.Write(v)
	}
	return sb.String()
}

func extractField(entry map[string]any, key, defaultValue string) string {
	if v, ok := entry[key].(string); ok {
		delete(entry, key)
		return v
	}
	return defaultValue
}

// ParseMessageTypeFromZerolog converts a zerolog level to an LSP MessageType.
func ParseMessageTypeFromZerolog(level string) MessageType {
	switch level {
	case "fatal", "panic", "error":
		return Error
	case "warn":
		return Warning
	case "info":
		return Info
	case "debug":
		return Debug
	default:
		return Log
	}
}
