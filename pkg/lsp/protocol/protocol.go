// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package protocol

import (
	"context"
	"io"
	"sync"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"
	"github.com/creachadair/jrpc2/handler"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// CallbackClient pushes notifications and requests to the editor over the
// server's own connection.
type CallbackClient struct {
	serverOpts *jrpc2.ServerOptions
	server     *jrpc2.Server
}

func NewCallbackClient(server *jrpc2.Server, serverOpts *jrpc2.ServerOptions) *CallbackClient {
	return &CallbackClient{server: server, serverOpts: serverOpts}
}

func (c *CallbackClient) Notify(ctx context.Context, method string, params any) error {
	if rl, ok := c.serverOpts.RPCLog.(CallbackRPCLogger); ok {
		rl.LogCallbackRequestRaw(ctx, method, params)
	}
	return c.server.Notify(ctx, method, params)
}

func (c *CallbackClient) Callback(ctx context.Context, method string, params any) (*jrpc2.Response, error) {
	if rl, ok := c.serverOpts.RPCLog.(CallbackRPCLogger); ok {
		rl.LogCallbackRequestRaw(ctx, method, params)
	}

	res, err := c.server.Callback(ctx, method, params)
	if err != nil {
		return nil, err
	}

	if rl, ok := c.serverOpts.RPCLog.(CallbackRPCLogger); ok {
		rl.LogCallbackResponse(ctx, res)
	}

	return res, nil
}

// ServerInstance is one language server bound to one connection. The exit
// notification stops it.
type ServerInstance struct {
	ctx    context.Context
	server *jrpc2.Server
	client *CallbackClient
	rpcLog *MultiRPCLogger

	mu          sync.Mutex
	logToClient bool
	stopOnce    sync.Once
}

func NewServerInstance(ctx context.Context, server Server, opts *jrpc2.ServerOptions) *ServerInstance {
	if opts == nil {
		opts = &jrpc2.ServerOptions{}
	}

	inst := &ServerInstance{ctx: ctx, rpcLog: &MultiRPCLogger{}}

	if opts.RPCLog != nil {
		inst.rpcLog.AddLogger(opts.RPCLog)
	}
	opts.RPCLog = inst.rpcLog
	opts.AllowPush = true
	opts.NewContext = inst.newContext

	methods := buildServerDispatchMap(server)
	exit := methods["exit"]
	methods["exit"] = handler.Func(func(ctx context.Context, r *jrpc2.Request) (any, error) {
		res, err := exit(ctx, r)
		// stopping from inside a handler would wait on ourselves
		go inst.Stop()
		return res, err
	})

	inst.server = jrpc2.NewServer(methods, opts)
	inst.client = NewCallbackClient(inst.server, opts)

	return inst
}

// LogToClient forwards every log record of request contexts to the editor as
// window/logMessage. Call it before starting the instance.
func (s *ServerInstance) LogToClient() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logToClient = true
}

func (s *ServerInstance) newContext() context.Context {
	s.mu.Lock()
	forward := s.logToClient
	s.mu.Unlock()

	if forward {
		return ApplyServerInstanceToZerolog(s.ctx, s.client)
	}
	return ApplyServerRoleToZerolog(s.ctx)
}

func (s *ServerInstance) Client() *CallbackClient {
	return s.client
}

// SetRPCTracker records every request and response on tracker.
func (s *ServerInstance) SetRPCTracker(tracker *RPCTracker) {
	s.rpcLog.AddLogger(tracker)
}

func (s *ServerInstance) Start(ch channel.Channel) {
	zerolog.Ctx(s.ctx).Debug().Msg("starting language server")
	s.server.Start(ch)
}

// StartAndWait serves LSP framed messages on r and w until exit or EOF.
func (s *ServerInstance) StartAndWait(r io.Reader, w io.WriteCloser) error {
	s.Start(channel.LSP(r, w))
	return s.Wait()
}

func (s *ServerInstance) Wait() error {
	err := s.server.Wait()
	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) || channel.IsErrClosing(err) {
		return nil
	}
	return err
}

func (s *ServerInstance) Stop() {
	s.stopOnce.Do(func() {
		zerolog.Ctx(s.ctx).Debug().Msg("stopping language server")
		s.server.Stop()
	})
}
