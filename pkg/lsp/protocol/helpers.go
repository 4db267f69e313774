package protocol

import (
	"context"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
)

func NonNilSlice[T any](x []T) []T {
	if x == nil {
		return []T{}
	}
	return x
}

func newParseError(err error) *jrpc2.Error {
	return &jrpc2.Error{
		Code:    jrpc2.ParseError,
		Message: err.Error(),
	}
}

func createHandler[T any, O any](method func(ctx context.Context, params *T) (O, error)) handler.Func {
	return func(ctx context.Context, r *jrpc2.Request) (any, error) {
		ctx = ApplyRequestToZerolog(ctx, r)
		var params T
		if err := r.UnmarshalParams(&params); err != nil {
			return nil, newParseError(err)
		}

		result, err := method(ctx, &params)
		if err != nil {
			return nil, err
		}
		return result, nil
	}
}

func createEmptyResultHandler[T any](method func(ctx context.Context, params *T) error) handler.Func {
	return func(ctx context.Context, r *jrpc2.Request) (any, error) {
		ctx = ApplyRequestToZerolog(ctx, r)
		var params T
		if err := r.UnmarshalParams(&params); err != nil {
			return nil, newParseError(err)
		}

		return nil, method(ctx, &params)
	}
}

func createEmptyHandler(method func(ctx context.Context) error) handler.Func {
	return func(ctx context.Context, r *jrpc2.Request) (any, error) {
		ctx = ApplyRequestToZerolog(ctx, r)
		return nil, method(ctx)
	}
}

// Callbacker pushes messages from the server to the editor.
type Callbacker interface {
	Callback(ctx context.Context, method string, params any) (*jrpc2.Response, error)
	Notify(ctx context.Context, method string, params any) error
}

func createEmptyCallback(ctx context.Context, client Callbacker, method string) error {
	_, err := client.Callback(ctx, method, nil)
	return err
}

func createNotify[I any](ctx context.Context, client Callbacker, method string, params *I) error {
	return client.Notify(ctx, method, params)
}

func createClientCall[I any, O any](ctx context.Context, client *jrpc2.Client, method string, params *I, result *O) error {
	res, err := client.Call(ctx, method, params)
	if err != nil {
		return err
	}

	if result != nil {
		return res.UnmarshalResult(result)
	}

	return nil
}

func createClientEmptyCall(ctx context.Context, client *jrpc2.Client, method string) error {
	_, err := client.Call(ctx, method, nil)
	return err
}

func createClientNotify[I any](ctx context.Context, client *jrpc2.Client, method string, params *I) error {
	return client.Notify(ctx, method, params)
}

func createClientEmptyNotify(ctx context.Context, client *jrpc2.Client, method string) error {
	return client.Notify(ctx, method, nil)
}
