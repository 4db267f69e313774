package tokenizer

import (
	"context"
	"encoding/json"
	"io"
	"iter"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const tracerName = "github.com/walteh/knotls/pkg/tokenizer"

var ErrTokenizerFailed = errors.Base("tokenizer failed")

// Exec runs an external command once per Parse call.
//
// The command reads a JSON header line {"options":...,"errorPolicy":...}
// followed by one JSON string per source chunk until EOF, and writes a single
// {"result":{"semanticTokens":[...]}} document to stdout.
type Exec struct {
	Command string
	Args    []string
	Env     []string
	Dir     string

	// Timeout bounds a single call. Zero means only the caller's context applies.
	Timeout time.Duration

	// Tracer defaults to the global otel provider.
	Tracer trace.Tracer
}

var _ Tokenizer = (*Exec)(nil)

func NewExec(command string, args ...string) *Exec {
	return &Exec{Command: command, Args: args}
}

type execHeader struct {
	Options     *ParseOptions `json:"options"`
	ErrorPolicy *ErrorPolicy  `json:"errorPolicy"`
}

func (e *Exec) tracer() trace.Tracer {
	if e.Tracer != nil {
		return e.Tracer
	}
	return otel.Tracer(tracerName)
}

func (e *Exec) Parse(ctx context.Context, source iter.Seq[string], opts *ParseOptions, policy *ErrorPolicy) (_ *ParseResult, err error) {
	ctx, span := e.tracer().Start(ctx, "tokenizer.exec",
		trace.WithAttributes(attribute.String("tokenizer.command", e.Command)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, e.Command, e.Args...)
	cmd.Dir = e.Dir
	cmd.Env = append(os.Environ(), e.Env...)

	stderr := &tailBuffer{max: maxStderr}
	cmd.Stderr = stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.Errorf("getting stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Errorf("getting stdout pipe: %w", err)
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, errors.Errorf("starting tokenizer %q: %w", e.Command, err)
	}

	result := &ParseResult{}

	var grp errgroup.Group
	grp.Go(func() error {
		defer stdin.Close()
		err := writeRequest(stdin, source, opts, policy)
		if errors.Is(err, syscall.EPIPE) || errors.Is(err, os.ErrClosed) {
			// the command is allowed to stop reading early
			return nil
		}
		return err
	})
	grp.Go(func() error {
		if err := json.NewDecoder(stdout).Decode(result); err != nil {
			io.Copy(io.Discard, stdout)
			return errors.Errorf("decoding tokenizer output: %w", err)
		}
		// drain so the child never blocks on a full pipe
		io.Copy(io.Discard, stdout)
		return nil
	})

	ioErr := grp.Wait()
	waitErr := cmd.Wait()

	zerolog.Ctx(ctx).Debug().
		Str("command", e.Command).
		Dur("elapsed", time.Since(start)).
		Int64("stderr_bytes", stderr.total).
		Msg("tokenizer finished")

	if waitErr != nil {
		if ctx.Err() != nil {
			return nil, errors.Errorf("tokenizer %q interrupted: %w", e.Command, ctx.Err())
		}
		return nil, errors.Errorf("%w: %q: %s: %s", ErrTokenizerFailed, e.Command, waitErr, trimStderr(stderr))
	}
	if ioErr != nil {
		return nil, errors.Errorf("%w: %q: %s", ErrTokenizerFailed, e.Command, ioErr)
	}

	span.SetAttributes(attribute.Int("tokenizer.spans", len(result.Result.SemanticTokens)))

	return result, nil
}

func writeRequest(w io.Writer, source iter.Seq[string], opts *ParseOptions, policy *ErrorPolicy) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(&execHeader{Options: opts, ErrorPolicy: policy}); err != nil {
		return errors.Errorf("writing header: %w", err)
	}

	for chunk := range source {
		if err := enc.Encode(chunk); err != nil {
			return errors.Errorf("writing source chunk: %w", err)
		}
	}

	return nil
}

const maxStderr = 2048

// tailBuffer keeps the last max bytes written to it and counts the rest.
type tailBuffer struct {
	max   int
	buf   []byte
	total int64
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	t.total += int64(n)

	if n >= t.max {
		t.buf = append(t.buf[:0], p[n-t.max:]...)
		return n, nil
	}
	if over := len(t.buf) + n - t.max; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	t.buf = append(t.buf, p...)
	return n, nil
}

func (t *tailBuffer) String() string {
	return string(t.buf)
}

func trimStderr(buf *tailBuffer) string {
	s := strings.TrimSpace(buf.String())
	if s == "" {
		return "no stderr output"
	}
	return s
}
