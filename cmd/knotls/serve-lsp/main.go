package serve_lsp

import (
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/walteh/knotls/pkg/config"
	"github.com/walteh/knotls/pkg/debug"
	"github.com/walteh/knotls/pkg/dialect"
	"github.com/walteh/knotls/pkg/lsp"
	"github.com/walteh/knotls/pkg/lsp/protocol"
	"github.com/walteh/knotls/pkg/semtok"
	"github.com/walteh/knotls/pkg/tokenizer"
)

var (
	ErrNoDialect   = errors.Base("no dialect selected")
	ErrNoTokenizer = errors.Base("no tokenizer command configured")
)

type Handler struct {
	version string

	configPath    string
	dialect       string
	tokenizerCmd  string
	tokenizerArgs []string
	unknownKinds  string
	logLevel      string
	metricsAddr   string
	socket        string
	debug         bool
	logToClient   bool

	fs     afero.Fs
	dir    string
	stdin  io.Reader
	stdout io.WriteCloser
	stderr io.Writer

	// reload delivers SIGHUP; each signal re-reads the config file and swaps
	// the tokenizer
	reload <-chan os.Signal

	newTokenizer func(cfg *config.Config) tokenizer.Tokenizer
}

func NewServeLSPCommand(version string) *cobra.Command {
	me := &Handler{version: version}

	cmd := &cobra.Command{
		Use:   "serve-lsp",
		Short: "start the language server on stdio",
	}

	cmd.Flags().StringVar(&me.configPath, "config", "", "config file, defaults to knotls.yaml|yml|hcl in the working directory")
	cmd.Flags().StringVar(&me.dialect, "dialect", "", "schema dialect: "+dialectNames())
	cmd.Flags().StringVar(&me.tokenizerCmd, "tokenizer-cmd", "", "external tokenizer command")
	cmd.Flags().StringArrayVar(&me.tokenizerArgs, "tokenizer-arg", nil, "argument for the tokenizer command, repeatable")
	cmd.Flags().StringVar(&me.unknownKinds, "unknown-kinds", "", "how to encode token kinds missing from the dialect: default, warn or error")
	cmd.Flags().StringVar(&me.logLevel, "log-level", "", "log level, defaults to info")
	cmd.Flags().StringVar(&me.metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	cmd.Flags().StringVar(&me.socket, "socket", "", "listen on this unix socket instead of stdio, one editor at a time")
	cmd.Flags().BoolVar(&me.debug, "debug", false, "enable debug logging with human readable output")
	cmd.Flags().BoolVar(&me.logToClient, "log-to-client", false, "also send log records to the editor as window/logMessage")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		wd, err := os.Getwd()
		if err != nil {
			return errors.Errorf("getting working directory: %w", err)
		}

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGHUP)
		defer signal.Stop(sig)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		me.fs = afero.NewOsFs()
		me.dir = wd
		me.stdin = os.Stdin
		me.stdout = os.Stdout
		me.stderr = os.Stderr
		me.reload = sig

		return me.Run(ctx)
	}

	return cmd
}

func dialectNames() string {
	return strings.Join(dialect.Names(), ", ")
}

func (me *Handler) overrides() config.Overrides {
	return config.Overrides{
		Dialect:          me.dialect,
		UnknownKinds:     me.unknownKinds,
		LogLevel:         me.logLevel,
		MetricsAddr:      me.metricsAddr,
		TokenizerCommand: me.tokenizerCmd,
		TokenizerArgs:    me.tokenizerArgs,
	}
}

func (me *Handler) loadConfig(explicit string) (*config.Config, string, error) {
	cfg, p, err := config.Discover(me.fs, explicit, me.dir)
	if err != nil {
		return nil, "", errors.Errorf("loading config: %w", err)
	}
	if err := cfg.Override(me.overrides()); err != nil {
		return nil, "", errors.Errorf("applying flags: %w", err)
	}
	return cfg, p, nil
}

func (me *Handler) tokenizerFor(cfg *config.Config) tokenizer.Tokenizer {
	if me.newTokenizer != nil {
		return me.newTokenizer(cfg)
	}
	if tok := cfg.ExecTokenizer(); tok != nil {
		return tok
	}
	return nil
}

// state is what outlives a single editor connection.
type state struct {
	dialect     *dialect.Dialect
	policy      semtok.UnknownKindPolicy
	version     string
	documents   *lsp.DocumentStore
	metrics     *lsp.Metrics
	logger      zerolog.Logger
	logToClient bool

	mu     sync.Mutex
	tok    tokenizer.Tokenizer
	server *lsp.Server
}

// build creates the server for a new connection with the current tokenizer.
func (st *state) build(ctx context.Context) *protocol.ServerInstance {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.server = lsp.NewServer(ctx, st.dialect, st.tok,
		lsp.WithDocuments(st.documents),
		lsp.WithMetrics(st.metrics),
		lsp.WithUnknownKindPolicy(st.policy),
		lsp.WithVersion(st.version),
	)

	instance := st.server.BuildServerInstance(ctx, &jrpc2.ServerOptions{
		RPCLog: &protocol.ZerologRPCLogger{Logger: st.logger},
	})
	if st.logToClient {
		instance.LogToClient()
	}
	return instance
}

// swap installs tok for the connected editor and for later connections.
func (st *state) swap(ctx context.Context, tok tokenizer.Tokenizer) error {
	st.mu.Lock()
	st.tok = tok
	server := st.server
	st.mu.Unlock()

	if server == nil {
		return nil
	}
	return server.SetTokenizer(ctx, tok)
}

func (me *Handler) Run(ctx context.Context) error {
	cfg, cfgPath, err := me.loadConfig(me.configPath)
	if err != nil {
		return err
	}

	level := cfg.Level()
	if me.debug {
		level = zerolog.DebugLevel
	}
	logger := debug.NewLogger(me.stderr, level, me.debug).With().Str("component", "serve-lsp").Logger()
	ctx = logger.WithContext(ctx)

	if cfg.Dialect == "" {
		return errors.Errorf("%w: pass --dialect or set dialect in the config file", ErrNoDialect)
	}
	d, err := dialect.Lookup(cfg.Dialect)
	if err != nil {
		return err
	}

	tok := me.tokenizerFor(cfg)
	if tok == nil {
		return errors.Errorf("%w: pass --tokenizer-cmd or add a tokenizer block to the config file", ErrNoTokenizer)
	}

	documents := lsp.NewDocumentStore()
	st := &state{
		dialect:     d,
		policy:      cfg.UnknownKindPolicy(),
		version:     me.version,
		documents:   documents,
		metrics:     lsp.NewMetrics(documents),
		logger:      logger,
		logToClient: me.logToClient,
		tok:         tok,
	}

	logger.Info().
		Str("dialect", d.LanguageID).
		Str("config", cfgPath).
		Str("socket", me.socket).
		Str("metrics_addr", cfg.MetricsAddr).
		Msg("starting language server")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		if me.socket != "" {
			return me.serveSocket(gctx, st)
		}
		return serveConn(gctx, st, me.stdin, me.stdout)
	})

	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           metricsMux(st.metrics),
			ReadHeaderTimeout: 5 * time.Second,
		}

		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return errors.Errorf("serving metrics on %s: %w", cfg.MetricsAddr, err)
			}
			return nil
		})

		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if me.reload != nil && cfgPath != "" {
		g.Go(func() error {
			me.watchReload(gctx, st, cfgPath)
			return nil
		})
	}

	return g.Wait()
}

// serveConn runs one editor session until exit, EOF or ctx is done.
func serveConn(ctx context.Context, st *state, r io.Reader, w io.WriteCloser) error {
	instance := st.build(ctx)

	stop := context.AfterFunc(ctx, instance.Stop)
	defer stop()

	if err := instance.StartAndWait(r, w); err != nil {
		return errors.Errorf("serving language server: %w", err)
	}
	return nil
}

// serveSocket accepts editors on a unix socket, one at a time. Documents of a
// disconnected editor are forgotten.
func (me *Handler) serveSocket(ctx context.Context, st *state) error {
	logger := zerolog.Ctx(ctx)

	if err := removeStaleSocket(me.socket); err != nil {
		return err
	}

	var lc net.ListenConfig
	lis, err := lc.Listen(ctx, "unix", me.socket)
	if err != nil {
		return errors.Errorf("listening on %s: %w", me.socket, err)
	}
	stop := context.AfterFunc(ctx, func() { _ = lis.Close() })
	defer stop()
	defer lis.Close()

	for {
		conn, err := lis.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return errors.Errorf("accepting on %s: %w", me.socket, err)
		}

		logger.Info().Str("socket", me.socket).Msg("editor connected")

		if err := serveConn(ctx, st, conn, conn); err != nil {
			logger.Warn().Err(err).Msg("editor session failed")
		}

		_ = conn.Close()
		st.documents.CloseAll()

		logger.Info().Str("socket", me.socket).Msg("editor disconnected")
	}
}

// removeStaleSocket deletes a socket file left behind by a killed server. Any
// other kind of file at path is left alone and reported.
func removeStaleSocket(path string) error {
	info, err := os.Lstat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return errors.Errorf("checking %s: %w", path, err)
	}
	if info.Mode()&os.ModeSocket == 0 {
		return errors.Errorf("%s exists and is not a socket", path)
	}
	if err := os.Remove(path); err != nil {
		return errors.Errorf("removing stale socket %s: %w", path, err)
	}
	return nil
}

func metricsMux(metrics *lsp.Metrics) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	return mux
}

// watchReload swaps the tokenizer each time reload fires. A broken config is
// logged and the running tokenizer stays.
func (me *Handler) watchReload(ctx context.Context, st *state, cfgPath string) {
	logger := zerolog.Ctx(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-me.reload:
		}

		cfg, _, err := me.loadConfig(cfgPath)
		if err != nil {
			logger.Warn().Err(err).Str("config", cfgPath).Msg("reload failed, keeping the current tokenizer")
			continue
		}

		tok := me.tokenizerFor(cfg)
		if tok == nil {
			logger.Warn().Str("config", cfgPath).Msg("reloaded config has no tokenizer, keeping the current one")
			continue
		}

		if err := st.swap(ctx, tok); err != nil {
			logger.Warn().Err(err).Msg("tokenizer swapped but the editor refresh failed")
			continue
		}

		logger.Info().Str("config", cfgPath).Msg("tokenizer reloaded")
	}
}
