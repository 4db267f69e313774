package get_tokens

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/knotls/pkg/config"
	"github.com/walteh/knotls/pkg/debug"
	"github.com/walteh/knotls/pkg/dialect"
	"github.com/walteh/knotls/pkg/lsp"
	"github.com/walteh/knotls/pkg/lsp/protocol"
	"github.com/walteh/knotls/pkg/semtok"
	"github.com/walteh/knotls/pkg/tokenizer"
)

var ErrNoMatches = errors.Base("pattern matched no files")

type Handler struct {
	configPath    string
	dialect       string
	tokenizerCmd  string
	tokenizerArgs []string
	unknownKinds  string
	raw           bool
	debug         bool

	fs     afero.Fs
	dir    string
	out    io.Writer
	stderr io.Writer

	newTokenizer func(cfg *config.Config) tokenizer.Tokenizer
}

func NewGetTokensCommand() *cobra.Command {
	me := &Handler{}

	cmd := &cobra.Command{
		Use:   "get-tokens [glob]...",
		Short: "print the semantic tokens the language server would send for each matching file",
	}

	cmd.Flags().StringVar(&me.configPath, "config", "", "config file, defaults to knotls.yaml|yml|hcl in the working directory")
	cmd.Flags().StringVar(&me.dialect, "dialect", "", "schema dialect, defaults to the file extension")
	cmd.Flags().StringVar(&me.tokenizerCmd, "tokenizer-cmd", "", "external tokenizer command")
	cmd.Flags().StringArrayVar(&me.tokenizerArgs, "tokenizer-arg", nil, "argument for the tokenizer command, repeatable")
	cmd.Flags().StringVar(&me.unknownKinds, "unknown-kinds", "", "how to encode token kinds missing from the dialect: default, warn or error")
	cmd.Flags().BoolVar(&me.raw, "raw", false, "print the encoded integer array as JSON instead of decoded tokens")
	cmd.Flags().BoolVar(&me.debug, "debug", false, "enable debug logging")

	cmd.Args = cobra.MinimumNArgs(1)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		wd, err := os.Getwd()
		if err != nil {
			return errors.Errorf("getting working directory: %w", err)
		}
		me.fs = afero.NewOsFs()
		me.dir = wd
		me.out = cmd.OutOrStdout()
		me.stderr = cmd.ErrOrStderr()
		return me.Run(cmd.Context(), args)
	}

	return cmd
}

// rawOutput is one line of --raw output.
type rawOutput struct {
	Path     string   `json:"path"`
	Dialect  string   `json:"dialect"`
	ResultID string   `json:"resultId,omitempty"`
	Data     []uint32 `json:"data"`
}

func (me *Handler) Run(ctx context.Context, patterns []string) error {
	level := zerolog.WarnLevel
	if me.debug {
		level = zerolog.DebugLevel
	}
	ctx = debug.NewLogger(me.stderr, level, true).WithContext(ctx)

	cfg, _, err := config.Discover(me.fs, me.configPath, me.dir)
	if err != nil {
		return errors.Errorf("loading config: %w", err)
	}
	err = cfg.Override(config.Overrides{
		Dialect:          me.dialect,
		UnknownKinds:     me.unknownKinds,
		TokenizerCommand: me.tokenizerCmd,
		TokenizerArgs:    me.tokenizerArgs,
	})
	if err != nil {
		return errors.Errorf("applying flags: %w", err)
	}

	tok := me.tokenizerFor(cfg)
	if tok == nil {
		return errors.New("no tokenizer configured: pass --tokenizer-cmd or add a tokenizer block to the config file")
	}

	files, err := me.expand(patterns)
	if err != nil {
		return err
	}

	servers := map[string]*lsp.Server{}

	for _, file := range files {
		d, err := me.dialectFor(cfg, file)
		if err != nil {
			return err
		}

		server, ok := servers[d.LanguageID]
		if !ok {
			server = lsp.NewServer(ctx, d, tok, lsp.WithUnknownKindPolicy(cfg.UnknownKindPolicy()))
			servers[d.LanguageID] = server
		}

		res, err := me.tokens(ctx, server, file, d.LanguageID)
		if err != nil {
			return err
		}

		if err := me.print(file, d, res); err != nil {
			return err
		}
	}

	return nil
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

// expand resolves every pattern against the working directory and returns
// the matches sorted and deduplicated.
func (me *Handler) expand(patterns []string) ([]string, error) {
	var files []string

	for _, pattern := range patterns {
		full := filepath.ToSlash(pattern)
		if !path.IsAbs(full) {
			full = path.Join(filepath.ToSlash(me.dir), full)
		}

		base, rel := doublestar.SplitPattern(full)
		matches, err := doublestar.Glob(afero.NewIOFS(afero.NewBasePathFs(me.fs, base)), rel, doublestar.WithFilesOnly())
		if err != nil {
			return nil, errors.Errorf("expanding %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, errors.Errorf("%w: %s", ErrNoMatches, pattern)
		}

		for _, m := range matches {
			files = append(files, path.Join(base, m))
		}
	}

	slices.Sort(files)
	return slices.Compact(files), nil
}

func (me *Handler) dialectFor(cfg *config.Config, file string) (*dialect.Dialect, error) {
	name := cfg.Dialect
	if name == "" {
		name = strings.TrimPrefix(path.Ext(file), ".")
	}
	d, err := dialect.Lookup(name)
	if err != nil {
		return nil, errors.Errorf("choosing dialect for %s: %w", file, err)
	}
	return d, nil
}

// tokens drives the same open and request sequence an editor would.
func (me *Handler) tokens(ctx context.Context, server protocol.Server, file, languageID string) (*protocol.SemanticTokens, error) {
	text, err := afero.ReadFile(me.fs, file)
	if err != nil {
		return nil, errors.Errorf("reading %s: %w", file, err)
	}

	uri := protocol.DocumentURI("file://" + file)

	err = server.DidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, LanguageID: languageID, Version: 1, Text: string(text)},
	})
	if err != nil {
		return nil, errors.Errorf("opening %s: %w", file, err)
	}
	defer func() {
		_ = server.DidClose(ctx, &protocol.DidCloseTextDocumentParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		})
	}()

	res, err := server.SemanticTokensFull(ctx, &protocol.SemanticTokensParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	})
	if err != nil {
		return nil, errors.Errorf("getting tokens for %s: %w", file, err)
	}
	return res, nil
}

func (me *Handler) print(file string, d *dialect.Dialect, res *protocol.SemanticTokens) error {
	name := me.display(file)

	if me.raw {
		line, err := json.Marshal(rawOutput{Path: name, Dialect: d.LanguageID, ResultID: res.ResultID, Data: res.Data})
		if err != nil {
			return errors.Errorf("encoding output for %s: %w", file, err)
		}
		_, err = fmt.Fprintln(me.out, string(line))
		return err
	}

	toks, err := semtok.Decode(res.Data)
	if err != nil {
		return errors.Errorf("decoding tokens for %s: %w", file, err)
	}

	header := color.New(color.Bold)
	kind := color.New(color.FgCyan)

	if _, err := header.Fprintf(me.out, "%s (%s, %d tokens)\n", name, d.LanguageID, len(toks)); err != nil {
		return err
	}
	for _, tok := range toks {
		mods := ""
		if names := tok.ModifierNames(d.Legend); len(names) > 0 {
			mods = " [" + strings.Join(names, ",") + "]"
		}
		_, err := fmt.Fprintf(me.out, "  %d:%d+%d %s%s\n", tok.Line+1, tok.InlineIndex+1, tok.Length, kind.Sprint(tok.TypeName(d.Legend)), mods)
		if err != nil {
			return err
		}
	}
	return nil
}

func (me *Handler) display(file string) string {
	if rel, err := filepath.Rel(me.dir, file); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return file
}
