// Package config loads the optional knotls.yaml, knotls.yml or knotls.hcl
// file. Command line flags override anything set here.
package config

import (
	"bytes"
	"io"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/walteh/knotls/pkg/dialect"
	"github.com/walteh/knotls/pkg/semtok"
	"github.com/walteh/knotls/pkg/tokenizer"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// FileNames are searched in order by Find.
var FileNames = []string{"knotls.yaml", "knotls.yml", "knotls.hcl"}

type Config struct {
	Dialect      string          `json:"dialect,omitempty" yaml:"dialect,omitempty" hcl:"dialect,optional"`
	Tokenizer    *TokenizerBlock `json:"tokenizer,omitempty" yaml:"tokenizer,omitempty" hcl:"tokenizer,block"`
	UnknownKinds string          `json:"unknown_kinds,omitempty" yaml:"unknown_kinds,omitempty" hcl:"unknown_kinds,optional"`
	LogLevel     string          `json:"log_level,omitempty" yaml:"log_level,omitempty" hcl:"log_level,optional"`
	MetricsAddr  string          `json:"metrics_addr,omitempty" yaml:"metrics_addr,omitempty" hcl:"metrics_addr,optional"`
}

// TokenizerBlock describes the external tokenizer command.
type TokenizerBlock struct {
	Command string            `json:"command" yaml:"command" hcl:"command,attr"`
	Args    []string          `json:"args,omitempty" yaml:"args,omitempty" hcl:"args,optional"`
	Env     map[string]string `json:"env,omitempty" yaml:"env,omitempty" hcl:"env,optional"`
	Dir     string            `json:"dir,omitempty" yaml:"dir,omitempty" hcl:"dir,optional"`
	Timeout string            `json:"timeout,omitempty" yaml:"timeout,omitempty" hcl:"timeout,optional"`
}

var ErrNotFound = errors.Base("no config file found")

// Find returns the first of FileNames present in dir.
func Find(fs afero.Fs, dir string) (string, error) {
	for _, name := range FileNames {
		p := path.Join(dir, name)
		ok, err := afero.Exists(fs, p)
		if err != nil {
			return "", errors.Errorf("checking %s: %w", p, err)
		}
		if ok {
			return p, nil
		}
	}
	return "", errors.Errorf("searching %s: %w", dir, ErrNotFound)
}

// Load reads and validates the config at p. YAML is picked by extension,
// anything else is parsed as HCL with the process environment available as
// env.NAME.
func Load(fs afero.Fs, p string) (*Config, error) {
	data, err := afero.ReadFile(fs, p)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	var cfg Config

	if strings.HasSuffix(p, ".yaml") || strings.HasSuffix(p, ".yml") {
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		// an empty or comment-only file decodes to io.EOF
		if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, errors.Errorf("parsing YAML: %w", err)
		}
	} else {
		parser := hclparse.NewParser()
		hclFile, diags := parser.ParseHCL(data, p)
		if diags.HasErrors() {
			return nil, errors.Errorf("parsing HCL: %s", diags.Error())
		}

		evalCtx := &hcl.EvalContext{
			Variables: map[string]cty.Value{
				"env": environment(),
			},
		}

		diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &cfg)
		if diags.HasErrors() {
			return nil, errors.Errorf("decoding HCL: %s", diags.Error())
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating %s: %w", p, err)
	}

	return &cfg, nil
}

func environment() cty.Value {
	vars := map[string]cty.Value{}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			vars[k] = cty.StringVal(v)
		}
	}
	if len(vars) == 0 {
		return cty.EmptyObjectVal
	}
	return cty.ObjectVal(vars)
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var err error

	if c.Dialect != "" {
		if _, lerr := dialect.Lookup(c.Dialect); lerr != nil {
			err = multierr.Append(err, errors.Errorf("dialect: %w", lerr))
		}
	}

	if _, perr := semtok.ParseUnknownKindPolicy(c.UnknownKinds); perr != nil {
		err = multierr.Append(err, errors.Errorf("unknown_kinds: %w", perr))
	}

	if c.LogLevel != "" {
		if _, lerr := zerolog.ParseLevel(c.LogLevel); lerr != nil {
			err = multierr.Append(err, errors.Errorf("log_level: %w", lerr))
		}
	}

	if c.Tokenizer != nil {
		if strings.TrimSpace(c.Tokenizer.Command) == "" {
			err = multierr.Append(err, errors.New("tokenizer.command: must not be empty"))
		}
		if c.Tokenizer.Timeout != "" {
			d, derr := time.ParseDuration(c.Tokenizer.Timeout)
			if derr != nil {
				err = multierr.Append(err, errors.Errorf("tokenizer.timeout: %w", derr))
			} else if d < 0 {
				err = multierr.Append(err, errors.Errorf("tokenizer.timeout: %s is negative", d))
			}
		}
	}

	return err
}

// UnknownKindPolicy returns the configured policy, warn when unset.
func (c *Config) UnknownKindPolicy() semtok.UnknownKindPolicy {
	p, err := semtok.ParseUnknownKindPolicy(c.UnknownKinds)
	if err != nil {
		return semtok.UnknownKindWarn
	}
	return p
}

// Level returns the configured log level, info when unset.
func (c *Config) Level() zerolog.Level {
	if c.LogLevel == "" {
		return zerolog.InfoLevel
	}
	l, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return l
}

// ExecTokenizer builds the external tokenizer, nil when none is configured.
func (c *Config) ExecTokenizer() *tokenizer.Exec {
	if c.Tokenizer == nil || c.Tokenizer.Command == "" {
		return nil
	}

	tok := tokenizer.NewExec(c.Tokenizer.Command, c.Tokenizer.Args...)
	tok.Dir = c.Tokenizer.Dir

	keys := make([]string, 0, len(c.Tokenizer.Env))
	for k := range c.Tokenizer.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		tok.Env = append(tok.Env, k+"="+c.Tokenizer.Env[k])
	}

	if c.Tokenizer.Timeout != "" {
		if d, err := time.ParseDuration(c.Tokenizer.Timeout); err == nil {
			tok.Timeout = d
		}
	}

	return tok
}

// Discover loads explicit when set, otherwise the first of FileNames in dir.
// Finding nothing in dir is not an error: the result is an empty Config and
// an empty path.
func Discover(fs afero.Fs, explicit, dir string) (*Config, string, error) {
	p := explicit
	if p == "" {
		found, err := Find(fs, dir)
		if errors.Is(err, ErrNotFound) {
			return &Config{}, "", nil
		}
		if err != nil {
			return nil, "", err
		}
		p = found
	}

	cfg, err := Load(fs, p)
	if err != nil {
		return nil, "", err
	}
	return cfg, p, nil
}

// Overrides carries command line flags. Empty fields leave the file value
// alone.
type Overrides struct {
	Dialect          string
	UnknownKinds     string
	LogLevel         string
	MetricsAddr      string
	TokenizerCommand string
	TokenizerArgs    []string
}

// Override applies o on top of c and validates the result.
func (c *Config) Override(o Overrides) error {
	if o.Dialect != "" {
		c.Dialect = o.Dialect
	}
	if o.UnknownKinds != "" {
		c.UnknownKinds = o.UnknownKinds
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	if o.MetricsAddr != "" {
		c.MetricsAddr = o.MetricsAddr
	}

	if o.TokenizerCommand != "" {
		// a command from the flags does not inherit args meant for another one
		if c.Tokenizer == nil || c.Tokenizer.Command != o.TokenizerCommand {
			c.Tokenizer = &TokenizerBlock{}
		}
		c.Tokenizer.Command = o.TokenizerCommand
	}
	if len(o.TokenizerArgs) > 0 {
		if c.Tokenizer == nil {
			return errors.New("tokenizer args given without a tokenizer command")
		}
		c.Tokenizer.Args = o.TokenizerArgs
	}

	return c.Validate()
}
