package dialects

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/walteh/knotls/pkg/dialect"
)

type Handler struct {
	kinds  bool
	format string // text, json, yaml

	out io.Writer
}

func NewDialectsCommand() *cobra.Command {
	me := &Handler{}

	cmd := &cobra.Command{
		Use:   "dialects",
		Short: "list the built-in dialects and their semantic token legends",
	}

	cmd.Flags().BoolVar(&me.kinds, "kinds", false, "also list how each tokenizer kind is classified")
	cmd.Flags().StringVar(&me.format, "format", "text", "output format: text, json or yaml")
	cmd.Args = cobra.NoArgs

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		me.out = cmd.OutOrStdout()
		return me.Run(cmd.Context())
	}

	return cmd
}

type kindInfo struct {
	Kind      string   `json:"kind" yaml:"kind"`
	Type      string   `json:"type" yaml:"type"`
	Modifiers []string `json:"modifiers,omitempty" yaml:"modifiers,omitempty"`
}

type dialectInfo struct {
	Name           string     `json:"name" yaml:"name"`
	TokenTypes     []string   `json:"tokenTypes" yaml:"tokenTypes"`
	TokenModifiers []string   `json:"tokenModifiers" yaml:"tokenModifiers"`
	Kinds          []kindInfo `json:"kinds,omitempty" yaml:"kinds,omitempty"`
}

func (me *Handler) describe() ([]dialectInfo, error) {
	var out []dialectInfo

	for _, name := range dialect.Names() {
		d, err := dialect.Lookup(name)
		if err != nil {
			return nil, err
		}

		info := dialectInfo{
			Name:           d.LanguageID,
			TokenTypes:     d.Legend.TokenTypes(),
			TokenModifiers: d.Legend.TokenModifiers(),
		}

		if me.kinds {
			for _, kind := range d.Kinds.Kinds() {
				class, _ := d.Kinds.Lookup(kind)
				types := d.Legend.TokenTypes()
				var mods []string
				for i, m := range d.Legend.TokenModifiers() {
					if class.Modifiers&(1<<uint32(i)) != 0 {
						mods = append(mods, m)
					}
				}
				info.Kinds = append(info.Kinds, kindInfo{Kind: kind, Type: types[class.Type], Modifiers: mods})
			}
		}

		out = append(out, info)
	}

	return out, nil
}

func (me *Handler) Run(ctx context.Context) error {
	infos, err := me.describe()
	if err != nil {
		return err
	}

	switch me.format {
	case "json":
		enc := json.NewEncoder(me.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(infos); err != nil {
			return errors.Errorf("encoding json: %w", err)
		}
		return nil
	case "yaml":
		enc := yaml.NewEncoder(me.out)
		enc.SetIndent(2)
		if err := enc.Encode(infos); err != nil {
			return errors.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	case "text", "":
	default:
		return errors.Errorf("unknown format %q, want text, json or yaml", me.format)
	}

	for _, info := range infos {
		fmt.Fprintf(me.out, "%s\n", info.Name)
		fmt.Fprintf(me.out, "  types:     %s\n", strings.Join(info.TokenTypes, ", "))
		fmt.Fprintf(me.out, "  modifiers: %s\n", strings.Join(info.TokenModifiers, ", "))
		for _, k := range info.Kinds {
			line := fmt.Sprintf("  %-18s -> %s", k.Kind, k.Type)
			if len(k.Modifiers) > 0 {
				line += " [" + strings.Join(k.Modifiers, ",") + "]"
			}
			fmt.Fprintln(me.out, line)
		}
	}

	return nil
}
