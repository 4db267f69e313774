package dialect

import "github.com/walteh/knotls/pkg/tokenizer"

var knottaTokenTypes = []string{
	"string",
	"keyword",
	"type",
	"decorator",
	"property",
	"operator",
}

var knottaTokenModifiers = []string{"declaration"}

var knottaKinds = map[string]kind{
	"import":         plain("keyword"),
	"string":         plain("string"),
	"type":           plain("keyword"),
	"type-name":      withDeclaration("type"),
	"type-decorator": plain("decorator"),
	"prop-name":      withDeclaration("property"),
	"prop-optional":  plain("operator"),
	"prop-type-name": plain("type"),
	"prop-ref":       plain("property"),
	"prop-decorator": plain("decorator"),
}

// Knotta asks the tokenizer for base-model and type extraction only.
var Knotta = register(mustBuild(definition{
	languageID:     "knotta",
	tokenTypes:     knottaTokenTypes,
	tokenModifiers: knottaTokenModifiers,
	kinds:          knottaKinds,
	parseOptions: tokenizer.ParseOptions{
		EnableAst: false,
		Ast: tokenizer.AstOptions{
			BaseModels: []string{},
			Types:      []string{},
		},
		EnableSemanticTokens: true,
		SemanticTokens:       []string{},
	},
}))
