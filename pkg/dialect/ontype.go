package dialect

import (
	"maps"

	"github.com/walteh/knotls/pkg/tokenizer"
)

func ontypeKinds() map[string]kind {
	kinds := maps.Clone(knottaKinds)
	kinds["enum"] = plain("keyword")
	kinds["enum-name"] = withDeclaration("enum")
	kinds["enum-member"] = withDeclaration("enumMember")
	kinds["enum-member-value"] = plain("number")
	kinds["number"] = plain("number")
	return kinds
}

// Ontype extends knotta with enums and numeric literals.
var Ontype = register(mustBuild(definition{
	languageID:     "ontype",
	tokenTypes:     extend(knottaTokenTypes, "enum", "enumMember", "number"),
	tokenModifiers: knottaTokenModifiers,
	kinds:          ontypeKinds(),
	parseOptions: tokenizer.ParseOptions{
		EnableAst: false,
		Ast: tokenizer.AstOptions{
			BaseModels: []string{},
			Types:      []string{},
			Enums:      []string{},
		},
		EnableSemanticTokens: true,
		SemanticTokens:       []string{},
	},
}))
