package relevance

import (
	"path"
	"regexp"
	"strings"
)

// genericSegments are path segments too common to say anything about a file.
var genericSegments = map[string]bool{
	"src":     true,
	"project": true,
	"root":    true,
}

// extractKeywords derives lowercase keywords from a file path: fragments of the file name
// (extension removed, split on - _ .) and directory segments, all longer than 2 characters.
func extractKeywords(filePath string) map[string]struct{} {
	keywords := make(map[string]struct{})

	base := path.Base(filePath)
	stem := strings.TrimSuffix(base, path.Ext(base))
	fragments := strings.FieldsFunc(stem, func(r rune) bool {
		return r == '-' || r == '_' || r == '.'
	})
	for _, fragment := range fragments {
		if len(fragment) > 2 {
			keywords[strings.ToLower(fragment)] = struct{}{}
		}
	}

	dir := path.Dir(filePath)
	if dir == "." {
		return keywords
	}
	for _, segment := range strings.Split(dir, "/") {
		segment = strings.ToLower(segment)
		if len(segment) > 2 && !genericSegments[segment] {
			keywords[segment] = struct{}{}
		}
	}
	return keywords
}

// Lexical patterns for import and export declarations. This is a best-effort scan over
// raw text, not a parser: unusual syntax is missed and commented-out code still matches.
var (
	// import def, { a, b as c } from 'mod' / import * as ns from 'mod' / import 'mod'
	esImportPattern = regexp.MustCompile(`(?m)^\s*import\s+(?:type\s+)?([^'";]*?)\s*(?:from\s+)?['"]([^'"]+)['"]`)
	// require('mod') / import('mod')
	requirePattern = regexp.MustCompile(`(?:require|import)\s*\(\s*['"]([^'"]+)['"]\s*\)`)
	// from pkg.mod import a, b
	pyFromImportPattern = regexp.MustCompile(`(?m)^[ \t]*from[ \t]+([\w.]+)[ \t]+import[ \t]+(\([^)]*\)|[\w \t,*]+)`)
	// import pkg.mod as alias
	pyImportPattern = regexp.MustCompile(`(?m)^[ \t]*import[ \t]+([\w.]+)(?:[ \t]+as[ \t]+(\w+))?[ \t]*$`)
	// import "path/pkg" and grouped import blocks in Go
	goImportPattern = regexp.MustCompile(`(?m)^[ \t]*(?:import[ \t]+)?(\w+[ \t]+)?"([\w./-]+)"[ \t]*$`)

	// export default function name / export default class Name / export default name
	exportDefaultPattern = regexp.MustCompile(`export\s+default\s+(?:async\s+)?(?:function\*?|class)?\s*(\w+)`)
	// export const|let|var|function|class|interface|type|enum Name
	exportDeclPattern = regexp.MustCompile(`export\s+(?:declare\s+)?(?:abstract\s+)?(?:async\s+)?(?:const|let|var|function\*?|class|interface|type|enum|namespace)\s+(\w+)`)
	// export { a, b as c } (from 'mod')
	exportListPattern = regexp.MustCompile(`export\s+(?:type\s+)?\{([^}]*)\}`)
	// export * as ns from 'mod'
	exportNamespacePattern = regexp.MustCompile(`export\s+\*\s+as\s+(\w+)`)
	// module.exports = name / exports.name =
	commonJSExportPattern = regexp.MustCompile(`(?:module\.exports\s*=\s*(\w+)|exports\.(\w+)\s*=)`)
	// Go exported top-level declarations
	goExportPattern = regexp.MustCompile(`(?m)^(?:func(?:\s+\([^)]*\))?|type|var|const)\s+([A-Z]\w*)`)
	// Python top-level def/class
	pyDefPattern = regexp.MustCompile(`(?m)^(?:async\s+)?(?:def|class)\s+([A-Za-z]\w*)`)

	identifierPattern = regexp.MustCompile(`[A-Za-z_$][\w$]*`)
)

// extractImports collects symbol names and module names referenced by import statements.
func extractImports(lang string, content string) map[string]struct{} {
	imports := make(map[string]struct{})

	for _, m := range esImportPattern.FindAllStringSubmatch(content, -1) {
		addClauseSymbols(imports, m[1])
		addModule(imports, m[2])
	}
	for _, m := range requirePattern.FindAllStringSubmatch(content, -1) {
		addModule(imports, m[1])
	}
	switch lang {
	case "Python":
		for _, m := range pyFromImportPattern.FindAllStringSubmatch(content, -1) {
			addModule(imports, strings.ReplaceAll(m[1], ".", "/"))
			addClauseSymbols(imports, m[2])
		}
		for _, m := range pyImportPattern.FindAllStringSubmatch(content, -1) {
			addModule(imports, strings.ReplaceAll(m[1], ".", "/"))
			addSymbol(imports, m[2])
		}
	case "Go":
		for _, m := range goImportPattern.FindAllStringSubmatch(content, -1) {
			addSymbol(imports, strings.TrimSpace(m[1]))
			addModule(imports, m[2])
		}
	}
	return imports
}

// extractExports collects symbol names declared as exported.
func extractExports(lang string, content string) map[string]struct{} {
	exports := make(map[string]struct{})

	patterns := []*regexp.Regexp{exportDefaultPattern, exportDeclPattern, exportNamespacePattern}
	switch lang {
	case "Go":
		patterns = []*regexp.Regexp{goExportPattern}
	case "Python":
		patterns = []*regexp.Regexp{pyDefPattern}
	}
	for _, pattern := range patterns {
		for _, m := range pattern.FindAllStringSubmatch(content, -1) {
			addSymbol(exports, m[1])
		}
	}
	for _, m := range exportListPattern.FindAllStringSubmatch(content, -1) {
		addClauseSymbols(exports, m[1])
	}
	for _, m := range commonJSExportPattern.FindAllStringSubmatch(content, -1) {
		addSymbol(exports, m[1])
		addSymbol(exports, m[2])
	}
	return exports
}

// addClauseSymbols adds every identifier in an import/export clause such as
// "def, { a, b as c }" or "* as ns". Keywords of the clause itself are skipped.
func addClauseSymbols(set map[string]struct{}, clause string) {
	for _, ident := range identifierPattern.FindAllString(clause, -1) {
		switch ident {
		case "as", "from", "type", "default", "import", "export":
			continue
		}
		addSymbol(set, ident)
	}
}

// addModule adds the last path element of a module specifier, without extension.
func addModule(set map[string]struct{}, specifier string) {
	specifier = strings.TrimSuffix(specifier, "/")
	name := path.Base(specifier)
	name = strings.TrimSuffix(name, path.Ext(name))
	if name == "." || name == ".." || name == "index" {
		name = path.Base(path.Dir(specifier))
	}
	addSymbol(set, name)
}

func addSymbol(set map[string]struct{}, symbol string) {
	symbol = strings.ToLower(strings.TrimSpace(symbol))
	if symbol == "" || symbol == "_" || symbol == "." || symbol == "/" {
		return
	}
	set[symbol] = struct{}{}
}
