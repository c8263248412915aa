package language

import (
	"path"
	"strings"
)

// languageExtensions lists the extensions (without dot, lowercase) for each language.
var languageExtensions = map[string][]string{
	"Go":         {"go"},
	"JavaScript": {"js", "jsx", "mjs", "cjs"},
	"TypeScript": {"ts", "tsx", "mts", "cts"},
	"Python":     {"py", "pyi", "pyw"},
	"Rust":       {"rs"},
	"Java":       {"java"},
	"Kotlin":     {"kt", "kts"},
	"C":          {"c", "h"},
	"C++":        {"cpp", "cc", "cxx", "hpp", "hxx"},
	"C#":         {"cs", "csx"},
	"Swift":      {"swift"},
	"Dart":       {"dart"},
	"Ruby":       {"rb", "erb"},
	"PHP":        {"php"},
	"Scala":      {"scala"},
	"Elixir":     {"ex", "exs"},
	"Lua":        {"lua"},
	"Zig":        {"zig"},
	"Vue":        {"vue"},
	"Svelte":     {"svelte"},
	"Shell":      {"sh", "bash", "zsh", "fish"},
	"HTML":       {"html", "htm"},
	"CSS":        {"css", "scss", "sass", "less"},
	"JSON":       {"json", "jsonc"},
	"YAML":       {"yaml", "yml"},
	"TOML":       {"toml"},
	"XML":        {"xml"},
	"Markdown":   {"md", "mdx"},
	"SQL":        {"sql"},
	"GraphQL":    {"graphql", "gql"},
	"Protobuf":   {"proto"},
	"Terraform":  {"tf", "tfvars"},
	"Text":       {"txt"},
	"CSV":        {"csv"},
}

// sourceLanguages are the languages whose files count as source code for ranking.
var sourceLanguages = map[string]bool{
	"Go": true, "JavaScript": true, "TypeScript": true, "Python": true, "Rust": true,
	"Java": true, "Kotlin": true, "C": true, "C++": true, "C#": true, "Swift": true,
	"Dart": true, "Ruby": true, "PHP": true, "Scala": true, "Elixir": true, "Lua": true,
	"Zig": true, "Vue": true, "Svelte": true,
}

// fenceTags maps languages to markdown code fence tags where they differ from the lowercase name.
var fenceTags = map[string]string{
	"C++": "cpp", "C#": "csharp", "Shell": "bash", "Protobuf": "protobuf", "Terraform": "hcl",
}

var extensionToLanguage = func() map[string]string {
	m := make(map[string]string)
	for lang, exts := range languageExtensions {
		for _, ext := range exts {
			m[ext] = lang
		}
	}
	return m
}()

// Extension returns the lowercase extension of filePath without the dot.
func Extension(filePath string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(filePath), "."))
}

// DetectLanguage returns the language for a slash-separated path based on its extension
// or well-known file name. Returns "Unknown" if nothing matches.
func DetectLanguage(filePath string) string {
	ext := Extension(filePath)
	if ext == "" {
		switch strings.ToLower(path.Base(filePath)) {
		case "makefile", "gnumakefile":
			return "Makefile"
		case "dockerfile":
			return "Dockerfile"
		case "gemfile", "rakefile":
			return "Ruby"
		}
		return "Unknown"
	}
	if lang, ok := extensionToLanguage[ext]; ok {
		return lang
	}
	return "Unknown"
}

// IsSourceFile reports whether the file's extension is on the source-code allow-list.
func IsSourceFile(filePath string) bool {
	return sourceLanguages[DetectLanguage(filePath)]
}

// FenceTag returns the markdown code fence tag for a file, or "" when unknown.
func FenceTag(filePath string) string {
	lang := DetectLanguage(filePath)
	if lang == "Unknown" {
		return ""
	}
	if tag, ok := fenceTags[lang]; ok {
		return tag
	}
	return strings.ToLower(lang)
}
