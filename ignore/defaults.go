package ignore

// SkippedDirs are directory names never descended into. Matching is by path segment,
// case-insensitive.
var SkippedDirs = []string{
	".git", ".svn", ".hg",
	"node_modules", "vendor", "bower_components", ".npm", ".yarn",
	"dist", "build", "out", "target", "bin", "obj",
	".idea", ".vscode", ".vs",
	"__pycache__", ".venv", "venv", ".tox", ".mypy_cache", ".pytest_cache",
	"coverage", ".nyc_output", "htmlcov",
	".cache", ".parcel-cache", ".next", ".nuxt", ".turbo", ".terraform",
}

// SkippedFilePatterns are doublestar patterns matched against the base name of a file.
// None of these carry useful context for a model.
var SkippedFilePatterns = []string{
	// editor and OS noise
	"*.swp", "*.swo", "*~", ".DS_Store", "Thumbs.db", "desktop.ini",

	// compiled output and archives
	"*.{exe,dll,so,dylib,o,a,lib,class,jar,war,pyc,pyo}",
	"*.{zip,tar,gz,tgz,rar,7z}",

	// media, fonts and office documents
	"*.{png,jpg,jpeg,gif,bmp,ico,webp,tiff,svgz}",
	"*.{woff,woff2,ttf,eot,otf}",
	"*.{mp3,mp4,avi,mov,wav,flac}",
	"*.{pdf,doc,docx,xls,xlsx,ppt,pptx}",

	// generated text that crowds out real sources
	"*.min.{js,css}", "*.map",
	"package-lock.json", "yarn.lock", "pnpm-lock.yaml", "Gemfile.lock",
	"poetry.lock", "Cargo.lock", "go.sum", "composer.lock",

	// runtime artifacts
	"*.log", "*.{sqlite,sqlite3,db}", ".env", ".env.*",
}

// RuleFiles are the gitignore-syntax files read from the project root, in precedence order.
var RuleFiles = []string{".gitignore", ".contextignore"}
