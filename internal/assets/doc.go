// Package assets provides the stylesheets and the HTML page template used
// to print Markdown documents.
//
// # Loader Architecture
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - loads from go:embed filesystem (built-in assets)
//	    ├── FilesystemLoader  - loads from a custom directory on disk
//	    └── AssetResolver     - custom first, embedded as fallback
//
// A custom directory only needs the files it overrides:
//
//	{basePath}/
//	├── styles/
//	│   ├── print.css      # full-page print stylesheet
//	│   └── preview.css    # fragment-only preview stylesheet
//	└── templates/
//	    └── document.html  # html/template with .Title, .Style, .Body
//
// # Security
//
// Asset names are validated to prevent path traversal. FilesystemLoader
// resolves symlinks and verifies paths stay within basePath.
package assets
