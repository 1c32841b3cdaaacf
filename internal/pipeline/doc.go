// Package pipeline turns Markdown into the HTML handed to a print engine.
//
// The stages are:
//   - Markdown normalization (line endings, surrounding whitespace)
//   - Markdown to an .md-body HTML fragment via Goldmark
//   - Document inspection with goquery (title, relative paths)
//   - Extra stylesheet injection
//
// Printing itself belongs to the root package's print engine.
package pipeline
