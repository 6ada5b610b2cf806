// Package errors provides structured, actionable error messages for chen.
//
// Every failure the route compiler can report has a registered code that maps
// to a short message, a longer explanation and a documentation link. Errors
// carry the offending file when one is known, a fix suggestion, and the
// underlying cause for errors.Is/As.
//
// # Error Categories
//
//   - scan: the pages directory could not be read
//   - routes: the naming convention produced an ambiguous route table
//   - module: virtual module resolution failures
//   - config: chen.json problems
//   - build: bundling failures
//   - dev: development session failures
//   - cli: command line usage problems
//
// # Usage
//
//	err := errors.New("E103").
//	    WithFile("src/pages/blog/_Layout.tsx").
//	    WithSuggestion("Keep a single _layout file per directory")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E103: Duplicate layout
//	//
//	//   src/pages/blog/_Layout.tsx
//	//
//	//   A directory may contain only one _layout file.
//	//
//	//   Hint: Keep a single _layout file per directory
package errors
