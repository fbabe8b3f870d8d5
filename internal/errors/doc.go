// Package errors provides structured, coded errors for realdom.
//
// Every error raised while building an engine or loading its configuration
// carries a unique code (e.g., "E001") that maps to:
//   - A category (construction, config, cli, runtime)
//   - A short message describing the error
//   - A detailed explanation
//
// # Usage
//
//	err := errors.New("E001").
//	    WithDetail("layout -> style -> layout").
//	    WithSuggestion("Drop one of the declared dependencies").
//	    Wrap(schedule.ErrCycle)
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E001: Dependency cycle between states
//	//
//	//   layout -> style -> layout
//	//
//	//   Hint: Drop one of the declared dependencies
//
// Errors wrap their cause, so errors.Is and errors.As see through them.
package errors
