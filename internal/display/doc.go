// Package display holds the terminal output helpers shared by the CLI
// commands: warnings, the step-by-step progress indicator, and removal of
// terminal escape sequences from captured output.
//
// Colour is opt-in per call so output written to files and reports stays
// plain:
//
//	w := display.Warning{
//	    Title:      "No Open Data Cube configuration found",
//	    Message:    "Instantiating a Datacube may fail.",
//	    Options:    []string{"set DATACUBE_DB_URL", "set DATACUBE_CONFIG_PATH"},
//	    Suggestion: "odc-colab db-url --host db --user odc",
//	}
//	w.Display(os.Stderr, true)
//
// StripANSI removes SGR colour codes, cursor movement and OSC sequences, as
// emitted by IPython tracebacks, while keeping newlines and tabs.
package display
