package diag

import "github.com/fatih/color"

// Render prints a colorized summary of diags to stdout, one line per
// diagnostic, colored by severity the way cmd/kanso-cli colors its
// pass/fail line. Used by cmd/ilopt, which prints this summary and then
// the optimized IL.
func Render(diags []Diagnostic) {
	if len(diags) == 0 {
		color.Green("no diagnostics")
		return
	}
	for _, d := range diags {
		switch d.Severity {
		case SeverityError:
			color.Red("%s", d.String())
		case SeverityWarn:
			color.Yellow("%s", d.String())
		default:
			color.Cyan("%s", d.String())
		}
	}
}
