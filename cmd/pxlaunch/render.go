// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/pathxcite/pxlaunch/internal/app/launch"
	"github.com/pathxcite/pxlaunch/internal/provision"
)

// renderVerification prints one line per probed module. Nothing is printed
// when no probe ran.
func renderVerification(w io.Writer, r provision.VerificationResult) {
	if len(r.Probed) == 0 {
		return
	}
	fmt.Fprintln(w, TitleStyle.Render("Verification"))
	for _, m := range r.Probed {
		res := r.Results[m]
		if res.OK {
			fmt.Fprintf(w, "  %s %s\n", SuccessStyle.Render("✓"), m)
			continue
		}
		fmt.Fprintf(w, "  %s %s %s\n", ErrorStyle.Render("✗"), m, VerboseStyle.Render(res.Error))
	}
	ok, failed := probeCounts(r)
	summary := fmt.Sprintf("%d passed, %d failed", ok, failed)
	if failed == 0 {
		summary = SuccessStyle.Render(summary)
	} else {
		summary = WarningStyle.Render(summary)
	}
	fmt.Fprintf(w, "\n  %s\n", summary)
}

// renderPlan prints what a run would do without doing any of it.
func renderPlan(w io.Writer, p launch.Plan) {
	fmt.Fprintln(w, TitleStyle.Render("Plan"))
	fmt.Fprintln(w)

	field := func(label, value string) {
		fmt.Fprintf(w, "  %s %s\n", VerboseHighlightStyle.Render(label+":"), value)
	}
	field("Platform", p.Platform.String())
	field("Python", p.Version.String())
	field("Installer", p.ArtifactURL)
	field("Base runtime", p.BaseDir+" "+presence(p.BaseInstalled, "installed", "missing"))
	field("Environment", p.EnvDir+" "+presence(p.EnvPresent, "present", "missing"))
	field("Manifest", p.Manifest+" "+presence(p.ManifestPresent, "present", "missing"))
	if p.ShebangTooLong {
		fmt.Fprintf(w, "  %s the environment path is longer than the shebang limit; console scripts may fail to start\n",
			WarningStyle.Render("Warning:"))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, VerboseHighlightStyle.Render("  Probed modules:"))
	fmt.Fprintf(w, "    %s\n", strings.Join(p.ProbeModules, ", "))

	fmt.Fprintln(w)
	fmt.Fprintln(w, VerboseHighlightStyle.Render("  Steps:"))
	for i, s := range p.Steps {
		var attrs []string
		if s.Required {
			attrs = append(attrs, "required")
		} else {
			attrs = append(attrs, "optional")
		}
		if s.Handoff {
			attrs = append(attrs, "handoff")
		}
		fmt.Fprintf(w, "    %d. %s %s (%s) %s\n", i+1, CmdStyle.Render(s.Tag), s.Script,
			strings.Join(attrs, ", "), presence(s.Present, "present", "missing"))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, VerboseHighlightStyle.Render("  Commands on a fresh machine:"))
	for _, c := range p.Commands {
		fmt.Fprintf(w, "    $ %s\n", c)
	}
	fmt.Fprintln(w)
}

func presence(ok bool, yes, no string) string {
	if ok {
		return SuccessStyle.Render("(" + yes + ")")
	}
	return SubtitleStyle.Render("(" + no + ")")
}
