package main

import (
	"fmt"
	"io"

	"github.com/learnnova/coursematch/internal/config"
	"github.com/learnnova/coursematch/internal/recommend"
	"github.com/learnnova/coursematch/internal/storage"
)

const (
	ansiReset = "\033[0m"
	ansiRed   = "\033[31m"
	ansiGreen = "\033[32m"
	ansiDim   = "\033[2m"
	ansiBold  = "\033[1m"
)

// reporter writes the human-readable progress and status lines of the
// management commands. Machine-readable output (recommendations) never goes
// through it.
type reporter struct {
	w     io.Writer
	color bool
}

func newReporter(w io.Writer) reporter {
	return reporter{w: w, color: !noColor}
}

func (r reporter) paint(code, text string) string {
	if !r.color {
		return text
	}
	return code + text + ansiReset
}

func (r reporter) done(format string, args ...any) {
	fmt.Fprintln(r.w, r.paint(ansiGreen, "✓ "+fmt.Sprintf(format, args...)))
}

func (r reporter) fail(format string, args ...any) {
	fmt.Fprintln(r.w, r.paint(ansiRed, "✗ "+fmt.Sprintf(format, args...)))
}

func (r reporter) field(label, format string, args ...any) {
	fmt.Fprintf(r.w, "  %-11s %s\n", r.paint(ansiBold, label+":"), fmt.Sprintf(format, args...))
}

func (r reporter) catalog(s recommend.Stats) {
	r.field("Catalog", "%d usable courses, %d users", s.KeptItems, s.Users)
	r.field("Vocabulary", "%d terms", s.VocabularySize)
}

func (r reporter) stored(c storage.Counts) {
	r.field("Stored", "%d courses, %d users, %d feedback entries", c.Courses, c.Users, c.Feedback)
}

func (r reporter) imported(res storage.ImportResult, dataDir string) {
	if res.GeneratedIDs > 0 {
		r.field("Generated", "%d course ids for items without one", res.GeneratedIDs)
	}
	r.done("Imported %d courses, %d users, %d feedback entries into %s", res.Courses, res.Users, res.Feedback, dataDir)
}

func (r reporter) settings(list []config.Setting) {
	for _, s := range list {
		origin := string(s.Origin)
		if s.Origin == config.OriginEnv {
			origin = s.EnvVar
		}
		fmt.Fprintf(r.w, "  %s = %s %s\n", r.paint(ansiBold, s.Key), s.Value, r.paint(ansiDim, "("+origin+")"))
	}
}
