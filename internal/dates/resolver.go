// Package dates turns natural-language due-time phrases into absolute
// UTC instants, anchored to a caller-supplied reference instant in the
// user's timezone.
package dates

import (
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

type Resolver struct {
	loc    *time.Location
	parser *when.Parser
}

// NewResolver builds a resolver for the given IANA timezone name. An
// unknown zone falls back to UTC rather than failing.
func NewResolver(timezone string) *Resolver {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		log.Printf("Unknown timezone %q, falling back to UTC: %v", timezone, err)
		loc = time.UTC
	}

	parser := when.New(nil)
	parser.Add(en.All...)
	parser.Add(common.All...)

	return &Resolver{loc: loc, parser: parser}
}

func (r *Resolver) Location() *time.Location {
	return r.loc
}

// Resolve extracts a due instant from text, relative to ref. The first
// tier lets the parser find a time phrase anywhere in the text; when it
// finds nothing, a fixed list of relative patterns is tried in order.
// The result is UTC at whole-second precision; ok is false when no date
// was found, which is a normal outcome and never an error.
func (r *Resolver) Resolve(text string, ref time.Time) (due time.Time, ok bool) {
	base := ref.In(r.loc)

	res, err := r.parser.Parse(text, base)
	if err != nil {
		// Parser errors degrade to "no date found"
		log.Printf("Date parse error for %q: %v", text, err)
		res = nil
	}
	if res != nil {
		due := res.Time
		// Ambiguous phrases prefer the future: a bare clock time that
		// already passed today means the next occurrence, not this
		// morning's. "today" resolves to the reference instant itself
		// and must not roll.
		if due.Before(base) {
			due = due.Add(24 * time.Hour)
		}
		return due.UTC().Truncate(time.Second), true
	}

	if t, matched := relativeFallback(strings.ToLower(text), base); matched {
		return t.UTC().Truncate(time.Second), true
	}
	return time.Time{}, false
}

type relativePattern struct {
	re    *regexp.Regexp
	unit  time.Duration // zero for named anchors
	fixed time.Duration // offset for named anchors
}

// Tried in order; the first match wins.
var relativePatterns = []relativePattern{
	{re: regexp.MustCompile(`in (\d+) minutes?`), unit: time.Minute},
	{re: regexp.MustCompile(`in (\d+) hours?`), unit: time.Hour},
	{re: regexp.MustCompile(`in (\d+) days?`), unit: 24 * time.Hour},
	{re: regexp.MustCompile(`in (\d+) seconds?`), unit: time.Second},
	{re: regexp.MustCompile(`(\d+) minutes? from now`), unit: time.Minute},
	{re: regexp.MustCompile(`(\d+) hours? from now`), unit: time.Hour},
	{re: regexp.MustCompile(`(\d+) days? from now`), unit: 24 * time.Hour},
	{re: regexp.MustCompile(`(\d+) seconds? from now`), unit: time.Second},
	{re: regexp.MustCompile(`tomorrow`), fixed: 24 * time.Hour},
	{re: regexp.MustCompile(`today`)},
	{re: regexp.MustCompile(`next week`), fixed: 7 * 24 * time.Hour},
	{re: regexp.MustCompile(`next month`), fixed: 30 * 24 * time.Hour},
}

func relativeFallback(text string, base time.Time) (time.Time, bool) {
	for _, p := range relativePatterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if p.unit == 0 {
			return base.Add(p.fixed), true
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return base.Add(time.Duration(n) * p.unit), true
	}
	return time.Time{}, false
}
