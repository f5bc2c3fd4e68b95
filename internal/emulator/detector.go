package emulator

import (
	"context"
	"fmt"
	"path"

	"github.com/fluttercommunity/android-id/internal/device"
	"github.com/fluttercommunity/android-id/internal/shell"
)

// DefaultFileRoot is where relative probe files live on a device.
const DefaultFileRoot = "/"

// Match is a signature that fired for the current device.
type Match struct {
	Platform Platform `json:"platform" toml:"platform"`
	Reason   string   `json:"reason" toml:"reason"`
}

// Report is the full outcome of a detection run.
type Report struct {
	Emulator bool               `json:"emulator" toml:"emulator"`
	Matches  []Match            `json:"matches,omitempty" toml:"matches,omitempty"`
	Device   *device.Properties `json:"device,omitempty" toml:"device,omitempty"`
}

// Platforms returns the distinct platforms among the matches, in first-seen order.
func (r *Report) Platforms() []Platform {
	seen := make(map[Platform]bool)
	var out []Platform
	for _, m := range r.Matches {
		if !seen[m.Platform] {
			seen[m.Platform] = true
			out = append(out, m.Platform)
		}
	}
	return out
}

// Classify evaluates the property signatures. It is a pure function of p.
func Classify(p *device.Properties) []Match {
	if p == nil {
		return nil
	}
	var matches []Match
	for _, r := range propertyRules {
		if r.matches(p) {
			matches = append(matches, Match{Platform: r.platform, Reason: r.String()})
		}
	}
	return matches
}

// Detector decides whether the target device is an emulator.
type Detector struct {
	source device.Source
	exec   shell.Executor
	root   string
}

func NewDetector(source device.Source, exec shell.Executor, root string) *Detector {
	if root == "" {
		root = DefaultFileRoot
	}
	return &Detector{
		source: source,
		exec:   exec,
		root:   root,
	}
}

// IsEmulator reports whether any signature matches, stopping at the first hit.
func (d *Detector) IsEmulator(ctx context.Context) (bool, error) {
	props, err := d.source.Properties(ctx)
	if err != nil {
		return false, fmt.Errorf("gather device properties: %w", err)
	}

	for _, r := range propertyRules {
		if r.matches(props) {
			return true, nil
		}
	}

	for _, g := range probeFiles {
		for _, p := range g.paths {
			if d.exists(ctx, p) {
				return true, nil
			}
		}
	}

	return false, nil
}

// Detect evaluates every signature and probe file and reports all matches.
func (d *Detector) Detect(ctx context.Context) (*Report, error) {
	props, err := d.source.Properties(ctx)
	if err != nil {
		return nil, fmt.Errorf("gather device properties: %w", err)
	}

	report := &Report{
		Matches: Classify(props),
		Device:  props,
	}

	for _, g := range probeFiles {
		for _, p := range g.paths {
			if d.exists(ctx, p) {
				report.Matches = append(report.Matches, Match{
					Platform: g.platform,
					Reason:   "found file " + d.resolve(p),
				})
			}
		}
	}

	report.Emulator = len(report.Matches) > 0
	return report, nil
}

// ExistingFiles returns the subset of paths present on the target.
// Paths that cannot be probed are skipped.
func (d *Detector) ExistingFiles(ctx context.Context, paths []string) []string {
	existing := make([]string, 0)
	for _, p := range paths {
		if d.exists(ctx, p) {
			existing = append(existing, d.resolve(p))
		}
	}
	return existing
}

// exists treats a probe error as an absent file.
func (d *Detector) exists(ctx context.Context, p string) bool {
	ok, err := d.exec.Exists(ctx, d.resolve(p))
	return err == nil && ok
}

func (d *Detector) resolve(p string) string {
	if path.IsAbs(p) {
		return p
	}
	return path.Join(d.root, p)
}
