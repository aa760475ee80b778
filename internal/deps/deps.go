package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"actionprep/internal/faults"
)

// Requirement defines an external binary actionprep shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency. Path is the resolved
// executable when Available is true.
type Status struct {
	Requirement
	Available bool
	Path      string
	Detail    string
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		req.Command = strings.TrimSpace(req.Command)
		req.Description = strings.TrimSpace(req.Description)
		status := Status{Requirement: req}
		if req.Command == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		resolved, err := exec.LookPath(req.Command)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", req.Command)
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Path = resolved
		results = append(results, status)
	}
	return results
}

// Missing returns an external tool error listing every required dependency
// that is unavailable, or nil when all required binaries resolved.
func Missing(statuses []Status) error {
	var missing []string
	for _, s := range statuses {
		if s.Available || s.Optional {
			continue
		}
		missing = append(missing, fmt.Sprintf("%s (%s)", s.Name, s.Detail))
	}
	if len(missing) == 0 {
		return nil
	}
	return faults.Wrap(faults.ErrExternalTool, "deps", "check", "missing "+strings.Join(missing, ", "), nil)
}
