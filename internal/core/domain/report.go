package domain

// Stage identifies a step of the per-package install pipeline.
type Stage string

const (
	// StagePending indicates the package has not been scheduled yet.
	StagePending Stage = "Pending"
	// StageFetching indicates the source artifact is being downloaded.
	StageFetching Stage = "Fetching"
	// StageVerifying indicates the artifact digest is being checked.
	StageVerifying Stage = "Verifying"
	// StageExtracting indicates the artifact is being unpacked.
	StageExtracting Stage = "Extracting"
	// StageBuilding indicates build steps are executing.
	StageBuilding Stage = "Building"
	// StageInstalled is the terminal success state.
	StageInstalled Stage = "Installed"
	// StageFailed is the terminal failure state.
	StageFailed Stage = "Failed"
	// StageBlocked is the terminal state of a package that was never started
	// because a transitive dependency failed.
	StageBlocked Stage = "Blocked"
)

// Terminal reports whether the stage ends a package's pipeline run.
func (s Stage) Terminal() bool {
	return s == StageInstalled || s == StageFailed || s == StageBlocked
}

// NodeResult is the terminal outcome of one package in an install run.
type NodeResult struct {
	// Name is the package name.
	Name string

	// Stage is the terminal stage: Installed, Failed or Blocked.
	Stage Stage

	// FailedAt names the pipeline stage a failure occurred in. Empty unless
	// Stage is Failed.
	FailedAt Stage

	// Err is the failure cause. Nil unless Stage is Failed.
	Err error

	// BlockedBy names the failed package that blocked this one. Empty unless
	// Stage is Blocked.
	BlockedBy string

	// Cached is true when the package was already installed at the resolved
	// version and no work was performed.
	Cached bool
}

// InstallReport enumerates the terminal state of every node of an install
// operation.
type InstallReport struct {
	results map[string]NodeResult
}

// NewInstallReport creates an empty report.
func NewInstallReport() *InstallReport {
	return &InstallReport{results: make(map[string]NodeResult)}
}

// Record stores the terminal result for a package.
func (r *InstallReport) Record(res NodeResult) {
	r.results[res.Name] = res
}

// Result returns the recorded result for a package name.
func (r *InstallReport) Result(name string) (NodeResult, bool) {
	res, ok := r.results[name]
	return res, ok
}

// Results returns all recorded results keyed by package name.
func (r *InstallReport) Results() map[string]NodeResult {
	return r.results
}

// Failed reports whether any package ended in a non-installed state.
func (r *InstallReport) Failed() bool {
	for _, res := range r.results {
		if res.Stage != StageInstalled {
			return true
		}
	}
	return false
}
