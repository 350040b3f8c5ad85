package failure

type Severity int

// orchestrator control flow
const (
	SeverityFatal Severity = iota
	SeverityRecoverable
)

// ClassifiedError is the error contract shared by every package in this
// module. Each package defines its own concrete error type carrying a cause
// and a retryable flag; callers branch on Severity, never on error strings.
type ClassifiedError interface {
	error
	Severity() Severity
}
