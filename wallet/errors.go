package wallet

// Stage-attributed errors. The orchestrator never retries; callers decide
// retry policy off the stage name.

// ErrAccountLoadFailed reports a failure to load the submitter account before
// any transaction was built.
type ErrAccountLoadFailed struct {
	Cause error
}

func (e *ErrAccountLoadFailed) Error() string {
	return "account load failed: " + e.Cause.Error()
}

func (e *ErrAccountLoadFailed) Unwrap() error { return e.Cause }

// ErrSimulationFailed reports a failed transaction simulation. Fatal for the
// attempted operation: without simulated transaction data there is no fee.
type ErrSimulationFailed struct {
	Cause error
}

func (e *ErrSimulationFailed) Error() string {
	return "simulation failed: " + e.Cause.Error()
}

func (e *ErrSimulationFailed) Unwrap() error { return e.Cause }

// ErrSigningFailed reports a failure to build or sign a transaction envelope.
type ErrSigningFailed struct {
	Cause error
}

func (e *ErrSigningFailed) Error() string {
	return "signing failed: " + e.Cause.Error()
}

func (e *ErrSigningFailed) Unwrap() error { return e.Cause }

// ErrSubmissionFailed reports a rejected or undeliverable submission.
type ErrSubmissionFailed struct {
	Cause error
}

func (e *ErrSubmissionFailed) Error() string {
	return "submission failed: " + e.Cause.Error()
}

func (e *ErrSubmissionFailed) Unwrap() error { return e.Cause }

// ErrDeploymentFailed wraps any failure during wallet deployment. There is no
// partial retry: the caller retries the whole ceremony or not at all.
type ErrDeploymentFailed struct {
	Cause error
}

func (e *ErrDeploymentFailed) Error() string {
	return "deployment failed: " + e.Cause.Error()
}

func (e *ErrDeploymentFailed) Unwrap() error { return e.Cause }

// ErrContractNotFound reports that the existence check for a derived contract
// address came back negative. Distinct from a failed check, which surfaces as
// a plain error from CheckContract.
type ErrContractNotFound struct {
	ContractID string
}

func (e *ErrContractNotFound) Error() string {
	return "contract not found: " + e.ContractID
}
