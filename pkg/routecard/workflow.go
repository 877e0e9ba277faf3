package routecard

import (
	"fmt"
	"log/slog"
	"strings"
)

// Policy selects which completion workflow a process runs. The two variants
// coexisted upstream and are not reconcilable as one code path: the
// three-field workflow completes pre-provisioned blanks with separately
// validated identifier numbers, while the single-field workflow
// range-checks the serial itself and auto-creates the row when absent.
type Policy string

const (
	PolicyPreProvisioned Policy = "preprovisioned"
	PolicyAutoProvision  Policy = "autoprovision"
)

// State is the position of a completion attempt.
type State string

const (
	StateAwaitingSerial  State = "awaiting_serial"
	StateAwaitingDetails State = "awaiting_details"
	StateCompleted       State = "completed"
	StateRejected        State = "rejected"
)

// OutcomeKind classifies the result of a workflow step.
type OutcomeKind string

const (
	OutcomeOK               OutcomeKind = "ok"
	OutcomeFormatError      OutcomeKind = "format_error"
	OutcomeNotFound         OutcomeKind = "not_found"
	OutcomeConflict         OutcomeKind = "conflict"
	OutcomeUpdateFailed     OutcomeKind = "update_failed"
	OutcomeStoreUnavailable OutcomeKind = "store_unavailable"
	OutcomeOutOfOrder       OutcomeKind = "out_of_order"
)

// Outcome is the typed result of a workflow step. Value carries the
// offending or completed identifier when one applies, so callers can name
// it without parsing Message.
type Outcome struct {
	Kind    OutcomeKind
	Message string
	Value   string
}

// OK reports whether the step succeeded.
func (o Outcome) OK() bool { return o.Kind == OutcomeOK }

// CompletionWorkflow drives one completion attempt at a time:
// submit a serial, then submit the remaining details (or a bare
// confirmation under the auto-provision policy), with Reset returning to
// the initial state from anywhere.
type CompletionWorkflow interface {
	Policy() Policy
	State() State
	SubmitSerial(serial string) Outcome
	SubmitDetails(accountNumber, clusterNumber string) Outcome
	Reset()
}

// NewCompletionWorkflow constructs the workflow for the given policy. An
// empty policy defaults to PolicyPreProvisioned.
func NewCompletionWorkflow(store *CardStore, policy Policy, logger *slog.Logger) (CompletionWorkflow, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch policy {
	case PolicyPreProvisioned, "":
		return &threeFieldWorkflow{
			store:  store,
			logger: logger.With("workflow", string(PolicyPreProvisioned)),
			state:  StateAwaitingSerial,
		}, nil
	case PolicyAutoProvision:
		return &singleFieldWorkflow{
			store:  store,
			logger: logger.With("workflow", string(PolicyAutoProvision)),
			state:  StateAwaitingSerial,
		}, nil
	default:
		return nil, fmt.Errorf("unknown workflow policy %q", policy)
	}
}

// threeFieldWorkflow completes pre-provisioned blanks. The serial is a
// free-form token and must already exist as a row; an unknown serial is
// terminal for the attempt.
type threeFieldWorkflow struct {
	store  *CardStore
	logger *slog.Logger

	state  State
	serial string
	card   *RouteCard
}

func (w *threeFieldWorkflow) Policy() Policy { return PolicyPreProvisioned }
func (w *threeFieldWorkflow) State() State   { return w.state }

// Reset unconditionally returns to the initial state and clears all held
// input, whatever the current state.
func (w *threeFieldWorkflow) Reset() {
	w.state = StateAwaitingSerial
	w.serial = ""
	w.card = nil
}

func (w *threeFieldWorkflow) reject(kind OutcomeKind, msg, value string) Outcome {
	w.state = StateRejected
	return Outcome{Kind: kind, Message: msg, Value: value}
}

// SubmitSerial looks the blank up and decides whether details may be
// entered.
func (w *threeFieldWorkflow) SubmitSerial(serial string) Outcome {
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return w.reject(OutcomeFormatError, "enter a blank serial", "")
	}

	card, err := w.store.FindBySerial(serial)
	if err != nil {
		w.logger.Error("serial lookup failed", "serial", serial, "error", err)
		return w.reject(OutcomeStoreUnavailable,
			fmt.Sprintf("could not check blank %q: store unavailable", serial), serial)
	}
	if card == nil {
		return w.reject(OutcomeNotFound,
			fmt.Sprintf("blank %q is not known", serial), serial)
	}
	if card.HasBothNumbers() {
		return w.reject(OutcomeConflict,
			fmt.Sprintf("blank %q is already completed; contact the administrator or re-check the serial", serial),
			serial)
	}

	w.state = StateAwaitingDetails
	w.serial = serial
	w.card = card
	return Outcome{Kind: OutcomeOK,
		Message: fmt.Sprintf("blank %q accepted, awaiting details", serial), Value: serial}
}

// Prefill returns the identifier values already present on the checked
// record. Fields returned non-empty are locked: SubmitDetails keeps them
// regardless of what is entered.
func (w *threeFieldWorkflow) Prefill() (accountNumber, clusterNumber string) {
	if w.card == nil {
		return "", ""
	}
	return w.card.AccountNumber, w.card.ClusterNumber
}

// SubmitDetails validates and records the identifier numbers. Validation
// short-circuits at the first failure, checking presence, account format,
// cluster format, account uniqueness and cluster uniqueness in order. On
// failure the attempt stays in StateAwaitingDetails and the caller's
// entered text is left for them to correct; nothing is cleared implicitly.
func (w *threeFieldWorkflow) SubmitDetails(accountNumber, clusterNumber string) Outcome {
	if w.state != StateAwaitingDetails {
		return Outcome{Kind: OutcomeOutOfOrder, Message: "check a blank serial first"}
	}

	accountNumber = strings.TrimSpace(accountNumber)
	clusterNumber = strings.TrimSpace(clusterNumber)

	// Values already on the record are locked; only missing fields are
	// taken from the submission.
	if w.card.AccountNumber != "" {
		accountNumber = w.card.AccountNumber
	}
	if w.card.ClusterNumber != "" {
		clusterNumber = w.card.ClusterNumber
	}

	if accountNumber == "" || clusterNumber == "" {
		return Outcome{Kind: OutcomeFormatError,
			Message: "both the account number and the cluster number are required"}
	}
	if !ValidAccountNumber(accountNumber) {
		return Outcome{Kind: OutcomeFormatError,
			Message: fmt.Sprintf("account number %q is malformed; expected ММ-ННН/ГГ, e.g. 05-002/25", accountNumber),
			Value:   accountNumber}
	}
	if !ValidClusterNumber(clusterNumber) {
		return Outcome{Kind: OutcomeFormatError,
			Message: fmt.Sprintf("cluster number %q is malformed; expected КГГ/ММ-ННН, e.g. К25/05-099", clusterNumber),
			Value:   clusterNumber}
	}

	taken, err := w.store.ExistsCompletedWithAccountNumber(accountNumber)
	if err != nil {
		w.logger.Error("account number check failed", "error", err)
		return Outcome{Kind: OutcomeStoreUnavailable,
			Message: "could not verify the account number: store unavailable"}
	}
	if taken {
		return Outcome{Kind: OutcomeConflict,
			Message: fmt.Sprintf("account number %q is already in use; choose another", accountNumber),
			Value:   accountNumber}
	}

	taken, err = w.store.ExistsCompletedWithClusterNumber(clusterNumber)
	if err != nil {
		w.logger.Error("cluster number check failed", "error", err)
		return Outcome{Kind: OutcomeStoreUnavailable,
			Message: "could not verify the cluster number: store unavailable"}
	}
	if taken {
		return Outcome{Kind: OutcomeConflict,
			Message: fmt.Sprintf("cluster number %q is already in use; choose another", clusterNumber),
			Value:   clusterNumber}
	}

	// The uniqueness checks above and this write are separate statements
	// with no spanning transaction: a second process running the same
	// sequence concurrently can pass its checks before either writes.
	ok, err := w.store.UpdateCompletion(w.serial, accountNumber, clusterNumber)
	if err != nil {
		w.logger.Error("completion update failed", "serial", w.serial, "error", err)
		return w.reject(OutcomeStoreUnavailable,
			fmt.Sprintf("could not update blank %q: store unavailable", w.serial), w.serial)
	}
	if !ok {
		// The record matched at lookup time but no rows changed now.
		return w.reject(OutcomeUpdateFailed,
			fmt.Sprintf("failed to update blank %q", w.serial), w.serial)
	}

	serial := w.serial
	w.Reset()
	w.state = StateCompleted
	return Outcome{Kind: OutcomeOK,
		Message: fmt.Sprintf("blank %q completed", serial), Value: serial}
}

// singleFieldWorkflow completes blanks by serial alone. The serial is
// range-checked and normalized; a missing row is created on completion
// rather than rejected.
type singleFieldWorkflow struct {
	store  *CardStore
	logger *slog.Logger

	state  State
	serial string
}

func (w *singleFieldWorkflow) Policy() Policy { return PolicyAutoProvision }
func (w *singleFieldWorkflow) State() State   { return w.state }

func (w *singleFieldWorkflow) Reset() {
	w.state = StateAwaitingSerial
	w.serial = ""
}

func (w *singleFieldWorkflow) reject(kind OutcomeKind, msg, value string) Outcome {
	w.state = StateRejected
	return Outcome{Kind: kind, Message: msg, Value: value}
}

func (w *singleFieldWorkflow) SubmitSerial(serial string) Outcome {
	normalized, ok := NormalizeSerial(serial)
	if !ok {
		return w.reject(OutcomeFormatError,
			fmt.Sprintf("serial %q is invalid; expected a number between 1 and 999999", strings.TrimSpace(serial)),
			serial)
	}

	card, err := w.store.FindBySerial(normalized)
	if err != nil {
		w.logger.Error("serial lookup failed", "serial", normalized, "error", err)
		return w.reject(OutcomeStoreUnavailable,
			fmt.Sprintf("could not check blank %q: store unavailable", normalized), normalized)
	}
	if card != nil && card.IsCompleted() {
		return w.reject(OutcomeConflict,
			fmt.Sprintf("blank %q is already completed; contact the administrator or re-check the serial", normalized),
			normalized)
	}

	w.state = StateAwaitingDetails
	w.serial = normalized
	return Outcome{Kind: OutcomeOK,
		Message: fmt.Sprintf("blank %q ready to complete", normalized), Value: normalized}
}

// SubmitDetails confirms the completion. Both arguments are ignored: this
// policy records no identifier numbers. The row presence is re-checked at
// confirmation time and the completion is written as an update or an
// insert accordingly.
func (w *singleFieldWorkflow) SubmitDetails(string, string) Outcome {
	if w.state != StateAwaitingDetails {
		return Outcome{Kind: OutcomeOutOfOrder, Message: "submit a blank serial first"}
	}

	card, err := w.store.FindBySerial(w.serial)
	if err != nil {
		w.logger.Error("confirmation lookup failed", "serial", w.serial, "error", err)
		return w.reject(OutcomeStoreUnavailable,
			fmt.Sprintf("could not complete blank %q: store unavailable", w.serial), w.serial)
	}

	if card != nil {
		ok, err := w.store.MarkCompleted(w.serial)
		if err != nil {
			w.logger.Error("completion update failed", "serial", w.serial, "error", err)
			return w.reject(OutcomeStoreUnavailable,
				fmt.Sprintf("could not complete blank %q: store unavailable", w.serial), w.serial)
		}
		if !ok {
			return w.reject(OutcomeUpdateFailed,
				fmt.Sprintf("failed to complete blank %q", w.serial), w.serial)
		}
	} else {
		if err := w.store.InsertCompleted(w.serial); err != nil {
			w.logger.Error("completion insert failed", "serial", w.serial, "error", err)
			return w.reject(OutcomeStoreUnavailable,
				fmt.Sprintf("could not complete blank %q: store unavailable", w.serial), w.serial)
		}
	}

	serial := w.serial
	w.Reset()
	w.state = StateCompleted
	return Outcome{Kind: OutcomeOK,
		Message: fmt.Sprintf("blank %q completed", serial), Value: serial}
}
