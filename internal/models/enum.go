package models

// MeterStatus is the derived online/offline classification of a meter.
type MeterStatus string

const (
	MeterOnline  MeterStatus = "online"
	MeterOffline MeterStatus = "offline"
)

// Freshness is the UI badge for how recently a meter reported. It is
// thresholded independently of MeterStatus and the two may disagree.
type Freshness string

const (
	FreshnessFresh    Freshness = "fresh"
	FreshnessStale    Freshness = "stale"
	FreshnessOutdated Freshness = "outdated"
)

// Coverage is the radio signal quality reported by the registry.
type Coverage string

const (
	CoverageExcellent    Coverage = "excellent"
	CoverageGood         Coverage = "good"
	CoverageSatisfactory Coverage = "satisfactory"
	CoveragePoor         Coverage = "poor"
	CoverageUnknown      Coverage = "unknown"
)

// HistorySource marks where a consumption history series came from.
// Synthesized series are placeholder chart data, never registry truth.
type HistorySource string

const (
	HistoryFromRegistry HistorySource = "registry"
	HistorySynthesized  HistorySource = "synthesized"
)

// SearchKind is what the visitor typed into the lookup form.
type SearchKind string

const (
	SearchBySerial  SearchKind = "serial"
	SearchByAccount SearchKind = "account"
)

type RequestType string

const (
	RequestVerification  RequestType = "verification"
	RequestRepair        RequestType = "repair"
	RequestConsultation  RequestType = "consultation"
	RequestSeal          RequestType = "seal"
	RequestAccountAttach RequestType = "account_attach"
	RequestReadingSubmit RequestType = "reading_submit"
	RequestOther         RequestType = "other"
)

// IsValid reports whether t is one of the accepted request types.
func (t RequestType) IsValid() bool {
	switch t {
	case RequestVerification, RequestRepair, RequestConsultation,
		RequestSeal, RequestAccountAttach, RequestReadingSubmit, RequestOther:
		return true
	}
	return false
}

type RequestStatus string

const (
	RequestNew        RequestStatus = "new"
	RequestProcessing RequestStatus = "processing"
	RequestCompleted  RequestStatus = "completed"
	RequestCancelled  RequestStatus = "cancelled"
)

// requestTransitions is the single source of truth for the request status
// state machine. completed and cancelled are terminal.
var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestNew:        {RequestProcessing, RequestCancelled},
	RequestProcessing: {RequestCompleted, RequestCancelled},
	RequestCompleted:  {},
	RequestCancelled:  {},
}

// IsValid reports whether s is a known request status.
func (s RequestStatus) IsValid() bool {
	_, ok := requestTransitions[s]
	return ok
}

// CanTransitionTo reports whether the edge s -> next is a legal transition.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	for _, allowed := range requestTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
