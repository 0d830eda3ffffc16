package types

// TransferState is the observed progress of a cross-chain transfer.
// States are ordered; a transfer only ever moves forward.
type TransferState int

const (
	// Created is the state of a transfer before anything was submitted.
	Created TransferState = iota
	// SourceInitiated means the source transactions were submitted.
	SourceInitiated
	// SourceFinalized means the source transactions reached finality.
	SourceFinalized
	// Attested means the bridging layer produced an attestation for the transfer.
	Attested
	// DestinationInitiated means a destination redeem transaction was observed.
	DestinationInitiated
	// DestinationFinalized means the destination side is final. It is the only terminal state.
	DestinationFinalized
)

// Completed is an alias of the terminal success state.
const Completed = DestinationFinalized

var transferStateNames = map[TransferState]string{
	Created:              "CREATED",
	SourceInitiated:      "SOURCE_INITIATED",
	SourceFinalized:      "SOURCE_FINALIZED",
	Attested:             "ATTESTED",
	DestinationInitiated: "DESTINATION_INITIATED",
	DestinationFinalized: "DESTINATION_FINALIZED",
}

func (s TransferState) String() string {
	if name, ok := transferStateNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsTerminal reports whether no further state can follow.
func (s TransferState) IsTerminal() bool {
	return s >= DestinationFinalized
}

// AtLeast reports whether s is the same as or later than other.
func (s TransferState) AtLeast(other TransferState) bool {
	return s >= other
}
