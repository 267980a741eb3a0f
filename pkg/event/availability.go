package event

// AvailabilityState is a liveness or readiness state carried by an
// availability-change event.
type AvailabilityState string

const (
	// LivenessCorrect means the application's internal state is valid.
	LivenessCorrect AvailabilityState = "CORRECT"
	// LivenessBroken means the application cannot recover by itself.
	LivenessBroken AvailabilityState = "BROKEN"
	// ReadinessAcceptingTraffic means the application accepts work.
	ReadinessAcceptingTraffic AvailabilityState = "ACCEPTING_TRAFFIC"
	// ReadinessRefusingTraffic means the application refuses work for now.
	ReadinessRefusingTraffic AvailabilityState = "REFUSING_TRAFFIC"
)

// IsLiveness reports whether s is a liveness state.
func (s AvailabilityState) IsLiveness() bool {
	return s == LivenessCorrect || s == LivenessBroken
}

// IsReadiness reports whether s is a readiness state.
func (s AvailabilityState) IsReadiness() bool {
	return s == ReadinessAcceptingTraffic || s == ReadinessRefusingTraffic
}
