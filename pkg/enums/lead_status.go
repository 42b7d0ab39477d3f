package enums

import "fmt"

// LeadStatus tracks admin follow-up on partner and contact submissions.
type LeadStatus string

const (
	LeadStatusPending   LeadStatus = "pending"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusClosed    LeadStatus = "closed"
)

var validLeadStatuses = []LeadStatus{
	LeadStatusPending,
	LeadStatusContacted,
	LeadStatusClosed,
}

// String implements fmt.Stringer.
func (v LeadStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known LeadStatus.
func (v LeadStatus) IsValid() bool {
	for _, candidate := range validLeadStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseLeadStatus converts raw input into a LeadStatus.
func ParseLeadStatus(value string) (LeadStatus, error) {
	for _, candidate := range validLeadStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid lead status %q", value)
}
