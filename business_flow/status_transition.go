package businessflow

import (
	"sort"

	"github.com/dimpinis9/estately/models"
)

// DenialReason explains why a status transition was refused
type DenialReason string

const (
	DenialUnknownKind          DenialReason = "UNKNOWN_KIND"
	DenialUnknownStatus        DenialReason = "UNKNOWN_STATUS"
	DenialNoOp                 DenialReason = "NO_OP"
	DenialTransitionNotAllowed DenialReason = "TRANSITION_NOT_ALLOWED"
)

// TransitionDecision is the validator's verdict. Reason is empty when Allowed.
type TransitionDecision struct {
	Allowed bool
	Reason  DenialReason
}

func allow() TransitionDecision { return TransitionDecision{Allowed: true} }

func deny(reason DenialReason) TransitionDecision {
	return TransitionDecision{Allowed: false, Reason: reason}
}

// The tables are directed: an edge A->B says nothing about B->A.
var (
	leadTransitions = map[models.LeadStatus][]models.LeadStatus{
		models.LeadStatusNew:       {models.LeadStatusContacted, models.LeadStatusQualified},
		models.LeadStatusContacted: {models.LeadStatusQualified, models.LeadStatusNurturing},
		models.LeadStatusQualified: {models.LeadStatusNurturing, models.LeadStatusClosed},
		models.LeadStatusNurturing: {models.LeadStatusClosed, models.LeadStatusQualified},
		models.LeadStatusClosed:    {models.LeadStatusNurturing},
	}

	propertyTransitions = map[models.PropertyStatus][]models.PropertyStatus{
		models.PropertyStatusAvailable: {models.PropertyStatusPending, models.PropertyStatusSold, models.PropertyStatusOffMarket},
		models.PropertyStatusPending:   {models.PropertyStatusAvailable, models.PropertyStatusSold, models.PropertyStatusOffMarket},
		models.PropertyStatusSold:      {models.PropertyStatusAvailable, models.PropertyStatusOffMarket},
		models.PropertyStatusOffMarket: {models.PropertyStatusAvailable, models.PropertyStatusPending},
	}
)

// ValidateTransition decides whether an entity of kind may move from one status to another.
// Unknown statuses are reported before the no-op check so that ("x", "x") is UNKNOWN_STATUS.
func ValidateTransition(kind models.EntityKind, from, to string) TransitionDecision {
	switch kind {
	case models.EntityKindLead:
		f, t := models.LeadStatus(from), models.LeadStatus(to)
		if !f.Valid() || !t.Valid() {
			return deny(DenialUnknownStatus)
		}
		if f == t {
			return deny(DenialNoOp)
		}
		return decide(leadTransitions[f], t)
	case models.EntityKindProperty:
		f, t := models.PropertyStatus(from), models.PropertyStatus(to)
		if !f.Valid() || !t.Valid() {
			return deny(DenialUnknownStatus)
		}
		if f == t {
			return deny(DenialNoOp)
		}
		return decide(propertyTransitions[f], t)
	default:
		return deny(DenialUnknownKind)
	}
}

func decide[S comparable](allowed []S, to S) TransitionDecision {
	for _, s := range allowed {
		if s == to {
			return allow()
		}
	}
	return deny(DenialTransitionNotAllowed)
}

// AllowedTransitions lists the statuses reachable in one step, sorted.
// It returns an empty slice for unknown kinds or statuses.
func AllowedTransitions(kind models.EntityKind, from string) []string {
	out := []string{}
	switch kind {
	case models.EntityKindLead:
		for _, s := range leadTransitions[models.LeadStatus(from)] {
			out = append(out, s.String())
		}
	case models.EntityKindProperty:
		for _, s := range propertyTransitions[models.PropertyStatus(from)] {
			out = append(out, s.String())
		}
	}
	sort.Strings(out)
	return out
}

// KnownStatuses lists every assignable status of the kind in declaration order
func KnownStatuses(kind models.EntityKind) []string {
	var out []string
	switch kind {
	case models.EntityKindLead:
		for _, s := range models.LeadStatuses {
			out = append(out, s.String())
		}
	case models.EntityKindProperty:
		for _, s := range models.PropertyStatuses {
			out = append(out, s.String())
		}
	}
	return out
}
