package models

import (
	"errors"
	"fmt"
)

// ProjectStatus is the lifecycle state of a crowdfunding project
type ProjectStatus string

const (
	ProjectStatusIdea        ProjectStatus = "IDEA"
	ProjectStatusReviewing   ProjectStatus = "REVIEWING"
	ProjectStatusValidated   ProjectStatus = "VALIDATED"
	ProjectStatusRejected    ProjectStatus = "REJECTED"
	ProjectStatusCampaigning ProjectStatus = "CAMPAIGNING"
	ProjectStatusLive        ProjectStatus = "LIVE"
	ProjectStatusCompleted   ProjectStatus = "COMPLETED"
)

// AllProjectStatuses lists every status in lifecycle order
var AllProjectStatuses = []ProjectStatus{
	ProjectStatusIdea,
	ProjectStatusReviewing,
	ProjectStatusValidated,
	ProjectStatusRejected,
	ProjectStatusCampaigning,
	ProjectStatusLive,
	ProjectStatusCompleted,
}

// Valid reports whether s is one of the known statuses
func (s ProjectStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// ProjectEvent is something that happens to a project and may move its status
type ProjectEvent string

const (
	EventSubmit    ProjectEvent = "SUBMIT"
	EventApprove   ProjectEvent = "APPROVE"
	EventReject    ProjectEvent = "REJECT"
	EventPromote   ProjectEvent = "PROMOTE"
	EventLaunch    ProjectEvent = "LAUNCH"
	EventFund      ProjectEvent = "FUND"
	EventReachGoal ProjectEvent = "REACH_GOAL"
	EventVote      ProjectEvent = "VOTE"
)

// AllProjectEvents lists every event
var AllProjectEvents = []ProjectEvent{
	EventSubmit,
	EventApprove,
	EventReject,
	EventPromote,
	EventLaunch,
	EventFund,
	EventReachGoal,
	EventVote,
}

// ErrIllegalTransition is returned when an event is not allowed from the current status
var ErrIllegalTransition = errors.New("illegal status transition")

// transitions is the complete table. A status with an empty row is terminal.
var transitions = map[ProjectStatus]map[ProjectEvent]ProjectStatus{
	ProjectStatusIdea: {
		EventSubmit: ProjectStatusReviewing,
	},
	ProjectStatusReviewing: {
		EventApprove: ProjectStatusValidated,
		EventReject:  ProjectStatusRejected,
		EventVote:    ProjectStatusReviewing,
	},
	ProjectStatusValidated: {
		EventPromote:   ProjectStatusCampaigning,
		EventFund:      ProjectStatusValidated,
		EventReachGoal: ProjectStatusCompleted,
		EventVote:      ProjectStatusValidated,
	},
	ProjectStatusRejected: {},
	ProjectStatusCampaigning: {
		EventLaunch:    ProjectStatusLive,
		EventFund:      ProjectStatusCampaigning,
		EventReachGoal: ProjectStatusCompleted,
	},
	ProjectStatusLive: {
		EventFund:      ProjectStatusLive,
		EventReachGoal: ProjectStatusCompleted,
	},
	ProjectStatusCompleted: {},
}

// Transition returns the status reached by applying ev to from
func Transition(from ProjectStatus, ev ProjectEvent) (ProjectStatus, error) {
	row, ok := transitions[from]
	if !ok {
		return "", fmt.Errorf("%w: unknown status %q", ErrIllegalTransition, from)
	}
	to, ok := row[ev]
	if !ok {
		return "", fmt.Errorf("%w: %s is not allowed from %s", ErrIllegalTransition, ev, from)
	}
	return to, nil
}

// Allows reports whether ev may be applied in status s
func (s ProjectStatus) Allows(ev ProjectEvent) bool {
	_, err := Transition(s, ev)
	return err == nil
}

// CrowdfundStatus mirrors the subset of project status tracked by the aggregate record
type CrowdfundStatus string

const (
	CrowdfundStatusUnderReview CrowdfundStatus = "UNDER_REVIEW"
	CrowdfundStatusValidated   CrowdfundStatus = "VALIDATED"
	CrowdfundStatusRejected    CrowdfundStatus = "REJECTED"
	CrowdfundStatusCampaigning CrowdfundStatus = "CAMPAIGNING"
	CrowdfundStatusLive        CrowdfundStatus = "LIVE"
	CrowdfundStatusCompleted   CrowdfundStatus = "COMPLETED"
)

// CrowdfundStatusFor derives the aggregate status from the owning project's status
func CrowdfundStatusFor(s ProjectStatus) CrowdfundStatus {
	switch s {
	case ProjectStatusIdea, ProjectStatusReviewing:
		return CrowdfundStatusUnderReview
	case ProjectStatusValidated:
		return CrowdfundStatusValidated
	case ProjectStatusRejected:
		return CrowdfundStatusRejected
	case ProjectStatusCampaigning:
		return CrowdfundStatusCampaigning
	case ProjectStatusLive:
		return CrowdfundStatusLive
	case ProjectStatusCompleted:
		return CrowdfundStatusCompleted
	}
	return ""
}
