package services

import (
	"errors"
	"fmt"

	"github.com/ArowuTest/crowdfund-backend/internal/models"
	"github.com/ArowuTest/crowdfund-backend/internal/repositories"
	"github.com/ArowuTest/crowdfund-backend/internal/txn"
	"github.com/ArowuTest/crowdfund-backend/internal/validation"
)

// Error kinds. Every error a service returns wraps exactly one of these.
var (
	ErrValidation  = validation.ErrValidation
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrForbidden   = errors.New("forbidden")
	ErrUnavailable = errors.New("operation failed, try again")
)

// ValidationError is the field-level error returned for bad input
type ValidationError = validation.ValidationError

var (
	ErrCreatorNotFound     = fmt.Errorf("%w: creator", ErrNotFound)
	ErrUserNotFound        = fmt.Errorf("%w: user", ErrNotFound)
	ErrProjectNotFound     = fmt.Errorf("%w: project", ErrNotFound)
	ErrCrowdfundNotFound   = fmt.Errorf("%w: crowdfund record", ErrNotFound)
	ErrWrongStatus         = fmt.Errorf("%w: project status does not allow this operation", ErrConflict)
	ErrFundingClosed       = fmt.Errorf("%w: funding window is closed", ErrConflict)
	ErrGoalAlreadyMet      = fmt.Errorf("%w: funding goal already met", ErrConflict)
	ErrDuplicateTxRef      = fmt.Errorf("%w: transaction reference already recorded", ErrConflict)
	ErrDuplicateVote       = fmt.Errorf("%w: user has already voted on this project", ErrConflict)
	ErrVotingClosed        = fmt.Errorf("%w: voting window is closed", ErrConflict)
	ErrThresholdNotReached = fmt.Errorf("%w: vote threshold not reached", ErrConflict)
	ErrNotCreator          = fmt.Errorf("%w: only the creator can submit this project", ErrForbidden)
)

// surface converts coordinator and repository errors into service error kinds
func surface(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, txn.ErrRetriesExhausted), errors.Is(err, txn.ErrCommitOutcomeUnknown):
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	case errors.Is(err, repositories.ErrNotFound) && !errors.Is(err, ErrNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	default:
		return err
	}
}

// notFound maps a repository miss to target and passes other errors through
func notFound(err, target error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return target
	}
	return err
}

func wrongStatus(status models.ProjectStatus, action string) error {
	return fmt.Errorf("%w: cannot %s a project in status %s", ErrWrongStatus, action, status)
}

func errorsIsNotFound(err error) bool {
	return errors.Is(err, repositories.ErrNotFound)
}
