package punish

import (
	"errors"
	"fmt"
)

// ErrEmptyReasonSet is returned when an invocation carries no concrete
// reason, e.g. the moderator submitted the menu without selecting anything.
var ErrEmptyReasonSet = errors.New("no punishment reason selected")

// TemplateNotFoundError reports a missing catalog template. It is an
// expected outcome (the catalog has no entry at the user's next stage),
// not a storage failure.
type TemplateNotFoundError struct {
	Reason string
	Stage  int
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("no catalog template for reason %q at stage %d", e.Reason, e.Stage)
}

// NoPriorPunishmentError reports that reuse mode found no earlier
// punishment to replay for a reason.
type NoPriorPunishmentError struct {
	Reason string
}

func (e *NoPriorPunishmentError) Error() string {
	return fmt.Sprintf("no prior punishment for reason %q to reuse", e.Reason)
}
