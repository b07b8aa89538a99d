package sim

import (
	"fmt"

	"github.com/gigbridge/matchd/internal/domain/model"
)

// verifySnapshot checks the ordering and score invariants of a snapshot.
func verifySnapshot(snap model.Snapshot) error {
	for i, c := range snap.Candidates {
		if c.Score < 0 || c.Score > 1 {
			return fmt.Errorf("candidate %s: score %f out of [0,1]", c.UserID, c.Score)
		}
		if i == 0 {
			continue
		}
		prev := snap.Candidates[i-1]
		if c.Score > prev.Score {
			return fmt.Errorf("ordering violated at rank %d: %f > %f", i, c.Score, prev.Score)
		}
		if c.Score == prev.Score && c.UserID < prev.UserID {
			return fmt.Errorf("tie-break violated at rank %d: %s before %s", i, prev.UserID, c.UserID)
		}
	}
	return nil
}

// verifyInviteOutcome checks that confirmed sends never exceed requests
// and that a sensitive request invited at most one provider.
func verifyInviteOutcome(requested, sent int, sensitive bool, singleProviderOnly bool) error {
	if sent > requested {
		return fmt.Errorf("sent %d exceeds requested %d", sent, requested)
	}
	if sensitive && singleProviderOnly && requested > 1 {
		return fmt.Errorf("sensitive request shortlisted %d providers", requested)
	}
	return nil
}
