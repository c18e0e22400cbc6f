package domain

import (
	"sort"

	notificationdomain "github.com/smallbiznis/courier/internal/notification/domain"
)

// CurrentProvider returns the active provider for channel with the lowest
// priority. Ties go to the lowest identifier, then the lowest id, so the
// answer is stable for a given set of rows.
func CurrentProvider(providers []ProviderDetails, channel notificationdomain.NotificationType) (ProviderDetails, error) {
	candidates := ranked(providers, channel, "")
	if len(candidates) == 0 {
		return ProviderDetails{}, ErrNoActiveProvider
	}
	return candidates[0], nil
}

// AlternativeProvider returns the best active provider for channel other
// than excluding.
func AlternativeProvider(providers []ProviderDetails, channel notificationdomain.NotificationType, excluding string) (ProviderDetails, error) {
	if _, ok := find(providers, channel, excluding); !ok {
		return ProviderDetails{}, ErrUnknownProvider
	}
	candidates := ranked(providers, channel, excluding)
	if len(candidates) == 0 {
		return ProviderDetails{}, ErrNoAlternativeAvailable
	}
	return candidates[0], nil
}

// PlanToggle demotes the current provider for channel below its
// alternative. It returns the next snapshots of both rows, each one
// version ahead; persisting them is up to the caller.
func PlanToggle(providers []ProviderDetails, channel notificationdomain.NotificationType) (previous, next ProviderDetails, err error) {
	if len(ranked(providers, channel, "")) < 2 {
		return ProviderDetails{}, ProviderDetails{}, ErrNoAlternativeAvailable
	}

	current, err := CurrentProvider(providers, channel)
	if err != nil {
		return ProviderDetails{}, ProviderDetails{}, err
	}
	alternative, err := AlternativeProvider(providers, channel, current.Identifier)
	if err != nil {
		return ProviderDetails{}, ProviderDetails{}, err
	}

	previous, next = reprioritise(current, alternative)
	return previous, next, nil
}

// PlanSwitchTo makes identifier the current provider for channel. ok is
// false when nothing needs to change: the target is inactive or already
// current. The target ends strictly below every other active provider.
func PlanSwitchTo(providers []ProviderDetails, channel notificationdomain.NotificationType, identifier string) (previous, next ProviderDetails, ok bool, err error) {
	target, found := find(providers, channel, identifier)
	if !found {
		return ProviderDetails{}, ProviderDetails{}, false, ErrUnknownProvider
	}
	if !target.Active {
		return ProviderDetails{}, ProviderDetails{}, false, nil
	}

	current, err := CurrentProvider(providers, channel)
	if err != nil {
		return ProviderDetails{}, ProviderDetails{}, false, err
	}
	if current.ID == target.ID {
		return ProviderDetails{}, ProviderDetails{}, false, nil
	}

	previous, next = reprioritise(current, target)
	if floor, found := lowestPriority(providers, channel, current, target); found && floor <= next.Priority {
		next.Priority = floor - 1
	}
	return previous, next, true, nil
}

// lowestPriority returns the smallest priority among active providers of
// channel other than the two being reordered.
func lowestPriority(providers []ProviderDetails, channel notificationdomain.NotificationType, skip ...ProviderDetails) (int, bool) {
	lowest, found := 0, false
	for _, p := range ranked(providers, channel, "") {
		if isOneOf(p, skip) {
			continue
		}
		if !found || p.Priority < lowest {
			lowest, found = p.Priority, true
		}
	}
	return lowest, found
}

func isOneOf(p ProviderDetails, set []ProviderDetails) bool {
	for _, s := range set {
		if s.ID == p.ID {
			return true
		}
	}
	return false
}

// reprioritise swaps distinct priorities. On a tie the promoted provider
// moves one below and the demoted one moves one above the shared value.
func reprioritise(demote, promote ProviderDetails) (ProviderDetails, ProviderDetails) {
	if demote.Priority == promote.Priority {
		shared := demote.Priority
		promote.Priority = shared - 1
		demote.Priority = shared + 1
	} else {
		demote.Priority, promote.Priority = promote.Priority, demote.Priority
	}
	demote.Version++
	promote.Version++
	return demote, promote
}

func ranked(providers []ProviderDetails, channel notificationdomain.NotificationType, excluding string) []ProviderDetails {
	out := make([]ProviderDetails, 0, len(providers))
	for _, p := range providers {
		if !p.Active || p.NotificationType != channel {
			continue
		}
		if excluding != "" && p.Identifier == excluding {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		if out[i].Identifier != out[j].Identifier {
			return out[i].Identifier < out[j].Identifier
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func find(providers []ProviderDetails, channel notificationdomain.NotificationType, identifier string) (ProviderDetails, bool) {
	for _, p := range providers {
		if p.NotificationType == channel && p.Identifier == identifier {
			return p, true
		}
	}
	return ProviderDetails{}, false
}
