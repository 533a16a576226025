package notifications

import "slices"

// Route picks the channels for a notification from its type, priority and
// the recipient's preferences. In-app is always first. The result has no
// duplicates and is identical for identical inputs.
func Route(t Type, p Priority, prefs Preferences) []Channel {
	p = p.OrDefault()
	channels := []Channel{ChannelInApp}
	add := func(ch Channel) {
		if prefs.Enabled(ch) && !slices.Contains(channels, ch) {
			channels = append(channels, ch)
		}
	}

	switch p {
	case PriorityUrgent, PriorityHigh:
		add(ChannelEmail)
		if p == PriorityUrgent || t == TypeBillDue {
			add(ChannelSMS)
		}
		add(ChannelPush)
	case PriorityMedium:
		add(ChannelEmail)
		add(ChannelPush)
	case PriorityLow:
		add(ChannelEmail)
	}

	switch t {
	case TypeBillDue, TypeDebtReminder:
		add(ChannelEmail)
		add(ChannelPush)
	case TypeAchievement, TypeScoreImprovement:
		add(ChannelPush)
	case TypeReminder:
		add(ChannelEmail)
	}

	return channels
}
