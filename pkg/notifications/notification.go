package notifications

import (
	"slices"
	"time"
)

// Channel is a delivery medium for a notification.
type Channel string

const (
	ChannelInApp Channel = "inapp"
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelPush  Channel = "push"
)

// Valid reports whether c is one of the known channels.
func (c Channel) Valid() bool {
	switch c {
	case ChannelInApp, ChannelEmail, ChannelSMS, ChannelPush:
		return true
	}
	return false
}

// Priority is an ordered urgency level. The zero value means PriorityMedium.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var priorityScale = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// ParsePriority converts s to a Priority. Unknown values yield (PriorityMedium, false).
func ParsePriority(s string) (Priority, bool) {
	p := Priority(s)
	if slices.Contains(priorityScale, p) {
		return p, true
	}
	return PriorityMedium, false
}

// OrDefault returns p, or PriorityMedium for empty and unknown values.
func (p Priority) OrDefault() Priority {
	v, _ := ParsePriority(string(p))
	return v
}

// Escalate returns the next level on the scale, clamped at PriorityUrgent.
func (p Priority) Escalate() Priority {
	i := slices.Index(priorityScale, p.OrDefault())
	return priorityScale[min(i+1, len(priorityScale)-1)]
}

// Type identifies the kind of notification. Known values are listed below;
// any other string is a custom type and is routed by priority only.
type Type string

const (
	TypeBillDue          Type = "bill_due"
	TypeBudgetAlert      Type = "budget_alert"
	TypeDebtReminder     Type = "debt_reminder"
	TypeAchievement      Type = "achievement"
	TypeScoreImprovement Type = "score_improvement"
	TypeChallenge        Type = "challenge"
	TypeReminder         Type = "reminder"
	TypeSystem           Type = "system"
	TypeAdmin            Type = "admin"
)

var knownTypes = []Type{
	TypeBillDue, TypeBudgetAlert, TypeDebtReminder, TypeAchievement,
	TypeScoreImprovement, TypeChallenge, TypeReminder, TypeSystem, TypeAdmin,
}

// CustomType builds a Type outside the known set.
func CustomType(name string) Type { return Type(name) }

// Known reports whether t is one of the predefined types.
func (t Type) Known() bool { return slices.Contains(knownTypes, t) }

// Request describes a notification to deliver. It is treated as immutable
// once handed to the Orchestrator.
type Request struct {
	RecipientID    string
	OrganizationID string
	ProjectID      string
	Type           Type
	Title          string
	Message        string
	Priority       Priority
	// Channels overrides routing when non-empty; used verbatim.
	Channels    []Channel
	Data        map[string]any
	ScheduledAt *time.Time
	ExpiresAt   *time.Time
}

// Record is the persisted projection of a Request.
type Record struct {
	ID             string         `json:"id" bson:"_id"`
	RecipientID    string         `json:"recipient_id" bson:"recipient_id"`
	OrganizationID string         `json:"organization_id,omitempty" bson:"organization_id,omitempty"`
	ProjectID      string         `json:"project_id,omitempty" bson:"project_id,omitempty"`
	Type           Type           `json:"type" bson:"type"`
	Title          string         `json:"title" bson:"title"`
	Message        string         `json:"message" bson:"message"`
	Priority       Priority       `json:"priority" bson:"priority"`
	Data           map[string]any `json:"data,omitempty" bson:"data,omitempty"`
	Read           bool           `json:"read" bson:"read"`
	ScheduledAt    time.Time      `json:"scheduled_at" bson:"scheduled_at"`
	SentAt         *time.Time     `json:"sent_at,omitempty" bson:"sent_at"`
	ExpiresAt      *time.Time     `json:"expires_at,omitempty" bson:"expires_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at" bson:"created_at"`
}

// IsSent reports whether at least one channel delivered the record.
func (r *Record) IsSent() bool { return r.SentAt != nil }

// IsExpired returns true if the record has an expiry in the past.
func (r *Record) IsExpired() bool {
	if r.ExpiresAt == nil {
		return false
	}
	return time.Now().After(*r.ExpiresAt)
}

// ChannelOutcome is the result of one delivery attempt.
type ChannelOutcome struct {
	Channel Channel `json:"channel"`
	Success bool    `json:"success"`
	Error   string  `json:"error,omitempty"`
}

// DeliveryResult aggregates the outcomes of one Send call.
// Outcomes follow channel selection order.
type DeliveryResult struct {
	Success        bool             `json:"success"`
	Outcomes       []ChannelOutcome `json:"channels"`
	NotificationID string           `json:"notification_id,omitempty"`
}

// Preferences lists which channels a recipient can be reached on.
type Preferences struct {
	Email bool
	SMS   bool
	Push  bool
	InApp bool
}

// DefaultPreferences is used when a recipient's contact data cannot be read.
func DefaultPreferences() Preferences {
	return Preferences{Email: true, SMS: false, Push: true, InApp: true}
}

// Enabled reports whether ch is allowed. In-app is always enabled.
func (p Preferences) Enabled(ch Channel) bool {
	switch ch {
	case ChannelInApp:
		return true
	case ChannelEmail:
		return p.Email
	case ChannelSMS:
		return p.SMS
	case ChannelPush:
		return p.Push
	}
	return false
}
