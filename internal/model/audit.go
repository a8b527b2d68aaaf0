package model

import "time"

// AdmissionEvent is published to Kafka for every admission decision.
type AdmissionEvent struct {
	EventID   string    `json:"event_id"`
	Identity  string    `json:"identity"`
	Tier      string    `json:"tier"`
	Allowed   bool      `json:"allowed"`
	Reason    Reason    `json:"reason,omitempty"`
	UsedToday int64     `json:"used_today,omitempty"`
	EventTime time.Time `json:"event_time"`
}
