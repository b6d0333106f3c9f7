package model

// GuardTarget is the singleton binding of the control bot to its chat.
// It is created or overwritten whenever the control bot is (re)bound.
type GuardTarget struct {
	Name   string // always "guard"
	ChatID int64
}
