package model

// Priority levels shared by bed turnovers and queue entries.
const (
	PriorityUrgent = "urgent"
	PriorityHigh   = "high"
	PriorityNormal = "normal"
	PriorityLow    = "low"
)

// priorityRanks maps each priority to its numeric rank. Ordering by the
// label itself would rank "urgent" below "normal" lexically, so every sort
// goes through this table (or its SQL CASE equivalent).
var priorityRanks = map[string]int{
	PriorityUrgent: 0,
	PriorityHigh:   1,
	PriorityNormal: 2,
	PriorityLow:    3,
}

// PriorityRank returns the numeric rank of a priority, lower is more urgent.
// Unknown values rank after low.
func PriorityRank(p string) int {
	if r, ok := priorityRanks[p]; ok {
		return r
	}
	return len(priorityRanks)
}

// ValidPriority reports whether p is a recognized priority level.
func ValidPriority(p string) bool {
	_, ok := priorityRanks[p]
	return ok
}

// PriorityRankSQL is the CASE expression used to order rows by priority in
// SQL. Kept in one place so every query ranks identically.
const PriorityRankSQL = "CASE priority " +
	"WHEN 'urgent' THEN 0 " +
	"WHEN 'high' THEN 1 " +
	"WHEN 'normal' THEN 2 " +
	"ELSE 3 END"
