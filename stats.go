package lrmp

// Stats counts what a recovery engine has done since it was created.
type Stats struct {
	Nacks             int
	DuplicateNacks    int
	RepairsScheduled  int
	RepairsSent       int
	RepairsSuppressed int
	// RepairsObsolete counts timers that fired for a repair already gone.
	RepairsObsolete int
	SendFailures    int
	Pruned          int
}
