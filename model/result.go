package model

import "time"

// DataProcessed summarizes record counts touched by one stage run.
type DataProcessed struct {
	Added   int
	Updated int
	Deleted int
}

// Result is the execution contract every background stage returns.
// Next names the stage a scheduler should chain; empty means end of chain.
type Result struct {
	RunID   string
	Success bool
	Elapsed time.Duration
	Message string
	Data    DataProcessed
	Next    string
}
