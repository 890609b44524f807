// Package budget supplies the frame cache byte budget at runtime.
//
// Live holds the current budget and satisfies framecache.BudgetProvider.
// Watcher reloads the configuration file when it changes on disk and pushes the
// recomputed budget and options to its subscribers, so the limit can be raised
// or lowered while frames are playing. TotalMemory reads physical memory for
// budgets sized as a fraction of RAM.
package budget
