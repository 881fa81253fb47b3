// Package analysis turns stored draws and prize tables into feature matrices,
// per-draw unpopularity values and per-number impact scores.
//
// A number's impact compares the mean unpopularity of the draws it appeared
// in with the mean of the draws it did not. Unpopularity is expected winners
// over observed winners, so 1 is neutral and larger values mean fewer
// players picked the drawn numbers.
package analysis
