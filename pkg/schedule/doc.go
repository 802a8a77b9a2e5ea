// Package schedule owns the mapping from service date to assigned preachers.
//
// Dates are stored in the canonical DD.MM.YYYY form. A date record exists only
// while at least one preacher is assigned to it; removing the last preacher
// removes the date.
package schedule
