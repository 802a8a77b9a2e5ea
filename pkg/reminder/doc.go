// Package reminder provides the background pass that warns the group chat
// about upcoming services. It runs either once a day at a fixed wall-clock
// time or on a fixed polling interval.
package reminder
