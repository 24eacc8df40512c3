// Package criteria contains the speaking predicates that decide whether a
// participant should respond to the current channel state. All criteria are
// pure functions over the recent message window, evaluate the last message
// only, and treat the evaluator's own messages as an automatic "no" so
// participants cannot trigger themselves.
package criteria
