// Package vague classifies queries as vague or specific.
//
// A query is vague when the share of generic tokens (question words, generic
// verbs and nouns, filler) among the tokens left after property matching
// reaches a threshold, 0.7 by default. A bare relative time word such as
// "today" with no other explicit filter also makes a query vague: "what
// should I do today" asks for guidance, not for tasks due exactly today.
//
// When a query is vague its time word is reported as a time context and the
// due filter is relaxed to an on-or-before range that keeps overdue tasks.
// Classification is a pure function of its input.
package vague
