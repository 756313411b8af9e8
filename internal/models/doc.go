// Package models defines the core domain models for Spendwise.
//
// # Models
//
//   - User: registered account with a monthly budget
//   - Expense: a single spending record owned by one user
//   - UserRef: id and username pair used when presenting split participants
//
// # Split groups
//
// A split expense is stored as a group of Expense records sharing a
// SplitGroupID: one creator record carrying the full amount and the
// participant list, plus one share record per participant carrying
// Amount / (participants + 1). Share records are derived data: they are
// regenerated from the creator record whenever it changes.
//
// # Design Principles
//
//  1. Descriptions are stored exactly as the user typed them. Annotations such
//     as "split with bob" are computed when presenting, never persisted.
//  2. Relationships use ID strings rather than pointers.
//  3. An empty SplitGroupID means the expense is not part of a split.
package models
