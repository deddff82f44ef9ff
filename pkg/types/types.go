// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the topic-brainstorm
// pipeline: configuration, collected papers, vector-store documents,
// generated research topics and their evaluations.
package types
