// Package model contains the shared domain types: jobs with their state
// machine, media sources, acquisition results and recognition reports.
package model
