// Package logging builds the logr.Logger used throughout hdcluster, backed
// by zap through zapr.
package logging
