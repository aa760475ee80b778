// Package fileutil moves and verifies files produced by external tools.
package fileutil
