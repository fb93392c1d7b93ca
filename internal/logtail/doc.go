// Package logtail reads the end of the tracklist log file for the in-app log
// overlay and tags each line with its level so the UI can color and filter it.
package logtail
