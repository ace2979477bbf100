// Package render materializes embedded template sets onto a filesystem.
//
// A template set is a directory under templates/ such as addons/biome or
// base/server. Sets are rendered into a destination directory with the
// project configuration as template data; sprig functions are available.
package render
