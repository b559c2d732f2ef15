//go:build !debug

package logger

const debugBuild = false
