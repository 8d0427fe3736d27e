// Package logger is a standardized event logging framework for the shell.
//
// Events are stored as newline delimited JSON objects. Each object is a
// google.protobuf.Struct in its canonical JSON form, so the log can be
// consumed by anything that understands protobuf JSON.
package logger
