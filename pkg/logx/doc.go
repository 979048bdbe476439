// Package logx is tweetpulse's structured logging: a small value-type Logger
// over zerolog, a readable console sink and an optional JSON file sink.
package logx
