// Package language normalizes the language hint sent with transcription
// requests. Configuration may name a language as an ISO 639 code, a BCP 47
// tag, or an English word; the service only accepts ISO 639-1.
package language
